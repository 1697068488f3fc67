// Command xfile_context is a local harness for the tool surface in
// spec.md §6: read_with_context, get_relationship_graph, get_dependents,
// get_dependencies, get_recent_injections and get_cache_statistics, each
// exposed as a flag-driven subcommand over one project root. Flag-based
// dispatch (rather than a subcommand framework) follows the root CLI in
// JordanCoin-codemap.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"xfilecontext/internal/config"
	"xfilecontext/internal/report"
	"xfilecontext/internal/session"
)

func usage() {
	fmt.Fprintln(os.Stderr, `xfile_context - cross-file context injection for Python projects

Usage:
  xfile_context [flags] <path>

Flags:
  --root <dir>          project root (default: current directory)
  --config <file>        path to a YAML config file (default: .xfile_context.yaml under root)
  --read                 read <path> with injected cross-file context (default action)
  --graph                print the full relationship graph as JSON
  --dependents           print files that depend on <path>
  --dependencies         print files <path> depends on
  --cache-stats          print cache hit/eviction counters
  --recent-injections N  print the last N injection_log.jsonl records
  --watch                start the filesystem watcher and block until interrupted
  --json                 force JSON output where a human-readable form also exists`)
}

func main() {
	root := flag.String("root", ".", "project root")
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Bool("read", false, "read <path> with injected cross-file context (default action)")
	doGraph := flag.Bool("graph", false, "print the full relationship graph")
	doDependents := flag.Bool("dependents", false, "print dependents of <path>")
	doDependencies := flag.Bool("dependencies", false, "print dependencies of <path>")
	doCacheStats := flag.Bool("cache-stats", false, "print cache statistics")
	recentInjections := flag.Int("recent-injections", 0, "print the last N injection_log.jsonl records")
	doWatch := flag.Bool("watch", false, "start the watcher and block")
	asJSON := flag.Bool("json", false, "force JSON output")
	flag.Usage = usage
	flag.Parse()

	absRoot, err := filepath.Abs(*root)
	if err != nil {
		fatal(err)
	}

	cfgFile := *configPath
	if cfgFile == "" {
		cfgFile = filepath.Join(absRoot, ".xfile_context.yaml")
	}
	cfg := loadConfig(cfgFile)

	sess, err := session.New(absRoot, cfg)
	if err != nil {
		fatal(err)
	}
	defer sess.Close()

	if err := sess.Start(); err != nil {
		fatal(err)
	}

	if *doWatch {
		fmt.Printf("watching %s (ctrl-c to stop)\n", absRoot)
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		sess.EndSession()
		return
	}

	switch {
	case *doGraph:
		printJSON(sess.GetRelationshipGraph())
		return
	case *doCacheStats:
		printJSON(sess.GetCacheStatistics())
		return
	case *recentInjections > 0:
		printRecentInjections(absRoot, *recentInjections)
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		printSummary(sess)
		return
	}
	target := args[0]

	switch {
	case *doDependents:
		printList(sess.GetDependents(target), *asJSON)
	case *doDependencies:
		printList(sess.GetDependencies(target), *asJSON)
	default:
		readWithContext(sess, target, *asJSON)
	}

	sess.EndSession()
}

func readWithContext(sess *session.Session, target string, asJSON bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := sess.ReadWithContext(ctx, target)
	if err != nil {
		fatal(err)
	}

	if asJSON {
		printJSON(result.Event)
		return
	}

	fmt.Print(result.SnippetSection)
	fmt.Println(result.Content)
}

func printSummary(sess *session.Session) {
	report.Print(sess.Summary())
}

func printList(items []string, asJSON bool) {
	if asJSON {
		printJSON(items)
		return
	}
	for _, item := range items {
		fmt.Println(item)
	}
}

// printRecentInjections tails injection_log.jsonl and re-emits the last n
// records verbatim, since each line is already a complete JSON object.
func printRecentInjections(root string, n int) {
	path := filepath.Join(root, ".xfile_context", "injection_log.jsonl")
	data, err := os.ReadFile(path)
	if err != nil {
		fatal(err)
	}
	lines := splitNonEmptyLines(string(data))
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for _, line := range lines {
		fmt.Println(line)
	}
}

func splitNonEmptyLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fatal(err)
	}
}

// loadConfig reads an optional YAML overrides file and merges it onto
// the built-in defaults; a missing or unreadable file is silently
// ignored since the config layer itself has no opinion on file loading
// (internal/config only applies defaults and accepts overrides).
func loadConfig(path string) config.Config {
	defaults := config.Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return defaults
	}
	var overrides map[string]any
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return defaults
	}
	return defaults.Merge(overrides)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "xfile_context:", err)
	os.Exit(1)
}
