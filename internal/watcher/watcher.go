// Package watcher observes a project tree recursively and maintains
// file_event_timestamps (spec.md §4.1). It performs no analysis, no
// cache invalidation and no graph mutation — its only visible effect is
// the timestamp update. Adapted from the teacher's watch.Daemon
// (JordanCoin-codemap/watch/watch.go), stripped of the TUI/handoff state
// that daemon bundled in, and generalized to the spec's ignore,
// canonicalization and symlink-containment rules.
package watcher

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"xfilecontext/internal/ignore"
)

// DegradedLogger receives a one-time notice when the platform watcher
// fails and the watcher falls back to mtime polling.
type DegradedLogger func(reason string)

// Watcher maintains Timestamps for a project root.
type Watcher struct {
	root       string
	ignoreSet  *ignore.Cache
	Timestamps *Timestamps

	fsw          *fsnotify.Watcher
	pollInterval time.Duration
	degraded     bool
	onDegrade    DegradedLogger

	done     chan struct{}
	wg       sync.WaitGroup
	pollMtimes map[string]time.Time
	pollMu     sync.Mutex
}

// Option configures a Watcher at construction time.
type Option func(*Watcher)

// WithPollInterval overrides the mtime-poll fallback interval (default 2s).
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) { w.pollInterval = d }
}

// WithDegradedLogger installs a callback fired once if the platform
// watcher cannot be created and polling takes over.
func WithDegradedLogger(fn DegradedLogger) Option {
	return func(w *Watcher) { w.onDegrade = fn }
}

// New creates a Watcher rooted at root. It does not start watching until
// Start is called.
func New(root string, opts ...Option) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		root:         absRoot,
		ignoreSet:    ignore.New(absRoot),
		Timestamps:   NewTimestamps(),
		pollInterval: 2 * time.Second,
		done:         make(chan struct{}),
		pollMtimes:   make(map[string]time.Time),
		onDegrade:    func(reason string) { log.Printf("[watcher] degraded: %s", reason) },
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins observing the tree. On success it uses the native
// fsnotify backend; if that fails (resource exhaustion, unsupported
// platform, …) it falls back to periodic mtime polling and logs the
// degradation exactly once.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.startPolling(err.Error())
		return nil
	}
	w.fsw = fsw

	if err := w.addWatchDirs(); err != nil {
		w.fsw.Close()
		w.fsw = nil
		w.startPolling(err.Error())
		return nil
	}

	w.wg.Add(1)
	go w.eventLoop()
	return nil
}

// Stop halts all background goroutines.
func (w *Watcher) Stop() {
	close(w.done)
	if w.fsw != nil {
		w.fsw.Close()
	}
	w.wg.Wait()
}

func (w *Watcher) startPolling(reason string) {
	w.degraded = true
	w.onDegrade(reason)
	w.primePollSnapshot()
	w.wg.Add(1)
	go w.pollLoop()
}

func (w *Watcher) addWatchDirs() error {
	return filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			name := info.Name()
			if path != w.root && (ignore.IsDirIgnored(name) || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			if w.ignoreSet.ShouldIgnore(path) {
				return filepath.SkipDir
			}
			return w.fsw.Add(path)
		}
		return nil
	})
}

// canonicalize resolves path to an absolute, symlink-free form and
// reports whether it stays within the project root. A resolved target
// outside the root is rejected (spec.md §4.1/§6).
func (w *Watcher) canonicalize(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// File may have just been removed; fall back to the
		// lexical absolute path so deletes still get timestamped.
		resolved = abs
	}
	rootResolved, err := filepath.EvalSymlinks(w.root)
	if err != nil {
		rootResolved = w.root
	}
	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return resolved, true
}

func (w *Watcher) shouldTrack(absPath string) bool {
	name := filepath.Base(absPath)
	if ignore.IsDirIgnored(name) || ignore.IsPatternIgnored(name) {
		return false
	}
	return !w.ignoreSet.ShouldIgnore(absPath)
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFsnotifyEvent(ev)
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			// Per-event errors from the platform watcher never halt the
			// session; they are simply dropped (no relationship-graph or
			// cache state depends on them directly).
		}
	}
}

// handleFsnotifyEvent timestamps a single create/write/remove/rename. A
// rename is modeled as the source path's delete event; fsnotify (or the
// OS) separately reports a create event for the destination path, so no
// extra bookkeeping is required here.
func (w *Watcher) handleFsnotifyEvent(ev fsnotify.Event) {
	now := time.Now()

	resolved, inRoot := w.canonicalize(ev.Name)
	if !inRoot {
		return
	}
	if !w.shouldTrack(resolved) {
		return
	}

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0:
		w.Timestamps.Touch(resolved, now)
		if ev.Op&fsnotify.Create != 0 {
			if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
				w.fsw.Add(ev.Name)
			}
		}
	}
}

// primePollSnapshot records the current mtimes so the first poll tick
// only reports genuinely new changes, not every file in the tree.
func (w *Watcher) primePollSnapshot() {
	w.pollMu.Lock()
	defer w.pollMu.Unlock()
	w.walkMtimes(func(path string, mtime time.Time) {
		w.pollMtimes[path] = mtime
	})
}

func (w *Watcher) pollLoop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.pollOnce()
		}
	}
}

func (w *Watcher) pollOnce() {
	now := time.Now()
	seen := make(map[string]bool)

	w.pollMu.Lock()
	defer w.pollMu.Unlock()

	w.walkMtimes(func(path string, mtime time.Time) {
		seen[path] = true
		prev, existed := w.pollMtimes[path]
		if !existed || mtime.After(prev) {
			w.Timestamps.Touch(path, now)
		}
		w.pollMtimes[path] = mtime
	})

	for path := range w.pollMtimes {
		if !seen[path] {
			w.Timestamps.Touch(path, now)
			delete(w.pollMtimes, path)
		}
	}
}

func (w *Watcher) walkMtimes(visit func(path string, mtime time.Time)) {
	filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil {
			return nil
		}
		name := info.Name()
		if info.IsDir() {
			if path != w.root && ignore.IsDirIgnored(name) {
				return filepath.SkipDir
			}
			return nil
		}
		resolved, inRoot := w.canonicalize(path)
		if !inRoot || !w.shouldTrack(resolved) {
			return nil
		}
		visit(resolved, info.ModTime())
		return nil
	})
}

// Degraded reports whether the watcher fell back to mtime polling.
func (w *Watcher) Degraded() bool { return w.degraded }
