package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"xfilecontext/internal/model"
)

func TestRelationshipKeyDistinguishesFullTuple(t *testing.T) {
	a := model.Relationship{SourceFile: "a.py", TargetFile: "b.py", RelationshipType: model.Import, LineNumber: 1}
	b := model.Relationship{SourceFile: "a.py", TargetFile: "b.py", RelationshipType: model.Import, LineNumber: 2}
	c := model.Relationship{SourceFile: "a.py", TargetFile: "b.py", RelationshipType: model.Import, LineNumber: 1}

	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, a.Key(), c.Key())
}

func TestRelationshipKeyIncludesSymbols(t *testing.T) {
	a := model.Relationship{SourceFile: "a.py", TargetFile: "b.py", RelationshipType: model.FunctionCall, TargetSymbol: "foo"}
	b := model.Relationship{SourceFile: "a.py", TargetFile: "b.py", RelationshipType: model.FunctionCall, TargetSymbol: "bar"}

	assert.NotEqual(t, a.Key(), b.Key())
}

func TestAddDynamicPatternDeduplicates(t *testing.T) {
	meta := &model.FileMetadata{}
	meta.AddDynamicPattern("exec_eval")
	meta.AddDynamicPattern("exec_eval")
	meta.AddDynamicPattern("decorator")

	assert.True(t, meta.HasDynamicPatterns)
	assert.Equal(t, []string{"exec_eval", "decorator"}, meta.DynamicPatternTypes)
}
