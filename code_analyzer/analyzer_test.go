package code_analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comunikime/jarvis/log_manager"
)

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAnalyzeFile_FunctionsAndDocstrings(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "tools.py", `import os
import numpy as np
from pathlib import Path

def greet(name, punctuation="!"):
    """Say hello to someone."""
    return "Hello " + name + punctuation

def silent(a, *args, **kwargs):
    pass
`)

	analyzer := NewCodeAnalyzer(nil, log_manager.NewDiscard())
	summary, ok := analyzer.AnalyzeFile(path)
	require.True(t, ok)

	require.Len(t, summary.Functions, 2)

	greet := summary.Functions[0]
	assert.Equal(t, "greet", greet.Name)
	assert.Equal(t, 5, greet.Line)
	assert.Equal(t, []string{"name", "punctuation"}, greet.Args)
	assert.Equal(t, "Say hello to someone.", greet.Docstring)

	silent := summary.Functions[1]
	assert.Equal(t, "silent", silent.Name)
	assert.Equal(t, []string{"a", "args", "kwargs"}, silent.Args)
	assert.Empty(t, silent.Docstring)

	require.Len(t, summary.Imports, 3)
	assert.Equal(t, "import", summary.Imports[0].Type)
	assert.Equal(t, "os", summary.Imports[0].Name)
	assert.Equal(t, "numpy", summary.Imports[1].Name)
	assert.Equal(t, "np", summary.Imports[1].Alias)
	assert.Equal(t, "importfrom", summary.Imports[2].Type)
	assert.Equal(t, "pathlib", summary.Imports[2].Module)
	assert.Equal(t, "Path", summary.Imports[2].Name)
}

func TestAnalyzeFile_MethodsStayInsideTheirClass(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "shapes.py", `class Foo:
    """A container."""

    def bar(self):
        """Method bar."""
        return 1

def bar():
    """Free function bar."""
    return 2
`)

	analyzer := NewCodeAnalyzer(nil, log_manager.NewDiscard())
	summary, ok := analyzer.AnalyzeFile(path)
	require.True(t, ok)

	// The method and the free function share a name but must not be conflated.
	require.Len(t, summary.Functions, 1)
	assert.Equal(t, "bar", summary.Functions[0].Name)
	assert.Equal(t, "Free function bar.", summary.Functions[0].Docstring)

	require.Len(t, summary.Classes, 1)
	foo := summary.Classes[0]
	assert.Equal(t, "Foo", foo.Name)
	assert.Equal(t, "A container.", foo.Docstring)
	require.Len(t, foo.Methods, 1)
	assert.Equal(t, "bar", foo.Methods[0].Name)
	assert.Equal(t, "Method bar.", foo.Methods[0].Docstring)
}

func TestAnalyzeFile_DecoratedAndNestedDefinitions(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "deco.py", `import functools

@functools.cache
def outer():
    def inner():
        pass
    return inner

class Base:
    pass

class Derived(Base):
    @property
    def value(self):
        return 42
`)

	analyzer := NewCodeAnalyzer(nil, log_manager.NewDiscard())
	summary, ok := analyzer.AnalyzeFile(path)
	require.True(t, ok)

	names := make([]string, 0, len(summary.Functions))
	for _, fn := range summary.Functions {
		names = append(names, fn.Name)
	}
	assert.ElementsMatch(t, []string{"outer", "inner"}, names)

	require.Len(t, summary.Classes, 2)
	derived := summary.Classes[1]
	assert.Equal(t, "Derived", derived.Name)
	assert.Equal(t, []string{"Base"}, derived.Bases)
	require.Len(t, derived.Methods, 1)
	assert.Equal(t, "value", derived.Methods[0].Name)
}

func TestAnalyzeFile_SyntaxErrorIsSkipped(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "broken.py", "def broken(:\n    pass\n")

	analyzer := NewCodeAnalyzer(nil, log_manager.NewDiscard())
	summary, ok := analyzer.AnalyzeFile(path)

	assert.False(t, ok)
	assert.Nil(t, summary)
}

func TestAnalyzeProject_AggregatesAndIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.py", "def alpha():\n    pass\n")
	writeSource(t, dir, "pkg/b.py", "class Beta:\n    def method(self):\n        pass\n")
	writeSource(t, dir, "broken.py", "def broken(:\n")
	writeSource(t, dir, "notes.txt", "not python")
	writeSource(t, dir, "__pycache__/c.py", "def cached():\n    pass\n")

	analyzer := NewCodeAnalyzer(nil, log_manager.NewDiscard())
	analysis := analyzer.AnalyzeProject(dir)

	assert.Equal(t, 2, analysis.Summary.TotalFiles)
	assert.Equal(t, 1, analysis.Summary.TotalFunctions)
	assert.Equal(t, 1, analysis.Summary.TotalClasses)

	assert.Contains(t, analysis.Files, "a.py")
	assert.Contains(t, analysis.Files, "pkg/b.py")
	assert.NotContains(t, analysis.Files, "broken.py")
	assert.NotContains(t, analysis.Files, "__pycache__/c.py")
}
