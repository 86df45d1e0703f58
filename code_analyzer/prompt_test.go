package code_analyzer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comunikime/jarvis/code_analyzer/models"
	"github.com/comunikime/jarvis/token_management"
)

func analysisWith(files map[string]models.FileSummary) *models.ProjectAnalysis {
	return &models.ProjectAnalysis{Files: files}
}

func TestRank_ClassesOutweighFunctions(t *testing.T) {
	analysis := analysisWith(map[string]models.FileSummary{
		"app.py": {
			Functions: []models.FunctionInfo{
				{Name: "load_config", Docstring: "Read the config file."},
				{Name: "unrelated", Docstring: "Nothing to see."},
			},
			Classes: []models.ClassInfo{
				{Name: "ConfigStore", Docstring: "Holds config values."},
			},
		},
	})

	functions, classes := Rank(analysis, "how does config loading work")

	require.Len(t, functions, 2)
	require.Len(t, classes, 1)

	assert.Equal(t, "load_config", functions[0].Name)
	// Name and docstring both match "config": two hits at the class weight.
	assert.Equal(t, 2*classWeight, classes[0].Score)
	assert.Equal(t, 2*functionWeight, functions[0].Score)
	assert.Zero(t, functions[1].Score)
}

func TestRank_DeterministicAcrossEqualScores(t *testing.T) {
	files := map[string]models.FileSummary{
		"b.py": {Functions: []models.FunctionInfo{{Name: "same_b"}}},
		"a.py": {Functions: []models.FunctionInfo{{Name: "same_a"}}},
		"c.py": {Functions: []models.FunctionInfo{{Name: "same_c"}}},
	}

	for i := 0; i < 5; i++ {
		functions, _ := Rank(analysisWith(files), "no matches here")
		require.Len(t, functions, 3)
		// All scores tie, so file-name order decides.
		assert.Equal(t, "same_a", functions[0].Name)
		assert.Equal(t, "same_b", functions[1].Name)
		assert.Equal(t, "same_c", functions[2].Name)
	}
}

func TestAssemblePrompt_BoundedOnLargeProjects(t *testing.T) {
	var functions []ScoredFunction
	for i := 0; i < 20; i++ {
		functions = append(functions, ScoredFunction{
			FunctionInfo: models.FunctionInfo{
				Name:      fmt.Sprintf("handler_%02d", i),
				Args:      []string{"request", "context"},
				Docstring: strings.Repeat("very long docstring text ", 20),
			},
			File:  fmt.Sprintf("handlers/h%02d.py", i),
			Score: 20 - i,
		})
	}

	tm := token_management.NewTokenManager()
	query := "which handler serves uploads?"

	prompt := AssemblePrompt(functions, nil, query, 200, tm)

	assert.Contains(t, prompt, "User question: "+query)
	// Reduced caps apply under a tight budget.
	assert.Contains(t, prompt, "handler_00")
	assert.Contains(t, prompt, "handler_02")
	assert.NotContains(t, prompt, "handler_03")
}

func TestAssemblePrompt_FullCapsUnderGenerousBudget(t *testing.T) {
	var functions []ScoredFunction
	for i := 0; i < 8; i++ {
		functions = append(functions, ScoredFunction{
			FunctionInfo: models.FunctionInfo{Name: fmt.Sprintf("fn_%d", i)},
			File:         "m.py",
		})
	}
	classes := []ScoredClass{
		{ClassInfo: models.ClassInfo{Name: "Alpha"}, File: "m.py"},
		{ClassInfo: models.ClassInfo{Name: "Beta"}, File: "m.py"},
		{ClassInfo: models.ClassInfo{Name: "Gamma"}, File: "m.py"},
		{ClassInfo: models.ClassInfo{Name: "Delta"}, File: "m.py"},
	}

	tm := token_management.NewTokenManager()
	prompt := AssemblePrompt(functions, classes, "anything", 100000, tm)

	assert.Contains(t, prompt, "fn_4")
	assert.NotContains(t, prompt, "fn_5")
	assert.Contains(t, prompt, "Gamma")
	assert.NotContains(t, prompt, "Delta")
}

func TestAssemblePrompt_TruncatesDocstrings(t *testing.T) {
	long := strings.Repeat("x", 400)
	functions := []ScoredFunction{{
		FunctionInfo: models.FunctionInfo{Name: "documented", Docstring: long},
		File:         "m.py",
	}}

	prompt := AssemblePrompt(functions, nil, "documented", 0, nil)

	assert.Contains(t, prompt, strings.Repeat("x", docstringLimit)+"...")
	assert.NotContains(t, prompt, strings.Repeat("x", docstringLimit+1))
}
