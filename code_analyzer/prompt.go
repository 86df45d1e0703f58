package code_analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/comunikime/jarvis/code_analyzer/models"
	contracts "github.com/comunikime/jarvis/token_management/contracts"
)

const (
	functionWeight = 3
	classWeight    = 5

	maxPromptFunctions     = 5
	maxPromptClasses       = 3
	reducedPromptFunctions = 3
	reducedPromptClasses   = 2

	docstringLimit = 150
)

// ScoredFunction is a function candidate for the prompt, tagged with the
// file it came from and its relevance to the query.
type ScoredFunction struct {
	models.FunctionInfo
	File  string
	Score int
}

// ScoredClass is a class candidate for the prompt.
type ScoredClass struct {
	models.ClassInfo
	File  string
	Score int
}

// Rank scores every function and class in the analysis against the query
// keywords. A keyword hit in a name or docstring contributes the entity
// weight; classes outweigh functions since they carry more context. Order
// is deterministic: stable sort by descending score over sorted file names.
func Rank(analysis *models.ProjectAnalysis, query string) ([]ScoredFunction, []ScoredClass) {
	keywords := queryKeywords(query)

	var functions []ScoredFunction
	var classes []ScoredClass

	fileNames := make([]string, 0, len(analysis.Files))
	for name := range analysis.Files {
		fileNames = append(fileNames, name)
	}
	sort.Strings(fileNames)

	for _, file := range fileNames {
		summary := analysis.Files[file]
		for _, fn := range summary.Functions {
			functions = append(functions, ScoredFunction{
				FunctionInfo: fn,
				File:         file,
				Score:        score(fn.Name, fn.Docstring, keywords, functionWeight),
			})
		}
		for _, cls := range summary.Classes {
			classes = append(classes, ScoredClass{
				ClassInfo: cls,
				File:      file,
				Score:     score(cls.Name, cls.Docstring, keywords, classWeight),
			})
		}
	}

	sort.SliceStable(functions, func(i, j int) bool { return functions[i].Score > functions[j].Score })
	sort.SliceStable(classes, func(i, j int) bool { return classes[i].Score > classes[j].Score })

	return functions, classes
}

func queryKeywords(query string) []string {
	var keywords []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		word = strings.Trim(word, ".,;:!?()[]{}\"'")
		if len(word) > 2 {
			keywords = append(keywords, word)
		}
	}
	return keywords
}

func score(name, doc string, keywords []string, weight int) int {
	name = strings.ToLower(name)
	doc = strings.ToLower(doc)

	total := 0
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			total += weight
		}
		if strings.Contains(doc, kw) {
			total += weight
		}
	}
	return total
}

// AssemblePrompt renders the top-ranked entities and the user query into a
// bounded prompt. It first tries the full caps; if the estimate exceeds the
// token budget it retries with the reduced caps, so the output length is
// bounded no matter how large the project is.
func AssemblePrompt(functions []ScoredFunction, classes []ScoredClass, query string, tokenBudget int, tm contracts.ITokenManagement) string {
	prompt := render(functions, classes, query, maxPromptFunctions, maxPromptClasses)
	if tm != nil && tokenBudget > 0 && tm.EstimateTokens(prompt) > tokenBudget {
		prompt = render(functions, classes, query, reducedPromptFunctions, reducedPromptClasses)
	}
	return prompt
}

func render(functions []ScoredFunction, classes []ScoredClass, query string, maxFunctions, maxClasses int) string {
	var sb strings.Builder

	sb.WriteString("Relevant code context from the project:\n\n")

	if len(classes) > 0 {
		sb.WriteString("Classes:\n")
		for i, cls := range classes {
			if i >= maxClasses {
				break
			}
			sb.WriteString(formatClassInfo(cls))
		}
		sb.WriteString("\n")
	}

	if len(functions) > 0 {
		sb.WriteString("Functions:\n")
		for i, fn := range functions {
			if i >= maxFunctions {
				break
			}
			sb.WriteString(formatFunctionInfo(fn))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("User question: ")
	sb.WriteString(query)

	return sb.String()
}

func formatFunctionInfo(fn ScoredFunction) string {
	line := fmt.Sprintf("- %s(%s) [%s:%d]", fn.Name, strings.Join(fn.Args, ", "), fn.File, fn.Line)
	if fn.Docstring != "" {
		line += ": " + truncate(fn.Docstring, docstringLimit)
	}
	return line + "\n"
}

func formatClassInfo(cls ScoredClass) string {
	header := cls.Name
	if len(cls.Bases) > 0 {
		header += "(" + strings.Join(cls.Bases, ", ") + ")"
	}

	methodNames := make([]string, 0, len(cls.Methods))
	for _, m := range cls.Methods {
		methodNames = append(methodNames, m.Name)
	}

	line := fmt.Sprintf("- %s [%s:%d]", header, cls.File, cls.Line)
	if cls.Docstring != "" {
		line += ": " + truncate(cls.Docstring, docstringLimit)
	}
	if len(methodNames) > 0 {
		line += fmt.Sprintf(" (methods: %s)", strings.Join(methodNames, ", "))
	}
	return line + "\n"
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
