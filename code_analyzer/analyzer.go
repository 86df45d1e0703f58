// Package code_analyzer extracts the structure of a Python source tree:
// functions, classes with their methods, and imports. Results feed the
// prompt assembler and are cached under a fingerprint of the tree.
package code_analyzer

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/comunikime/jarvis/cache_manager"
	"github.com/comunikime/jarvis/code_analyzer/models"
	"github.com/comunikime/jarvis/utils"
)

const sourceExt = ".py"

// CodeAnalyzer handles the analysis of project files.
type CodeAnalyzer struct {
	logger *slog.Logger
	cache  *cache_manager.Manager[models.ProjectAnalysis]
}

// NewCodeAnalyzer initializes an analyzer. A nil cache disables the cached
// project analysis path; AnalyzeProject still works.
func NewCodeAnalyzer(cache *cache_manager.Manager[models.ProjectAnalysis], logger *slog.Logger) *CodeAnalyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &CodeAnalyzer{logger: logger, cache: cache}
}

// AnalyzeFile parses a single source file. It reports absent (false) on
// read failures and on files the parser cannot make sense of; neither case
// aborts a surrounding project scan.
func (a *CodeAnalyzer) AnalyzeFile(path string) (*models.FileSummary, bool) {
	source, err := os.ReadFile(path)
	if err != nil {
		a.logger.Error("failed to read source file, skipping", "path", path, "error", err)
		return nil, false
	}

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree := parser.Parse(nil, source)
	root := tree.RootNode()
	if root.HasError() {
		a.logger.Error("syntax error in source file, skipping", "path", path)
		return nil, false
	}

	summary := &models.FileSummary{}
	a.collect(root, source, summary)

	a.logger.Debug("analyzed file",
		"path", path,
		"functions", len(summary.Functions),
		"classes", len(summary.Classes),
		"imports", len(summary.Imports))

	return summary, true
}

// collect walks the syntax tree with an explicit worklist, dispatching on
// the closed set of node kinds the summary cares about. Class bodies are
// not queued: their functions are gathered as methods by classInfo, which
// is what keeps a free function and a same-named method apart.
func (a *CodeAnalyzer) collect(root *sitter.Node, src []byte, out *models.FileSummary) {
	queue := []*sitter.Node{root}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)

			kind := child.Type()
			if kind == "decorated_definition" {
				if def := child.ChildByFieldName("definition"); def != nil {
					child = def
					kind = def.Type()
				}
			}

			switch kind {
			case "function_definition":
				out.Functions = append(out.Functions, a.functionInfo(child, src))
				// Nested definitions inside a function body still count.
				if body := child.ChildByFieldName("body"); body != nil {
					queue = append(queue, body)
				}
			case "class_definition":
				out.Classes = append(out.Classes, a.classInfo(child, src))
			case "import_statement":
				out.Imports = append(out.Imports, plainImports(child, src)...)
			case "import_from_statement":
				out.Imports = append(out.Imports, fromImports(child, src)...)
			default:
				queue = append(queue, child)
			}
		}
	}
}

func (a *CodeAnalyzer) functionInfo(node *sitter.Node, src []byte) models.FunctionInfo {
	info := models.FunctionInfo{Line: int(node.StartPoint().Row) + 1}

	if name := node.ChildByFieldName("name"); name != nil {
		info.Name = name.Content(src)
	}

	if params := node.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			if arg := parameterName(params.NamedChild(i), src); arg != "" {
				info.Args = append(info.Args, arg)
			}
		}
	}

	info.Docstring = docstring(node, src)
	return info
}

func (a *CodeAnalyzer) classInfo(node *sitter.Node, src []byte) models.ClassInfo {
	info := models.ClassInfo{Line: int(node.StartPoint().Row) + 1}

	if name := node.ChildByFieldName("name"); name != nil {
		info.Name = name.Content(src)
	}

	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for i := 0; i < int(supers.NamedChildCount()); i++ {
			base := supers.NamedChild(i)
			switch base.Type() {
			case "identifier", "attribute":
				info.Bases = append(info.Bases, base.Content(src))
			}
		}
	}

	info.Docstring = docstring(node, src)

	// Only functions lexically inside this class body become methods.
	if body := node.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			member := body.NamedChild(i)
			if member.Type() == "decorated_definition" {
				if def := member.ChildByFieldName("definition"); def != nil {
					member = def
				}
			}
			if member.Type() == "function_definition" {
				info.Methods = append(info.Methods, a.functionInfo(member, src))
			}
		}
	}

	return info
}

// parameterName resolves the identifier of any parameter form: plain,
// typed, defaulted, or splat.
func parameterName(node *sitter.Node, src []byte) string {
	if node.Type() == "identifier" {
		return node.Content(src)
	}
	if name := node.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
		return name.Content(src)
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "identifier" {
			return child.Content(src)
		}
	}
	return ""
}

// docstring returns the leading string literal of a definition body, or "".
func docstring(def *sitter.Node, src []byte) string {
	body := def.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	str := first.NamedChild(0)
	if str.Type() != "string" {
		return ""
	}
	return stripQuotes(str.Content(src))
}

func stripQuotes(s string) string {
	// Drop string prefixes like r, b, f, u before the opening quote.
	s = strings.TrimLeft(s, "rRbBfFuU")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return strings.TrimSpace(s[len(q) : len(s)-len(q)])
		}
	}
	return strings.TrimSpace(s)
}

func plainImports(node *sitter.Node, src []byte) []models.ImportInfo {
	var imports []models.ImportInfo
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			imports = append(imports, models.ImportInfo{Type: "import", Name: child.Content(src)})
		case "aliased_import":
			imp := models.ImportInfo{Type: "import"}
			if name := child.ChildByFieldName("name"); name != nil {
				imp.Name = name.Content(src)
			}
			if alias := child.ChildByFieldName("alias"); alias != nil {
				imp.Alias = alias.Content(src)
			}
			imports = append(imports, imp)
		}
	}
	return imports
}

func fromImports(node *sitter.Node, src []byte) []models.ImportInfo {
	var imports []models.ImportInfo
	module := ""

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "dotted_name", "relative_import":
			// The first dotted name is the source module, the rest are
			// imported names.
			if module == "" {
				module = child.Content(src)
				continue
			}
			imports = append(imports, models.ImportInfo{Type: "importfrom", Module: module, Name: child.Content(src)})
		case "aliased_import":
			imp := models.ImportInfo{Type: "importfrom", Module: module}
			if name := child.ChildByFieldName("name"); name != nil {
				imp.Name = name.Content(src)
			}
			if alias := child.ChildByFieldName("alias"); alias != nil {
				imp.Alias = alias.Content(src)
			}
			imports = append(imports, imp)
		case "wildcard_import":
			imports = append(imports, models.ImportInfo{Type: "importfrom", Module: module, Name: "*"})
		}
	}
	return imports
}

// AnalyzeProject recursively discovers source files under rootDir and
// analyzes each independently; one file failing to parse does not abort
// the others. Returns per-file summaries plus aggregate counts.
func (a *CodeAnalyzer) AnalyzeProject(rootDir string) *models.ProjectAnalysis {
	result := &models.ProjectAnalysis{Files: make(map[string]models.FileSummary)}

	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			a.logger.Error("walk error, skipping subtree", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relativePath, relErr := filepath.Rel(rootDir, path)
		if relErr != nil {
			return nil
		}
		relativePath = strings.ReplaceAll(relativePath, "\\", "/")

		if utils.IsDefaultIgnored(relativePath) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() || !strings.HasSuffix(path, sourceExt) {
			return nil
		}

		summary, ok := a.AnalyzeFile(path)
		if !ok {
			return nil
		}

		result.Files[relativePath] = *summary
		result.Summary.TotalFiles++
		result.Summary.TotalFunctions += len(summary.Functions)
		result.Summary.TotalClasses += len(summary.Classes)
		result.Summary.TotalImports += len(summary.Imports)
		return nil
	})
	if err != nil {
		a.logger.Error("project walk failed", "dir", rootDir, "error", err)
	}

	a.logger.Info("project analysis finished",
		"dir", rootDir,
		"files", result.Summary.TotalFiles,
		"functions", result.Summary.TotalFunctions,
		"classes", result.Summary.TotalClasses)

	return result
}
