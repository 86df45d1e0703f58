package models

// FunctionInfo describes one function or method found in a source file.
type FunctionInfo struct {
	Name      string   `json:"name"`
	Line      int      `json:"lineno"`
	Args      []string `json:"args"`
	Docstring string   `json:"docstring"`
}

// ClassInfo describes a class with its methods. Methods are attributed by
// lexical nesting inside the class body, never by name matching.
type ClassInfo struct {
	Name      string         `json:"name"`
	Line      int            `json:"lineno"`
	Bases     []string       `json:"bases"`
	Methods   []FunctionInfo `json:"methods"`
	Docstring string         `json:"docstring"`
}

// ImportInfo records one imported name. Type is "import" for plain imports
// and "importfrom" for from-imports, where Module carries the source module.
type ImportInfo struct {
	Type   string `json:"type"`
	Module string `json:"module,omitempty"`
	Name   string `json:"name"`
	Alias  string `json:"asname,omitempty"`
}

// FileSummary is the structural inventory of a single source file,
// immutable once returned by the analyzer.
type FileSummary struct {
	Functions []FunctionInfo `json:"functions"`
	Classes   []ClassInfo    `json:"classes"`
	Imports   []ImportInfo   `json:"imports"`
}

// Summary aggregates counts across an analyzed project.
type Summary struct {
	TotalFiles     int `json:"total_files"`
	TotalFunctions int `json:"total_functions"`
	TotalClasses   int `json:"total_classes"`
	TotalImports   int `json:"total_imports"`
}

// ProjectAnalysis is the project-wide result cached under the directory
// fingerprint: per-file summaries keyed by relative path plus totals.
type ProjectAnalysis struct {
	Files   map[string]FileSummary `json:"files"`
	Summary Summary                `json:"summary"`
}
