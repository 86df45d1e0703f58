package utils

import (
	"path/filepath"
	"strings"
)

// defaultIgnorePatterns lists the directories and files that never carry
// analyzable source: VCS metadata, virtual environments, build output.
var defaultIgnorePatterns = []string{
	".git",
	".hg",
	".svn",
	".idea",
	".vscode",
	".venv",
	"venv",
	"env",
	"__pycache__",
	".mypy_cache",
	".pytest_cache",
	".ruff_cache",
	".tox",
	"node_modules",
	"dist",
	"build",
	".eggs",
	"*.egg-info",
}

// IsDefaultIgnored reports whether a slash-separated relative path should
// be skipped during project scans. Every path segment is matched against
// the default patterns, so ignored directories prune their whole subtree.
func IsDefaultIgnored(relativePath string) bool {
	if relativePath == "." || relativePath == "" {
		return false
	}

	for _, segment := range strings.Split(relativePath, "/") {
		for _, pattern := range defaultIgnorePatterns {
			if matched, err := filepath.Match(pattern, segment); err == nil && matched {
				return true
			}
		}
	}
	return false
}
