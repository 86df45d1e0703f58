package code_analyzer

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/comunikime/jarvis/cache_manager"
	"github.com/comunikime/jarvis/code_analyzer/models"
	"github.com/comunikime/jarvis/utils"
)

// DirectoryFingerprint derives a stable digest from the metadata of every
// source file under dir: relative path, modification time and size. Any
// file edit, addition or removal changes the fingerprint, so stale cached
// analyses are simply never looked up again.
func DirectoryFingerprint(dir string) (string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relativePath, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
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

		info, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}

		files = append(files, fmt.Sprintf("%s:%d:%d", relativePath, info.ModTime().UnixNano(), info.Size()))
		return nil
	})
	if err != nil {
		return "", err
	}

	sort.Strings(files)

	return cache_manager.DeriveKey(struct {
		Dir   string   `json:"dir"`
		Files []string `json:"files"`
	}{Dir: filepath.Base(dir), Files: files})
}

// CachedAnalyzeProject consults the analysis cache under the directory
// fingerprint before doing any parsing. Fingerprint or cache trouble falls
// back to a fresh analysis rather than failing the caller.
func (a *CodeAnalyzer) CachedAnalyzeProject(rootDir string) *models.ProjectAnalysis {
	if a.cache == nil {
		return a.AnalyzeProject(rootDir)
	}

	fingerprint, err := DirectoryFingerprint(rootDir)
	if err != nil {
		a.logger.Error("directory fingerprint failed, analyzing without cache", "dir", rootDir, "error", err)
		return a.AnalyzeProject(rootDir)
	}

	if cached, ok, _ := a.cache.Get(fingerprint); ok {
		a.logger.Debug("project analysis served from cache", "dir", rootDir)
		return &cached
	}

	analysis := a.AnalyzeProject(rootDir)
	if err := a.cache.Set(fingerprint, *analysis); err != nil {
		a.logger.Error("failed to cache project analysis", "dir", rootDir, "error", err)
	}
	return analysis
}
