package app

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/ludo-technologies/mailscan/internal/constants"
)

// FileHelper collects template files for batch analysis
type FileHelper struct{}

// NewFileHelper creates a new FileHelper
func NewFileHelper() *FileHelper {
	return &FileHelper{}
}

// CollectHTMLFiles collects .html/.htm files from the given paths. Directory
// arguments are walked recursively, honoring a .mailscanignore file at the
// directory root when one exists.
func (h *FileHelper) CollectHTMLFiles(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if h.IsHTMLFile(path) {
				files = append(files, path)
			}
			continue
		}

		ignorer := loadIgnoreFile(path)
		err = filepath.Walk(path, func(filePath string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			rel, relErr := filepath.Rel(path, filePath)
			if relErr != nil {
				rel = filePath
			}
			if ignorer != nil && ignorer.MatchesPath(rel) {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !info.IsDir() && h.IsHTMLFile(filePath) {
				files = append(files, filePath)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// IsHTMLFile checks the file extension
func (h *FileHelper) IsHTMLFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	}
	return false
}

func loadIgnoreFile(dir string) *gitignore.GitIgnore {
	path := filepath.Join(dir, constants.IgnoreFileName)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	ignorer, err := gitignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return ignorer
}
