package traversal

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

const (
	// GitIgnoreFileName is the name of the Git ignore file.
	GitIgnoreFileName = ".gitignore"
	// IgnoreFileName is the name of the tool-neutral ignore file.
	IgnoreFileName = ".ignore"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"

	commentPrefix    = "#"
	trailingCutset   = " \t\r"
	filesystemRootOS = string(filepath.Separator)
)

// directoryIgnoreFiles lists per-directory ignore files in ascending precedence.
var directoryIgnoreFiles = []string{GitIgnoreFileName, IgnoreFileName}

// LoadIgnoreFilePatterns reads the ignore file at ignoreFilePath and returns its patterns scoped to domain,
// the directory segments relative to the base the patterns are matched against. A missing file yields no patterns.
//
// #nosec G304
func LoadIgnoreFilePatterns(ignoreFilePath string, domain []string) ([]gitignore.Pattern, error) {
	fileHandle, openFileError := os.Open(ignoreFilePath)
	if openFileError != nil {
		if errors.Is(openFileError, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, openFileError
	}
	defer fileHandle.Close()

	var patterns []gitignore.Pattern
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), trailingCutset)
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, domain))
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, fmt.Errorf("scan %s: %w", ignoreFilePath, scanError)
	}
	return patterns, nil
}

// FindRepositoryRoot returns the nearest directory at or above directory that contains a .git entry.
// directory must be absolute.
func FindRepositoryRoot(directory string) (string, bool) {
	current := filepath.Clean(directory)
	for {
		if _, statError := os.Lstat(filepath.Join(current, GitDirectoryName)); statError == nil {
			return current, true
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}

// loadGlobalPatterns collects the rules that apply to the whole repository: the system and user
// core.excludesfile entries followed by the repository's info/exclude file.
func loadGlobalPatterns(repositoryRoot string) ([]gitignore.Pattern, []error) {
	var patterns []gitignore.Pattern
	var loadErrors []error

	filesystem := osfs.New(filesystemRootOS)
	systemPatterns, systemError := gitignore.LoadSystemPatterns(filesystem)
	if systemError != nil {
		loadErrors = append(loadErrors, fmt.Errorf("system excludes: %w", systemError))
	}
	patterns = append(patterns, systemPatterns...)

	userPatterns, userError := gitignore.LoadGlobalPatterns(filesystem)
	if userError != nil {
		loadErrors = append(loadErrors, fmt.Errorf("global excludes: %w", userError))
	}
	patterns = append(patterns, userPatterns...)

	excludeFilePath := filepath.Join(repositoryRoot, GitDirectoryName, "info", "exclude")
	excludePatterns, excludeError := LoadIgnoreFilePatterns(excludeFilePath, nil)
	if excludeError != nil {
		loadErrors = append(loadErrors, fmt.Errorf("%s: %w", excludeFilePath, excludeError))
	}
	patterns = append(patterns, excludePatterns...)

	return patterns, loadErrors
}
