package traversal

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"go.uber.org/zap"

	"github.com/temirov/fileagg/internal/utils"
)

// ExcludedPathFragment excludes every path whose part below the walk root contains it, regardless of other options.
const ExcludedPathFragment = "node_modules"

const (
	warningIgnoreFileFormat   = "Warning: skipping ignore file %s: %v"
	warningGlobalIgnoreFormat = "Warning: skipping global ignore rules: %v"
	warningAbsoluteRootFormat = "Warning: skipping parent ignore rules of %s: %v"
	relativePathSeparator     = "/"
)

// Options is the immutable selection policy of one run.
type Options struct {
	IncludeHidden      bool
	EnforceIgnoreRules bool
	// Extensions is the allowlist of extensions without a leading dot. Empty accepts every extension.
	Extensions []string
}

// Filter applies Options to the entries produced by a walk rooted at a single directory.
// It accumulates ignore-file patterns as directories are entered, so it belongs to one walk.
//
// Inside a Git repository ignore patterns are matched against paths relative to the repository
// root; rootSegments locates the walk root below it. Outside a repository they are matched
// against paths relative to the walk root and only .ignore files apply.
type Filter struct {
	root             string
	rootSegments     []string
	insideRepository bool
	options          Options
	extensions       map[string]struct{}
	patterns         []gitignore.Pattern
	logger           *zap.Logger
}

// NewFilter prepares a Filter for a walk of root. When ignore rules are enforced and root lies in a
// Git repository, the global excludes, the repository's info/exclude file and the ignore files of
// every directory between the repository root and root are loaded up front. Unreadable sources are
// logged and skipped.
func NewFilter(root string, options Options, logger *zap.Logger) *Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	filter := &Filter{
		root:       filepath.Clean(root),
		options:    options,
		extensions: make(map[string]struct{}, len(options.Extensions)),
		logger:     logger,
	}
	for _, extension := range options.Extensions {
		filter.extensions[extension] = struct{}{}
	}
	if options.EnforceIgnoreRules {
		filter.loadRepositoryPatterns()
	}
	return filter
}

// Options returns the policy the filter was built with.
func (filter *Filter) Options() Options {
	return filter.options
}

// InsideRepository reports whether the walk root was found inside a Git repository.
func (filter *Filter) InsideRepository() bool {
	return filter.insideRepository
}

func (filter *Filter) loadRepositoryPatterns() {
	absoluteRoot, absoluteError := filepath.Abs(filter.root)
	if absoluteError != nil {
		filter.logger.Warn(fmt.Sprintf(warningAbsoluteRootFormat, filter.root, absoluteError))
		return
	}
	repositoryRoot, found := FindRepositoryRoot(absoluteRoot)
	if !found {
		return
	}
	filter.insideRepository = true
	filter.rootSegments = utils.RelativeSegments(absoluteRoot, repositoryRoot)

	globalPatterns, loadErrors := loadGlobalPatterns(repositoryRoot)
	for _, loadError := range loadErrors {
		filter.logger.Warn(fmt.Sprintf(warningGlobalIgnoreFormat, loadError))
	}
	filter.patterns = append(filter.patterns, globalPatterns...)

	for depth := range filter.rootSegments {
		domain := filter.rootSegments[:depth]
		ancestor := filepath.Join(append([]string{repositoryRoot}, domain...)...)
		filter.loadDirectoryPatterns(ancestor, domain)
	}
}

// SkipDirectory reports whether the walk should not descend into the directory at path.
// The root itself is never skipped.
func (filter *Filter) SkipDirectory(path string, entry fs.DirEntry) bool {
	if filepath.Clean(path) == filter.root {
		return false
	}
	if !filter.options.IncludeHidden && IsHidden(entry.Name()) {
		return true
	}
	if filter.underExcludedPath(path) {
		return true
	}
	return filter.isIgnored(path, true)
}

// EnterDirectory loads the ignore files of the directory at path, scoping their patterns to it.
// Patterns loaded later take precedence, so deeper directories override their parents and
// .ignore overrides .gitignore within one directory.
func (filter *Filter) EnterDirectory(path string) {
	if !filter.options.EnforceIgnoreRules {
		return
	}
	filter.loadDirectoryPatterns(path, filter.matchSegments(path))
}

func (filter *Filter) loadDirectoryPatterns(directory string, domain []string) {
	for _, ignoreFileName := range directoryIgnoreFiles {
		if ignoreFileName == GitIgnoreFileName && !filter.insideRepository {
			continue
		}
		ignoreFilePath := filepath.Join(directory, ignoreFileName)
		patterns, loadError := LoadIgnoreFilePatterns(ignoreFilePath, domain)
		if loadError != nil {
			filter.logger.Warn(fmt.Sprintf(warningIgnoreFileFormat, ignoreFilePath, loadError))
			continue
		}
		filter.patterns = append(filter.patterns, patterns...)
	}
}

// Accept reports whether the walked entry at path is eligible for aggregation.
func (filter *Filter) Accept(path string, entry fs.DirEntry) bool {
	if entry == nil || entry.IsDir() {
		return false
	}
	if !filter.options.IncludeHidden && IsHidden(entry.Name()) {
		return false
	}
	if filter.isIgnored(path, false) {
		return false
	}
	if !isRegularFile(path, entry) {
		return false
	}
	if filter.underExcludedPath(path) {
		return false
	}
	return filter.allowsExtension(path)
}

func (filter *Filter) allowsExtension(path string) bool {
	if len(filter.extensions) == 0 {
		return true
	}
	extension, hasExtension := Extension(path)
	if !hasExtension {
		return false
	}
	_, allowed := filter.extensions[extension]
	return allowed
}

// underExcludedPath checks only the part of path below the walk root, so a root that itself
// lives under a node_modules directory is still walked.
func (filter *Filter) underExcludedPath(path string) bool {
	relativePath := strings.Join(utils.RelativeSegments(path, filter.root), relativePathSeparator)
	return strings.Contains(relativePath, ExcludedPathFragment)
}

func (filter *Filter) isIgnored(path string, isDirectory bool) bool {
	if !filter.options.EnforceIgnoreRules || len(filter.patterns) == 0 {
		return false
	}
	if len(utils.RelativeSegments(path, filter.root)) == 0 {
		return false
	}
	return gitignore.NewMatcher(filter.patterns).Match(filter.matchSegments(path), isDirectory)
}

// matchSegments returns the segments of path relative to the base ignore patterns are scoped to.
func (filter *Filter) matchSegments(path string) []string {
	relativeSegments := utils.RelativeSegments(path, filter.root)
	segments := make([]string, 0, len(filter.rootSegments)+len(relativeSegments))
	segments = append(segments, filter.rootSegments...)
	return append(segments, relativeSegments...)
}
