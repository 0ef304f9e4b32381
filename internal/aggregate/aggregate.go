// Package aggregate walks a directory and concatenates the eligible files into one annotated text.
package aggregate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/fileagg/internal/progress"
	"github.com/temirov/fileagg/internal/traversal"
)

const (
	warningAccessFormat    = "Error accessing entry %s: %v"
	warningReadFileFormat  = "Error reading file %s: %v"
	noFilesProcessedNotice = "No files were processed. Result is empty."
	processedSummaryFormat = "Processed %d characters"
	progressDoneMessage    = "Done!"
)

var (
	// ErrNotDirectory reports a root path that does not name an existing directory.
	ErrNotDirectory = errors.New("path is not a directory")
	// ErrNotText reports file content that is not valid UTF-8 text.
	ErrNotText = errors.New("stream did not contain valid UTF-8")
)

// NotDirectoryError identifies the root path rejected by Aggregate.
type NotDirectoryError struct {
	Path string
	Err  error
}

func (notDirectoryError *NotDirectoryError) Error() string {
	if notDirectoryError.Err != nil {
		return fmt.Sprintf("%s: %q: %v", ErrNotDirectory, notDirectoryError.Path, notDirectoryError.Err)
	}
	return fmt.Sprintf("%s: %q", ErrNotDirectory, notDirectoryError.Path)
}

func (notDirectoryError *NotDirectoryError) Is(target error) bool {
	return target == ErrNotDirectory
}

func (notDirectoryError *NotDirectoryError) Unwrap() error {
	return notDirectoryError.Err
}

// Dependencies carries the collaborators of a run. Nil members are replaced by no-op values.
type Dependencies struct {
	Logger   *zap.Logger
	Progress progress.Indicator
}

// Result is the outcome of one run.
type Result struct {
	// Text is the trimmed Aggregate Output.
	Text string
	// Files counts the file blocks in Text.
	Files int
	// Characters is the byte length of the output before trimming.
	Characters int
}

type aggregation struct {
	root        string
	filter      *traversal.Filter
	accumulator *Accumulator
	logger      *zap.Logger
	progress    progress.Indicator
}

// Aggregate walks root and returns the annotated concatenation of every file accepted by options.
// Only a root that is not an existing directory fails the run; access and read errors on single
// entries are logged and skipped.
func Aggregate(root string, options traversal.Options, dependencies Dependencies) (Result, error) {
	rootInfo, statError := os.Stat(root)
	if statError != nil {
		return Result{}, &NotDirectoryError{Path: root, Err: statError}
	}
	if !rootInfo.IsDir() {
		return Result{}, &NotDirectoryError{Path: root}
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	indicator := dependencies.Progress
	if indicator == nil {
		indicator = progress.Discard
	}
	logger = logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &progressClearingCore{Core: core, indicator: indicator}
	}))

	run := &aggregation{
		root:        root,
		filter:      traversal.NewFilter(root, options, logger),
		accumulator: &Accumulator{},
		logger:      logger,
		progress:    indicator,
	}
	if walkError := filepath.WalkDir(walkRoot(root), run.visit); walkError != nil {
		return Result{}, fmt.Errorf("walk %s: %w", root, walkError)
	}
	run.progress.Finish(progressDoneMessage)

	characters := run.accumulator.Len()
	if characters == 0 {
		logger.Info(noFilesProcessedNotice)
	} else {
		logger.Info(fmt.Sprintf(processedSummaryFormat, characters))
	}

	return Result{
		Text:       run.accumulator.Finalize(),
		Files:      run.accumulator.Files(),
		Characters: characters,
	}, nil
}

func (run *aggregation) visit(path string, entry fs.DirEntry, accessError error) error {
	run.progress.Tick()
	if accessError != nil {
		run.logger.Warn(fmt.Sprintf(warningAccessFormat, path, accessError))
		if entry != nil && entry.IsDir() {
			return filepath.SkipDir
		}
		return nil
	}

	if entry.IsDir() {
		if run.filter.SkipDirectory(path, entry) {
			return filepath.SkipDir
		}
		run.filter.EnterDirectory(path)
		return nil
	}

	if !run.filter.Accept(path, entry) {
		return nil
	}
	content, readError := readText(path)
	if readError != nil {
		run.logger.Warn(fmt.Sprintf(warningReadFileFormat, path, readError))
	}
	run.accumulator.AppendFile(path, content, readError)
	return nil
}

// progressClearingCore clears the progress line before every log entry so diagnostics start on a clean line.
type progressClearingCore struct {
	zapcore.Core
	indicator progress.Indicator
}

func (core *progressClearingCore) With(fields []zapcore.Field) zapcore.Core {
	return &progressClearingCore{Core: core.Core.With(fields), indicator: core.indicator}
}

func (core *progressClearingCore) Check(entry zapcore.Entry, checkedEntry *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if core.Enabled(entry.Level) {
		return checkedEntry.AddCore(entry, core)
	}
	return checkedEntry
}

func (core *progressClearingCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	core.indicator.Clear()
	return core.Core.Write(entry, fields)
}

// walkRoot returns the path handed to filepath.WalkDir. A root that is a symbolic link to a
// directory gets a trailing separator so the walk descends into the link target.
func walkRoot(root string) string {
	linkInfo, linkError := os.Lstat(root)
	if linkError == nil && linkInfo.Mode()&fs.ModeSymlink != 0 {
		return filepath.Clean(root) + string(filepath.Separator)
	}
	return root
}

// readText reads the whole file at path, failing for content that is not valid UTF-8.
//
// #nosec G304
func readText(path string) (string, error) {
	fileBytes, readError := os.ReadFile(path)
	if readError != nil {
		return "", readError
	}
	if !utf8.Valid(fileBytes) {
		return "", ErrNotText
	}
	return string(fileBytes), nil
}
