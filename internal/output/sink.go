// Package output delivers the final aggregated text to exactly one destination.
package output

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/temirov/fileagg/internal/services/clipboard"
	"github.com/temirov/fileagg/internal/utils"
)

// SinkKind enumerates the supported destinations.
type SinkKind int

const (
	// SinkFile writes the text to a file, creating or truncating it.
	SinkFile SinkKind = iota
	// SinkTerminal prints the text to standard output.
	SinkTerminal
	// SinkClipboard copies the text to the system clipboard.
	SinkClipboard
)

const (
	fileWrittenFormat     = "Output written to %s"
	clipboardCopiedNotice = "Selected file contents have been copied to the clipboard."
	createFileErrorFormat = "create output file %s: %w"
	writeFileErrorFormat  = "write output file %s: %w"
	clipboardErrorFormat  = "copy to clipboard: %w"
	terminalErrorFormat   = "print output: %w"
	outputFilePermissions = 0o644
)

// ErrNoCopier reports a clipboard sink without a clipboard implementation.
var ErrNoCopier = errors.New("clipboard sink has no copier")

// Sink is the destination chosen for one run. Path is only meaningful for SinkFile.
type Sink struct {
	Kind SinkKind
	Path string
}

// String describes the sink for diagnostics.
func (sink Sink) String() string {
	switch sink.Kind {
	case SinkTerminal:
		return "terminal"
	case SinkClipboard:
		return "clipboard"
	default:
		return "file " + sink.Path
	}
}

// ResolveSink picks the destination from the command options. The terminal wins over the
// clipboard, and the clipboard over the file, which is the default.
func ResolveSink(printToTerminal bool, copyToClipboard bool, outputPath string) Sink {
	switch {
	case printToTerminal:
		return Sink{Kind: SinkTerminal}
	case copyToClipboard:
		return Sink{Kind: SinkClipboard}
	default:
		if outputPath == utils.EmptyString {
			outputPath = utils.DefaultOutputFileName
		}
		return Sink{Kind: SinkFile, Path: outputPath}
	}
}

// DeliveryDependencies carries the collaborators a sink may need.
type DeliveryDependencies struct {
	Stdout io.Writer
	Copier clipboard.Copier
	Logger *zap.Logger
}

// Deliver hands text to sink. Every failure is fatal for the run and is returned wrapped.
func Deliver(sink Sink, text string, dependencies DeliveryDependencies) error {
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	switch sink.Kind {
	case SinkTerminal:
		stdout := dependencies.Stdout
		if stdout == nil {
			stdout = os.Stdout
		}
		if _, printError := fmt.Fprintln(stdout, text); printError != nil {
			return fmt.Errorf(terminalErrorFormat, printError)
		}
		return nil
	case SinkClipboard:
		if dependencies.Copier == nil {
			return ErrNoCopier
		}
		if copyError := dependencies.Copier.Copy(text); copyError != nil {
			return fmt.Errorf(clipboardErrorFormat, copyError)
		}
		logger.Info(clipboardCopiedNotice)
		return nil
	default:
		if writeError := writeFile(sink.Path, text); writeError != nil {
			return writeError
		}
		logger.Info(fmt.Sprintf(fileWrittenFormat, sink.Path))
		return nil
	}
}

// #nosec G304
func writeFile(path string, text string) (err error) {
	fileHandle, createError := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, outputFilePermissions)
	if createError != nil {
		return fmt.Errorf(createFileErrorFormat, path, createError)
	}
	defer func() {
		if closeError := fileHandle.Close(); closeError != nil && err == nil {
			err = fmt.Errorf(writeFileErrorFormat, path, closeError)
		}
	}()
	if _, writeError := io.WriteString(fileHandle, text); writeError != nil {
		return fmt.Errorf(writeFileErrorFormat, path, writeError)
	}
	return nil
}
