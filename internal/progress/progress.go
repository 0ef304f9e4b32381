// Package progress reports advisory run progress on an interactive terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const (
	clearLineSequence    = "\r\033[K"
	defaultRedrawSpacing = 80 * time.Millisecond
	finishedFrame        = "✔"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Indicator receives one Tick per visited entry and a single Finish at the end of a run.
// Clear erases the status line so other output sharing the stream starts on a clean line.
type Indicator interface {
	Tick()
	Clear()
	Finish(message string)
}

type discardIndicator struct{}

func (discardIndicator) Tick() {}

func (discardIndicator) Clear() {}

func (discardIndicator) Finish(string) {}

// Discard is an Indicator that reports nothing.
var Discard Indicator = discardIndicator{}

// Spinner redraws a single status line on every tick, throttled to the redraw spacing.
type Spinner struct {
	writer        io.Writer
	message       string
	paint         *color.Color
	now           func() time.Time
	redrawSpacing time.Duration
	lastDrawn     time.Time
	frameIndex    int
	ticks         int
	lineDrawn     bool
}

// NewSpinner returns a Spinner writing to writer when it is a terminal and Discard otherwise.
func NewSpinner(writer io.Writer, message string) Indicator {
	if !isTerminal(writer) {
		return Discard
	}
	return newSpinner(writer, message, time.Now)
}

func newSpinner(writer io.Writer, message string, now func() time.Time) *Spinner {
	return &Spinner{
		writer:        writer,
		message:       message,
		paint:         color.New(color.FgGreen),
		now:           now,
		redrawSpacing: defaultRedrawSpacing,
	}
}

// Tick advances the spinner by one visited entry.
func (spinner *Spinner) Tick() {
	spinner.ticks++
	currentTime := spinner.now()
	if spinner.lineDrawn && currentTime.Sub(spinner.lastDrawn) < spinner.redrawSpacing {
		return
	}
	spinner.lastDrawn = currentTime
	frame := spinnerFrames[spinner.frameIndex%len(spinnerFrames)]
	spinner.frameIndex++
	fmt.Fprintf(spinner.writer, "%s%s %s", clearLineSequence, spinner.paint.Sprint(frame), spinner.message)
	spinner.lineDrawn = true
}

// Clear erases the status line. The next tick redraws it regardless of the redraw spacing.
func (spinner *Spinner) Clear() {
	if !spinner.lineDrawn {
		return
	}
	fmt.Fprint(spinner.writer, clearLineSequence)
	spinner.lineDrawn = false
}

// Finish replaces the status line with message.
func (spinner *Spinner) Finish(message string) {
	fmt.Fprintf(spinner.writer, "%s%s %s\n", clearLineSequence, spinner.paint.Sprint(finishedFrame), message)
	spinner.lineDrawn = false
}

// Ticks returns the number of entries reported so far.
func (spinner *Spinner) Ticks() int {
	return spinner.ticks
}

func isTerminal(writer io.Writer) bool {
	file, isFile := writer.(*os.File)
	if !isFile || file == nil {
		return false
	}
	descriptor := file.Fd()
	return isatty.IsTerminal(descriptor) || isatty.IsCygwinTerminal(descriptor)
}
