package aggregate

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/temirov/fileagg/internal/traversal"
)

const headerFormat = "\n%[1]s File: %[2]s\n%[1]s Path: %[3]s\n"

// Accumulator is the append-only Aggregate Output of one run.
type Accumulator struct {
	builder strings.Builder
	files   int
}

// AppendFile appends the block for the file at path. The body is omitted when readError is not nil,
// but the header and the closing marker are always written.
func (accumulator *Accumulator) AppendFile(path string, content string, readError error) {
	extension, _ := traversal.Extension(path)
	style := StyleFor(extension)

	fmt.Fprintf(&accumulator.builder, headerFormat, style.Opening(), filepath.Base(path), path)
	if readError == nil {
		accumulator.builder.WriteString(content)
		accumulator.builder.WriteString("\n")
	}
	if style.HasClosing() {
		accumulator.builder.WriteString(style.Closing())
		accumulator.builder.WriteString("\n")
	}
	accumulator.files++
}

// Len returns the byte length of the untrimmed output.
func (accumulator *Accumulator) Len() int {
	return accumulator.builder.Len()
}

// Files returns the number of file blocks appended.
func (accumulator *Accumulator) Files() int {
	return accumulator.files
}

// Finalize returns the output trimmed of leading and trailing whitespace.
func (accumulator *Accumulator) Finalize() string {
	return strings.TrimSpace(accumulator.builder.String())
}
