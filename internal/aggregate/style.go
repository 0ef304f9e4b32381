package aggregate

// CommentStyle is the marker pair delimiting one aggregated file.
type CommentStyle int

const (
	// StyleSlash uses line comments starting with "//".
	StyleSlash CommentStyle = iota
	// StyleHash uses line comments starting with "#".
	StyleHash
	// StyleHTML wraps the block in "<!--" and "-->".
	StyleHTML
	// StyleCSS wraps the block in "/*" and "*/".
	StyleCSS
)

type commentMarkers struct {
	opening string
	closing string
}

var styleMarkers = map[CommentStyle]commentMarkers{
	StyleSlash: {opening: "//"},
	StyleHash:  {opening: "#"},
	StyleHTML:  {opening: "<!--", closing: "-->"},
	StyleCSS:   {opening: "/*", closing: "*/"},
}

// extensionStyles maps extensions, matched case-sensitively, to their style.
// Extensions missing from the table use StyleSlash.
var extensionStyles = map[string]CommentStyle{
	"js":   StyleSlash,
	"ts":   StyleSlash,
	"java": StyleSlash,
	"rs":   StyleSlash,
	"py":   StyleHash,
	"rb":   StyleHash,
	"sh":   StyleHash,
	"yml":  StyleHash,
	"yaml": StyleHash,
	"html": StyleHTML,
	"css":  StyleCSS,
}

// StyleFor returns the comment style for an extension given without its dot.
func StyleFor(extension string) CommentStyle {
	if style, known := extensionStyles[extension]; known {
		return style
	}
	return StyleSlash
}

// Opening returns the marker prefixing header lines.
func (style CommentStyle) Opening() string {
	return style.markers().opening
}

// Closing returns the footer marker, or an empty string for line-comment styles.
func (style CommentStyle) Closing() string {
	return style.markers().closing
}

// HasClosing reports whether blocks of this style end with a footer line.
func (style CommentStyle) HasClosing() bool {
	return style.Closing() != ""
}

func (style CommentStyle) markers() commentMarkers {
	if markers, known := styleMarkers[style]; known {
		return markers
	}
	return styleMarkers[StyleSlash]
}
