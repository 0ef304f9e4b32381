package traversal

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	hiddenPrefix     = "."
	extensionPrefix  = "."
	currentDirectory = "."
	parentDirectory  = ".."
)

// IsHidden reports whether a base name is hidden by platform convention.
func IsHidden(name string) bool {
	if name == currentDirectory || name == parentDirectory {
		return false
	}
	return strings.HasPrefix(name, hiddenPrefix)
}

// Extension returns the extension of the base name of path without its dot.
// Names without a dot, dot-files such as ".bashrc" and names ending in a dot have no extension.
func Extension(path string) (string, bool) {
	name := filepath.Base(path)
	separatorIndex := strings.LastIndex(name, extensionPrefix)
	if separatorIndex <= 0 || separatorIndex == len(name)-1 {
		return "", false
	}
	return name[separatorIndex+1:], true
}

// isRegularFile reports whether entry is a regular file, following symbolic links.
func isRegularFile(path string, entry fs.DirEntry) bool {
	if entry == nil {
		return false
	}
	if entry.Type()&fs.ModeSymlink != 0 {
		targetInfo, statError := os.Stat(path)
		return statError == nil && targetInfo.Mode().IsRegular()
	}
	return entry.Type().IsRegular()
}
