package utils

import (
	"path/filepath"
	"strings"
)

const fileTypeSeparator = ","

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if _, exists := encounteredPatterns[pattern]; !exists {
			encounteredPatterns[pattern] = struct{}{}
			result = append(result, pattern)
		}
	}
	return result
}

// SplitFileTypes parses a comma-separated extension list into discrete tokens.
// Surrounding whitespace and empty tokens are dropped; tokens are otherwise kept verbatim.
func SplitFileTypes(fileTypes string) []string {
	if strings.TrimSpace(fileTypes) == EmptyString {
		return nil
	}
	var tokens []string
	for _, token := range strings.Split(fileTypes, fileTypeSeparator) {
		trimmedToken := strings.TrimSpace(token)
		if trimmedToken == EmptyString {
			continue
		}
		tokens = append(tokens, trimmedToken)
	}
	return DeduplicatePatterns(tokens)
}

// RelativeSegments returns the path segments of fullPath relative to root.
// An empty slice is returned for root itself or when fullPath is outside root.
func RelativeSegments(fullPath, root string) []string {
	relativePath, relativeError := filepath.Rel(filepath.Clean(root), filepath.Clean(fullPath))
	if relativeError != nil || relativePath == "." || relativePath == ".." || strings.HasPrefix(relativePath, ".."+string(filepath.Separator)) {
		return nil
	}
	return strings.Split(filepath.ToSlash(relativePath), "/")
}
