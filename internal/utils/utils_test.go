package utils_test

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/temirov/fileagg/internal/utils"
)

// TestDeduplicatePatterns verifies that DeduplicatePatterns removes duplicate patterns.
func TestDeduplicatePatterns(testingInstance *testing.T) {
	testCases := []struct {
		testName string
		patterns []string
		expected []string
	}{
		{
			testName: "removes duplicates",
			patterns: []string{"a", "b", "a"},
			expected: []string{"a", "b"},
		},
		{
			testName: "keeps unique",
			patterns: []string{"a", "b"},
			expected: []string{"a", "b"},
		},
	}
	for index, testCase := range testCases {
		actual := utils.DeduplicatePatterns(testCase.patterns)
		if !reflect.DeepEqual(actual, testCase.expected) {
			testingInstance.Errorf("case %d (%s): expected %v, got %v", index, testCase.testName, testCase.expected, actual)
		}
	}
}

// TestSplitFileTypes verifies comma-separated extension parsing.
func TestSplitFileTypes(testingInstance *testing.T) {
	testCases := []struct {
		testName string
		input    string
		expected []string
	}{
		{testName: "empty", input: "", expected: nil},
		{testName: "whitespace only", input: "  ", expected: nil},
		{testName: "single", input: "rs", expected: []string{"rs"}},
		{testName: "several", input: "rs,js,py", expected: []string{"rs", "js", "py"}},
		{testName: "drops empty tokens", input: "rs,,js,", expected: []string{"rs", "js"}},
		{testName: "keeps case and dots", input: "Go,.md", expected: []string{"Go", ".md"}},
		{testName: "removes duplicates", input: "js,js", expected: []string{"js"}},
	}
	for _, testCase := range testCases {
		testingInstance.Run(testCase.testName, func(testingInstance *testing.T) {
			actual := utils.SplitFileTypes(testCase.input)
			if !reflect.DeepEqual(actual, testCase.expected) {
				testingInstance.Fatalf("expected %v, got %v", testCase.expected, actual)
			}
		})
	}
}

// TestRelativeSegments verifies path segmentation relative to a root.
func TestRelativeSegments(testingInstance *testing.T) {
	root := filepath.Join("project", "root")
	testCases := []struct {
		testName string
		fullPath string
		expected []string
	}{
		{testName: "root itself", fullPath: root, expected: nil},
		{testName: "direct child", fullPath: filepath.Join(root, "a.go"), expected: []string{"a.go"}},
		{testName: "nested child", fullPath: filepath.Join(root, "src", "lib", "b.go"), expected: []string{"src", "lib", "b.go"}},
		{testName: "outside root", fullPath: filepath.Join("project", "other.go"), expected: nil},
	}
	for _, testCase := range testCases {
		testingInstance.Run(testCase.testName, func(testingInstance *testing.T) {
			actual := utils.RelativeSegments(testCase.fullPath, root)
			if !reflect.DeepEqual(actual, testCase.expected) {
				testingInstance.Fatalf("expected %v, got %v", testCase.expected, actual)
			}
		})
	}
}

// TestGetApplicationVersionPrefersLinkedVersion verifies the ldflags version wins.
func TestGetApplicationVersionPrefersLinkedVersion(testingInstance *testing.T) {
	original := utils.Version
	testingInstance.Cleanup(func() { utils.Version = original })
	utils.Version = "v1.2.3"
	if version := utils.GetApplicationVersion(); version != "v1.2.3" {
		testingInstance.Fatalf("expected v1.2.3, got %s", version)
	}
}
