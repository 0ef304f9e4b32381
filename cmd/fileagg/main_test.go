package main_test

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// #nosec G204
func buildBinary(testSetup *testing.T) string {
	testSetup.Helper()
	binaryName := "fileagg_integration_test_binary"
	if runtime.GOOS == "windows" {
		binaryName += ".exe"
	}
	binaryPath := filepath.Join(testSetup.TempDir(), binaryName)

	currentDirectory, directoryError := os.Getwd()
	if directoryError != nil {
		testSetup.Fatalf("Failed to get current working directory: %v", directoryError)
	}

	buildCommand := exec.Command("go", "build", "-o", binaryPath, ".")
	buildCommand.Dir = currentDirectory
	outputData, buildErr := buildCommand.CombinedOutput()
	if buildErr != nil {
		testSetup.Fatalf("Failed to build binary in %s: %v\nBuild Output:\n%s", currentDirectory, buildErr, string(outputData))
	}
	return binaryPath
}

type commandOutcome struct {
	stdout   string
	stderr   string
	exitCode int
}

// #nosec G204
func runCommand(testSetup *testing.T, binaryPath string, arguments []string, workingDirectory string) commandOutcome {
	testSetup.Helper()
	command := exec.Command(binaryPath, arguments...)
	command.Dir = workingDirectory
	homeDirectory := testSetup.TempDir()
	command.Env = append(os.Environ(), "HOME="+homeDirectory, "USERPROFILE="+homeDirectory, "PWD="+workingDirectory)

	var standardOutputBuffer, standardErrorBuffer bytes.Buffer
	command.Stdout = &standardOutputBuffer
	command.Stderr = &standardErrorBuffer

	outcome := commandOutcome{}
	runError := command.Run()
	outcome.stdout = standardOutputBuffer.String()
	outcome.stderr = standardErrorBuffer.String()
	if runError != nil {
		var exitError *exec.ExitError
		if !errors.As(runError, &exitError) {
			testSetup.Fatalf("Command %s %s did not run: %v", filepath.Base(binaryPath), strings.Join(arguments, " "), runError)
		}
		outcome.exitCode = exitError.ExitCode()
	}
	return outcome
}

func writeFixture(testSetup *testing.T, filePath string, content string) {
	testSetup.Helper()
	if makeDirectoryError := os.MkdirAll(filepath.Dir(filePath), 0o755); makeDirectoryError != nil {
		testSetup.Fatalf("Failed to create directory for %s: %v", filePath, makeDirectoryError)
	}
	if writeError := os.WriteFile(filePath, []byte(content), 0o644); writeError != nil {
		testSetup.Fatalf("Failed to write %s: %v", filePath, writeError)
	}
}

func TestBinaryAggregatesProject(testSetup *testing.T) {
	if testing.Short() {
		testSetup.Skip("builds the binary")
	}
	binaryPath := buildBinary(testSetup)
	workingDirectory := testSetup.TempDir()
	projectDirectory := filepath.Join(workingDirectory, "project")
	writeFixture(testSetup, filepath.Join(projectDirectory, "a.py"), "print(1)")
	writeFixture(testSetup, filepath.Join(projectDirectory, "b.js"), "let x=1;")
	writeFixture(testSetup, filepath.Join(projectDirectory, "node_modules", "c.js"), "ignored")
	writeFixture(testSetup, filepath.Join(projectDirectory, "page.html"), "<p>hi</p>")
	writeFixture(testSetup, filepath.Join(projectDirectory, ".gitignore"), "b.js\n")
	if makeDirectoryError := os.MkdirAll(filepath.Join(projectDirectory, ".git"), 0o755); makeDirectoryError != nil {
		testSetup.Fatalf("Failed to create repository: %v", makeDirectoryError)
	}

	expected := fmt.Sprintf("# File: a.py\n# Path: %s\nprint(1)\n\n<!-- File: page.html\n<!-- Path: %s\n<p>hi</p>\n-->",
		filepath.Join(projectDirectory, "a.py"), filepath.Join(projectDirectory, "page.html"))

	testCases := []struct {
		name      string
		arguments []string
	}{
		{name: "stdout_long_flag", arguments: []string{"project", "--stdout"}},
		{name: "stdout_shorthand_before_directory", arguments: []string{"-s", "project"}},
	}
	for _, testCase := range testCases {
		testSetup.Run(testCase.name, func(subTest *testing.T) {
			outcome := runCommand(subTest, binaryPath, testCase.arguments, workingDirectory)
			if outcome.exitCode != 0 {
				subTest.Fatalf("unexpected exit code %d, stderr:\n%s", outcome.exitCode, outcome.stderr)
			}
			if outcome.stdout != expected+"\n" {
				subTest.Fatalf("unexpected output:\n%q\nwant\n%q", outcome.stdout, expected+"\n")
			}
		})
	}

	outcome := runCommand(testSetup, binaryPath, []string{"project", "-o", "snapshot.txt"}, workingDirectory)
	if outcome.exitCode != 0 {
		testSetup.Fatalf("unexpected exit code %d, stderr:\n%s", outcome.exitCode, outcome.stderr)
	}
	content, readError := os.ReadFile(filepath.Join(workingDirectory, "snapshot.txt"))
	if readError != nil {
		testSetup.Fatalf("expected output file: %v", readError)
	}
	if !strings.Contains(string(content), "print(1)") {
		testSetup.Fatalf("unexpected file content:\n%s", string(content))
	}
	if !strings.Contains(outcome.stderr, "Output written to") {
		testSetup.Fatalf("expected confirmation on stderr, got:\n%s", outcome.stderr)
	}
}

func TestBinaryFailsForInvalidRoot(testSetup *testing.T) {
	if testing.Short() {
		testSetup.Skip("builds the binary")
	}
	binaryPath := buildBinary(testSetup)
	workingDirectory := testSetup.TempDir()
	outcome := runCommand(testSetup, binaryPath, []string{"missing", "--stdout"}, workingDirectory)
	if outcome.exitCode != 1 {
		testSetup.Fatalf("expected exit code 1, got %d", outcome.exitCode)
	}
	if outcome.stdout != "" {
		testSetup.Fatalf("expected no output, got:\n%s", outcome.stdout)
	}
	if !strings.Contains(outcome.stderr, "fileagg failed") {
		testSetup.Fatalf("expected failure message on stderr, got:\n%s", outcome.stderr)
	}
}
