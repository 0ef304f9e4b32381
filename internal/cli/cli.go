// Package cli provides the command line interface.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/fileagg/internal/aggregate"
	"github.com/temirov/fileagg/internal/config"
	"github.com/temirov/fileagg/internal/output"
	"github.com/temirov/fileagg/internal/progress"
	"github.com/temirov/fileagg/internal/services/clipboard"
	"github.com/temirov/fileagg/internal/tokenizer"
	"github.com/temirov/fileagg/internal/traversal"
	"github.com/temirov/fileagg/internal/utils"
)

const (
	outputFlagName         = "output"
	outputFlagShorthand    = "o"
	stdoutFlagName         = "stdout"
	stdoutFlagShorthand    = "s"
	clipboardFlagName      = "clipboard"
	clipboardFlagShorthand = "c"
	includeHiddenFlagName  = "include-hidden"
	includeHiddenShorthand = "i"
	noIgnoreFlagName       = "no-ignore"
	noIgnoreFlagShorthand  = "n"
	fileTypesFlagName      = "file-types"
	fileTypesFlagShorthand = "f"
	tokensFlagName         = "tokens"
	modelFlagName          = "model"
	configFlagName         = "config"
	globalFlagName         = "global"
	forceFlagName          = "force"

	defaultDirectory     = "."
	rootUse              = "fileagg [directory]"
	rootShortDescription = "aggregate source files into one annotated text"
	rootLongDescription  = `fileagg walks a directory and concatenates every selected file into one text.
Each file is preceded by a comment header with its name and path, written in the comment syntax of its extension.
Hidden entries and paths matched by .gitignore or .ignore are skipped unless --include-hidden or --no-ignore is given.
The result goes to a file (default fileagg_output.txt), to the terminal with --stdout, or to the clipboard with --clipboard.`
	rootUsageExample = `  # Aggregate the current directory into fileagg_output.txt
  fileagg

  # Print Go and Markdown files of ./cmd to the terminal
  fileagg ./cmd --stdout -f go,md

  # Copy everything, including dotfiles, to the clipboard
  fileagg -c -i`
	versionTemplate = "fileagg version: {{.Version}}\n"

	initUse              = "init"
	initShortDescription = "write a default configuration file"
	initLongDescription  = `Write a default configuration file.
The file is written to ./.fileagg.yaml, or to ~/.fileagg/config.yaml with --global.`

	outputFlagDescription        = "write the result to this file"
	stdoutFlagDescription        = "print the result to the terminal"
	clipboardFlagDescription     = "copy the result to the clipboard"
	includeHiddenFlagDescription = "include hidden files and directories"
	noIgnoreFlagDescription      = "do not apply .gitignore, .ignore and git exclude rules"
	fileTypesFlagDescription     = "comma separated list of extensions to include"
	tokensFlagDescription        = "estimate the token count of the result"
	modelFlagDescription         = "tokenizer model to use for token counting"
	configFlagDescription        = "path to a configuration file used instead of ./.fileagg.yaml"
	globalFlagDescription        = "write the global configuration file"
	forceFlagDescription         = "overwrite an existing configuration file"

	progressMessage              = "Processing files..."
	configurationWrittenFormat   = "Configuration written to %s"
	tokenCountFormat             = "Estimated %d tokens (%s)"
	tokenizerErrorFormat         = "token counting unavailable: %w"
	tokenCountErrorFormat        = "failed to count tokens: %w"
	workingDirectoryErrorFormat  = "unable to determine working directory: %w"
	loadConfigurationErrorFormat = "load configuration: %w"
)

// CounterFactory builds the token counter used when token counting is enabled.
type CounterFactory func(tokenizer.Config) (tokenizer.Counter, string, error)

// Dependencies carries the process collaborators of the command tree.
// Zero values are replaced with the real process resources.
type Dependencies struct {
	Logger           *zap.Logger
	Stdout           io.Writer
	Stderr           io.Writer
	Copier           clipboard.Copier
	NewCounter       CounterFactory
	WorkingDirectory string
}

func (dependencies Dependencies) withDefaults() Dependencies {
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	if dependencies.Stdout == nil {
		dependencies.Stdout = os.Stdout
	}
	if dependencies.Stderr == nil {
		dependencies.Stderr = os.Stderr
	}
	if dependencies.Copier == nil {
		dependencies.Copier = clipboard.NewService()
	}
	if dependencies.NewCounter == nil {
		dependencies.NewCounter = tokenizer.NewCounter
	}
	return dependencies
}

// Execute runs the fileagg application with the process arguments.
func Execute(logger *zap.Logger) error {
	rootCommand := NewRootCommand(Dependencies{Logger: logger})
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.Execute()
}

// rootOptions stores the values bound to the root command flags.
type rootOptions struct {
	outputPath        string
	printToTerminal   bool
	copyToClipboard   bool
	includeHidden     bool
	disableIgnore     bool
	fileTypes         string
	tokensEnabled     bool
	tokenModel        string
	configurationPath string
}

// runSettings is the effective configuration of one run after flags, configuration files and defaults are combined.
type runSettings struct {
	root          string
	sink          output.Sink
	traversal     traversal.Options
	tokensEnabled bool
	tokenModel    string
}

// NewRootCommand builds the root Cobra command together with its subcommands.
func NewRootCommand(dependencies Dependencies) *cobra.Command {
	dependencies = dependencies.withDefaults()
	var options rootOptions

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Example:       rootUsageExample,
		Version:       utils.GetApplicationVersion(),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			directory := defaultDirectory
			if len(arguments) == 1 {
				directory = arguments[0]
			}
			return runAggregation(command.Flags(), directory, options, dependencies)
		},
	}
	rootCommand.SetVersionTemplate(versionTemplate)
	rootCommand.SetOut(dependencies.Stdout)
	rootCommand.SetErr(dependencies.Stderr)

	flagSet := rootCommand.Flags()
	flagSet.StringVarP(&options.outputPath, outputFlagName, outputFlagShorthand, utils.DefaultOutputFileName, outputFlagDescription)
	registerBooleanFlag(flagSet, &options.printToTerminal, stdoutFlagName, stdoutFlagShorthand, false, stdoutFlagDescription)
	registerBooleanFlag(flagSet, &options.copyToClipboard, clipboardFlagName, clipboardFlagShorthand, false, clipboardFlagDescription)
	registerBooleanFlag(flagSet, &options.includeHidden, includeHiddenFlagName, includeHiddenShorthand, false, includeHiddenFlagDescription)
	registerBooleanFlag(flagSet, &options.disableIgnore, noIgnoreFlagName, noIgnoreFlagShorthand, false, noIgnoreFlagDescription)
	flagSet.StringVarP(&options.fileTypes, fileTypesFlagName, fileTypesFlagShorthand, utils.EmptyString, fileTypesFlagDescription)
	registerBooleanFlag(flagSet, &options.tokensEnabled, tokensFlagName, utils.EmptyString, false, tokensFlagDescription)
	flagSet.StringVar(&options.tokenModel, modelFlagName, tokenizer.DefaultModel, modelFlagDescription)
	flagSet.StringVar(&options.configurationPath, configFlagName, utils.EmptyString, configFlagDescription)

	rootCommand.AddCommand(createInitCommand(dependencies), createServeCommand(dependencies))
	return rootCommand
}

// createInitCommand returns the init subcommand.
func createInitCommand(dependencies Dependencies) *cobra.Command {
	var globalTarget bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if globalTarget {
				target = config.InitTargetGlobal
			}
			path, initError := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: dependencies.WorkingDirectory,
			})
			if initError != nil {
				return initError
			}
			dependencies.Logger.Info(fmt.Sprintf(configurationWrittenFormat, path))
			return nil
		},
	}
	registerBooleanFlag(initCommand.Flags(), &globalTarget, globalFlagName, utils.EmptyString, false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, utils.EmptyString, false, forceFlagDescription)
	return initCommand
}

// runAggregation performs one aggregation run and delivers the result to the selected sink.
func runAggregation(flagSet *pflag.FlagSet, directory string, options rootOptions, dependencies Dependencies) error {
	workingDirectory, workingDirectoryError := resolveWorkingDirectory(dependencies)
	if workingDirectoryError != nil {
		return workingDirectoryError
	}

	configuration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: options.configurationPath,
	})
	if configurationError != nil {
		return fmt.Errorf(loadConfigurationErrorFormat, configurationError)
	}

	settings := resolveRunSettings(flagSet, options, configuration)
	settings.root = resolvePath(workingDirectory, directory)
	if settings.sink.Kind == output.SinkFile {
		settings.sink.Path = resolvePath(workingDirectory, settings.sink.Path)
	}

	logger := dependencies.Logger
	result, aggregateError := aggregate.Aggregate(settings.root, settings.traversal, aggregate.Dependencies{
		Logger:   logger,
		Progress: progress.NewSpinner(dependencies.Stderr, progressMessage),
	})
	if aggregateError != nil {
		return aggregateError
	}

	if settings.tokensEnabled {
		reportTokenCount(result.Text, settings.tokenModel, dependencies)
	}

	return output.Deliver(settings.sink, result.Text, output.DeliveryDependencies{
		Stdout: dependencies.Stdout,
		Copier: dependencies.Copier,
		Logger: logger,
	})
}

// resolveRunSettings combines flags explicitly set on the command line, configuration values and defaults, in that order.
func resolveRunSettings(flagSet *pflag.FlagSet, options rootOptions, configuration config.ApplicationConfiguration) runSettings {
	outputPath := options.outputPath
	if !flagSet.Changed(outputFlagName) && configuration.Output != utils.EmptyString {
		outputPath = configuration.Output
	}
	printToTerminal := resolveBoolean(flagSet, stdoutFlagName, options.printToTerminal, configuration.Stdout)
	copyToClipboard := resolveBoolean(flagSet, clipboardFlagName, options.copyToClipboard, configuration.Clipboard)
	includeHidden := resolveBoolean(flagSet, includeHiddenFlagName, options.includeHidden, configuration.IncludeHidden)
	disableIgnore := resolveBoolean(flagSet, noIgnoreFlagName, options.disableIgnore, configuration.NoIgnore)

	extensions := utils.SplitFileTypes(options.fileTypes)
	if !flagSet.Changed(fileTypesFlagName) && len(configuration.FileTypes) > 0 {
		extensions = configuration.FileTypes
	}

	tokenModel := options.tokenModel
	if !flagSet.Changed(modelFlagName) && configuration.Tokens.Model != utils.EmptyString {
		tokenModel = configuration.Tokens.Model
	}

	return runSettings{
		sink: output.ResolveSink(printToTerminal, copyToClipboard, outputPath),
		traversal: traversal.Options{
			IncludeHidden:      includeHidden,
			EnforceIgnoreRules: !disableIgnore,
			Extensions:         extensions,
		},
		tokensEnabled: resolveBoolean(flagSet, tokensFlagName, options.tokensEnabled, configuration.Tokens.Enabled),
		tokenModel:    tokenModel,
	}
}

func resolveBoolean(flagSet *pflag.FlagSet, flagName string, flagValue bool, configured *bool) bool {
	if flagSet.Changed(flagName) {
		return flagValue
	}
	return config.BoolOrDefault(configured, flagValue)
}

func resolveWorkingDirectory(dependencies Dependencies) (string, error) {
	if dependencies.WorkingDirectory != utils.EmptyString {
		return dependencies.WorkingDirectory, nil
	}
	currentDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return utils.EmptyString, fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
	}
	return currentDirectory, nil
}

func resolvePath(workingDirectory string, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(workingDirectory, path)
}

// reportTokenCount logs the token estimate of text. Tokenizer failures are warnings only.
func reportTokenCount(text string, model string, dependencies Dependencies) {
	countResult, resolvedModel, countError := countTokens(text, model, dependencies.NewCounter)
	if countError != nil {
		dependencies.Logger.Warn(countError.Error())
		return
	}
	if countResult.Counted {
		dependencies.Logger.Info(fmt.Sprintf(tokenCountFormat, countResult.Tokens, resolvedModel))
	}
}

func countTokens(text string, model string, newCounter CounterFactory) (tokenizer.CountResult, string, error) {
	counter, resolvedModel, counterError := newCounter(tokenizer.Config{Model: model})
	if counterError != nil {
		return tokenizer.CountResult{}, "", fmt.Errorf(tokenizerErrorFormat, counterError)
	}
	countResult, countError := tokenizer.CountText(counter, text)
	if countError != nil {
		return tokenizer.CountResult{}, "", fmt.Errorf(tokenCountErrorFormat, countError)
	}
	return countResult, resolvedModel, nil
}
