package utils

// EmptyString represents a reusable empty string constant.
const EmptyString = ""

// Messages used by the application entry point.
const (
	// LoggerInitializationFailedMessageFormat reports a logger construction failure.
	LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"
	// ApplicationExecutionFailedMessage prefixes fatal command errors.
	ApplicationExecutionFailedMessage = "fileagg failed"
)

// Configuration file locations.
const (
	// GlobalConfigDirectoryName is the directory under the user's home holding global configuration.
	GlobalConfigDirectoryName = ".fileagg"
	// ConfigFileName is the name of the global configuration file.
	ConfigFileName = "config.yaml"
	// LocalConfigFileName is the name of the per-project configuration file.
	LocalConfigFileName = ".fileagg.yaml"
)

// DefaultOutputFileName is the file written when no sink is selected explicitly.
const DefaultOutputFileName = "fileagg_output.txt"
