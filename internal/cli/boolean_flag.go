package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	switchFlagType           = "bool"
	switchTrueLiteral        = "true"
	switchLiteralsListing    = "true, false, yes, no, on, off, 1, 0"
	invalidSwitchValueFormat = "invalid boolean value %q for --%s; accepted values: %s"
	argumentTerminator       = "--"
)

// parseSwitchLiteral maps the literals accepted after a switch flag to their value.
func parseSwitchLiteral(literal string) (value bool, valid bool) {
	switch strings.ToLower(strings.TrimSpace(literal)) {
	case "true", "yes", "on", "1":
		return true, true
	case "false", "no", "off", "0":
		return false, true
	}
	return false, false
}

// switchValue is the pflag value behind the on/off flags such as --stdout and --no-ignore.
type switchValue struct {
	target *bool
	name   string
}

func (value *switchValue) Set(input string) error {
	if strings.TrimSpace(input) == "" {
		*value.target = true
		return nil
	}
	parsed, valid := parseSwitchLiteral(input)
	if !valid {
		return fmt.Errorf(invalidSwitchValueFormat, input, value.name, switchLiteralsListing)
	}
	*value.target = parsed
	return nil
}

func (value *switchValue) String() string {
	if value.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*value.target)
}

func (value *switchValue) Type() string {
	return switchFlagType
}

// registerBooleanFlag adds a switch flag. A bare flag sets it; a following literal such as "no" sets it explicitly.
// An empty shorthand registers the long form only.
func registerBooleanFlag(flagSet *pflag.FlagSet, target *bool, name string, shorthand string, defaultValue bool, usage string) {
	*target = defaultValue
	flag := flagSet.VarPF(&switchValue{target: target, name: name}, name, shorthand, usage)
	flag.DefValue = strconv.FormatBool(defaultValue)
	flag.NoOptDefVal = switchTrueLiteral
}

// normalizeBooleanFlagArguments rewrites "--stdout no" and "-s no" as "--stdout=no" so the literal is not taken
// for the directory argument. Anything that is not a switch literal stays positional.
func normalizeBooleanFlagArguments(command *cobra.Command, arguments []string) []string {
	if command == nil {
		return arguments
	}
	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		argument := arguments[index]
		if argument == argumentTerminator {
			return append(normalized, arguments[index:]...)
		}
		flag := lookupSwitchFlag(command, argument)
		if flag != nil && index+1 < len(arguments) {
			literal := arguments[index+1]
			if _, valid := parseSwitchLiteral(literal); valid {
				normalized = append(normalized, fmt.Sprintf("--%s=%s", flag.Name, literal))
				index++
				continue
			}
		}
		normalized = append(normalized, argument)
	}
	return normalized
}

// lookupSwitchFlag finds the switch flag named by argument on command or any of its subcommands.
func lookupSwitchFlag(command *cobra.Command, argument string) *pflag.Flag {
	if strings.Contains(argument, "=") || !strings.HasPrefix(argument, "-") {
		return nil
	}
	var flag *pflag.Flag
	switch {
	case strings.HasPrefix(argument, argumentTerminator):
		flag = command.Flags().Lookup(strings.TrimPrefix(argument, argumentTerminator))
	case len(argument) == 2:
		flag = command.Flags().ShorthandLookup(argument[1:])
	}
	if flag != nil && flag.Value.Type() == switchFlagType {
		return flag
	}
	for _, subcommand := range command.Commands() {
		if found := lookupSwitchFlag(subcommand, argument); found != nil {
			return found
		}
	}
	return nil
}
