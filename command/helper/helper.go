package helper

import (
	"github.com/hashicorp/go-hclog"
	"github.com/ryanuber/columnize"
	"github.com/spf13/cobra"

	"github.com/0xPolygon/evm-circuit/command"
	"github.com/0xPolygon/evm-circuit/config"
)

// FormatList formats a list, using a specific blank value replacement
func FormatList(in []string) string {
	columnConf := columnize.DefaultConfig()
	columnConf.Empty = "<none>"

	return columnize.Format(in, columnConf)
}

// FormatKV formats key value pairs:
//
// Key = Value
//
// Key = <none>
func FormatKV(in []string) string {
	columnConf := columnize.DefaultConfig()
	columnConf.Empty = "<none>"
	columnConf.Glue = " = "

	return columnize.Format(in, columnConf)
}

// RegisterJSONOutputFlag registers the --json output setting for all child commands
func RegisterJSONOutputFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().Bool(
		command.JSONOutputFlag,
		false,
		"get all outputs in json format (default false)",
	)
}

// RegisterConfigFlags registers the flags shared by the commands that build
// a circuit
func RegisterConfigFlags(cmd *cobra.Command, configPath, logLevel *string) {
	cmd.Flags().StringVar(
		configPath,
		command.ConfigFlag,
		"",
		"the path to the circuit config. Supports .json, .yaml and .hcl",
	)

	cmd.Flags().StringVar(
		logLevel,
		command.LogLevelFlag,
		"",
		"the log level for console output, overrides the config file",
	)
}

// LoadConfig reads the config file when one is given and applies the log
// level override
func LoadConfig(configPath, logLevel string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if configPath != "" {
		var err error
		if cfg, err = config.ReadConfigFile(configPath); err != nil {
			return nil, err
		}
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	return cfg, cfg.Validate()
}

// NewLogger creates the root logger of a command
func NewLogger(name, level string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  name,
		Level: hclog.LevelFromString(level),
	})
}
