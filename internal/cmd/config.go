package cmd

import (
	"fmt"
	"strconv"

	"github.com/openagents/harness/internal/config"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

func init() {
	configCmd.AddCommand(configGetCmd, configSetCmd, configUnsetCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and patch the project config file directly",
	Long: `Reads and writes individual fields of .openagents/config.json without
round-tripping the whole Config struct, so a single value can be patched
without disturbing the rest of the file's formatting or unset fields.`,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print whether a dotted-path field is set, and its value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := ResolveCwd(cmd)
		if err != nil {
			return err
		}
		store := config.NewFileStore(config.ProjectConfigPathIn(cwd))
		if !config.HasField(store, args[0]) {
			return fmt.Errorf("config: field %q is not set", args[0])
		}
		data, err := store.Read()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), gjson.GetBytes(data, args[0]).Raw)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a dotted-path field in the project config file",
	Long: `Sets a single field by dotted path, e.g.:

  openagents config set hill_climber.auto_routing_every_n 5
  openagents config set options.debug true

Values are parsed as JSON when possible (numbers, booleans), otherwise
stored as a string.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := ResolveCwd(cmd)
		if err != nil {
			return err
		}
		store := config.NewFileStore(config.ProjectConfigPathIn(cwd))
		return config.SetField(store, args[0], parseScalar(args[1]))
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a dotted-path field from the project config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := ResolveCwd(cmd)
		if err != nil {
			return err
		}
		store := config.NewFileStore(config.ProjectConfigPathIn(cwd))
		return config.RemoveField(store, args[0])
	},
}

// parseScalar interprets a command-line value as a bool or number where
// possible, falling back to the literal string.
func parseScalar(s string) any {
	if s == "true" || s == "false" {
		return s == "true"
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
