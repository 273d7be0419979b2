// Package config implements the `filewired config` subcommand tree.
package config

import (
	"github.com/spf13/cobra"
)

// Cmd is the config subcommand.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long: `Manage filewire configuration files.

Subcommands:
  init      Interactive first-run configuration wizard
  validate  Validate a configuration file
  show      Display the effective configuration
  schema    Generate a JSON Schema for IDE/validation`,
}

func init() {
	Cmd.AddCommand(initCmd)
	Cmd.AddCommand(validateCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(schemaCmd)
}
