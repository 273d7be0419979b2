package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/filewire/filewire/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validate the filewire configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate the default config
  filewired config validate

  # Validate a specific config file
  filewired config validate --config /etc/filewire/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	var warnings []string
	if cfg.Share.Backend == config.ShareBackendS3 && cfg.Share.S3.Region == "" {
		warnings = append(warnings, "share.s3.region not set - relying on the AWS SDK's default region resolution")
	}
	if cfg.Cache.Enabled && cfg.Cache.Path == "" {
		warnings = append(warnings, "cache.enabled is true but cache.path is empty")
	}

	fmt.Printf("Configuration file: %s\n", displayPath)
	fmt.Println("Validation: OK")

	if len(warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Printf("\nConfiguration summary:\n")
	fmt.Printf("  Listen address:  %s\n", cfg.Listen)
	fmt.Printf("  Share backend:   %s\n", cfg.Share.Backend)
	fmt.Printf("  Log level:       %s\n", cfg.Logging.Level)
	fmt.Printf("  Cache enabled:   %t\n", cfg.Cache.Enabled)
	fmt.Printf("  Audit enabled:   %t\n", cfg.Audit.Enabled)

	return nil
}
