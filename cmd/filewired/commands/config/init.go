package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/filewire/filewire/internal/cli/prompt"
	"github.com/filewire/filewire/pkg/config"
)

var (
	initForce          bool
	initNonInteractive bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactive first-run configuration wizard",
	Long: `Walk through the minimum settings needed to serve a directory
and write a starter filewire configuration file.

By default the file is created at $XDG_CONFIG_HOME/filewire/config.yaml.
Use --config to specify a custom path, or --non-interactive to write the
defaults without prompting.

Examples:
  # Interactive wizard
  filewired config init

  # Non-interactive, all defaults
  filewired config init --non-interactive

  # Force overwrite an existing config
  filewired config init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite an existing config file")
	initCmd.Flags().BoolVar(&initNonInteractive, "non-interactive", false, "Skip prompts and write defaults")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")

	cfg := config.DefaultConfig()
	if !initNonInteractive {
		if err := promptForConfig(cfg); err != nil {
			if prompt.IsAborted(err) {
				fmt.Println("Aborted.")
				return nil
			}
			return err
		}
	}

	targetPath := configFile
	if targetPath == "" {
		targetPath = config.GetDefaultConfigPath()
	}

	path, err := config.InitToPath(targetPath, initForce, cfg)
	if err != nil {
		return fmt.Errorf("initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", path)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Review the generated file and adjust as needed")
	fmt.Println("  2. Start the server with: filewired start")
	fmt.Printf("  3. Or point at this file explicitly: filewired start --config %s\n", path)

	return nil
}

func promptForConfig(cfg *config.Config) error {
	listen, err := prompt.InputAddr("Listen address", cfg.Listen)
	if err != nil {
		return err
	}
	cfg.Listen = listen

	backend, err := prompt.SelectString("Share backend", []string{"filesystem", "s3"})
	if err != nil {
		return err
	}
	cfg.Share.Backend = config.ShareBackend(backend)

	switch cfg.Share.Backend {
	case config.ShareBackendFilesystem:
		path, err := prompt.InputRequired("Directory to share")
		if err != nil {
			return err
		}
		cfg.Share.Path = path

	case config.ShareBackendS3:
		bucket, err := prompt.InputRequired("S3 bucket")
		if err != nil {
			return err
		}
		cfg.Share.S3.Bucket = bucket

		prefix, err := prompt.Input("S3 key prefix", "")
		if err != nil {
			return err
		}
		cfg.Share.S3.Prefix = prefix

		region, err := prompt.Input("AWS region", "us-east-1")
		if err != nil {
			return err
		}
		cfg.Share.S3.Region = region
	}

	level, err := prompt.SelectString("Log level", []string{"INFO", "DEBUG", "WARN", "ERROR"})
	if err != nil {
		return err
	}
	cfg.Logging.Level = level

	return nil
}

