package config

import (
	"fmt"

	"github.com/marmos91/dittoftp/pkg/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the DittoFTP configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  dittoftp config validate

  # Validate specific config file
  dittoftp config validate --config /etc/dittoftp/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	// Get config path from parent's persistent flag
	configPath, _ := cmd.Flags().GetString("config")

	// Load and validate configuration
	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	// Determine path for display
	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	// Additional validation checks
	var warnings []string

	if cfg.FTP.OpenEnrollment {
		warnings = append(warnings, "Open enrollment is enabled - unknown usernames are registered on first login")
	}
	if cfg.API.Enabled && !cfg.API.Auth.Enabled {
		warnings = append(warnings, "API authentication is disabled - admin endpoints are unprotected")
	}
	if !cfg.Users.Watch {
		warnings = append(warnings, "Users file watch is disabled - external edits require a restart")
	}

	// Print results
	fmt.Printf("Configuration file: %s\n", displayPath)
	fmt.Println("Validation: OK")

	if len(warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Printf("\nConfiguration summary:\n")
	fmt.Printf("  FTP port:        %d\n", cfg.FTP.Port)
	fmt.Printf("  FTP root:        %s\n", cfg.FTP.Root)
	fmt.Printf("  Users file:      %s\n", cfg.Users.Path)
	fmt.Printf("  API port:        %d\n", cfg.API.Port)
	fmt.Printf("  Log level:       %s\n", cfg.Logging.Level)

	return nil
}
