package commands

import (
	"fmt"

	"github.com/marmos91/dittoftp/internal/cli/credentials"
	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear stored credentials",
	Long: `Clear the stored credentials.

This removes the access and refresh tokens but keeps the server URL
for easy re-login.

Examples:
  # Logout
  dittoftpctl logout`,
	RunE: runLogout,
}

func runLogout(cmd *cobra.Command, args []string) error {
	// Load credential store
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}

	if _, err := store.Server(); err != nil {
		return fmt.Errorf("not logged in")
	}

	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}

	fmt.Println("Logged out.")
	return nil
}
