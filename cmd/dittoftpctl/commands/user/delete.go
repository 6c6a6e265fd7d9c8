package user

import (
	"fmt"

	"github.com/marmos91/dittoftp/cmd/dittoftpctl/cmdutil"
	"github.com/marmos91/dittoftp/internal/cli/prompt"
	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete [username]",
	Short: "Delete a user",
	Long: `Delete a DittoFTP user account.

Without a username argument, an interactive picker lists the existing
accounts. The user's home directory is left on disk. You will be prompted
for confirmation unless --force is specified.

Examples:
  # Delete user with confirmation
  dittoftpctl user delete alice

  # Delete user without confirmation
  dittoftpctl user delete alice --force

  # Pick the user interactively
  dittoftpctl user delete`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}

	username := ""
	if len(args) > 0 {
		username = args[0]
	}
	if username == "" {
		users := store.List()
		if len(users) == 0 {
			fmt.Println("No users found.")
			return nil
		}
		names := make([]string, 0, len(users))
		for _, u := range users {
			names = append(names, u.Username)
		}
		username, err = prompt.SelectString("Select user to delete", names)
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	return cmdutil.RunDeleteWithConfirmation("User", username, deleteForce, func() error {
		if err := store.Delete(username); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
}
