package user

import (
	"fmt"
	"os"

	"github.com/marmos91/dittoftp/cmd/dittoftpctl/cmdutil"
	"github.com/marmos91/dittoftp/internal/cli/prompt"
	"github.com/spf13/cobra"
)

var createPassword string

var createCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create a new user",
	Long: `Create a new DittoFTP user account.

The password is prompted for (masked, with confirmation) unless provided
via --password. The user's home directory is created under the FTP root.

Examples:
  # Create user interactively
  dittoftpctl user create alice

  # Create user with password on command line (less secure)
  dittoftpctl user create alice --password "correct horse"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVarP(&createPassword, "password", "p", "", "Password (prompts if not provided)")
}

func runCreate(cmd *cobra.Command, args []string) error {
	var err error

	username := ""
	if len(args) > 0 {
		username = args[0]
	}
	if username == "" {
		username, err = prompt.InputWithValidation("Username", func(s string) error {
			if s == "" {
				return fmt.Errorf("username is required")
			}
			return nil
		})
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	password := createPassword
	if password == "" {
		password, err = prompt.PasswordWithConfirmation("Password", "Confirm password", 8)
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}

	user, err := store.Create(username, password)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return cmdutil.PrintResourceWithSuccess(os.Stdout, toUserInfo(user),
		fmt.Sprintf("User '%s' created (uid %d, home %s)", user.Username, user.UID, user.Chroot))
}
