// Package user implements user management commands for dittoftpctl.
package user

import (
	"fmt"

	"github.com/marmos91/dittoftp/pkg/identity"
	"github.com/spf13/cobra"
)

const (
	defaultUsersFile = "./etc/users.json"
	defaultRoot      = "./root"
)

// Cmd is the parent command for user management.
var Cmd = &cobra.Command{
	Use:   "user",
	Short: "User management",
	Long: `Manage DittoFTP user accounts.

Accounts live in a JSON users file shared with the server; commands edit
the file directly, so they work whether or not the server is running. A
running server picks the changes up through its file watch.

Examples:
  # List all users
  dittoftpctl user list

  # Create a new user (prompts for password)
  dittoftpctl user create alice

  # Delete a user
  dittoftpctl user delete alice

  # Work against a non-default users file
  dittoftpctl user list --users-file /srv/ftp/etc/users.json`,
}

func init() {
	Cmd.PersistentFlags().String("users-file", defaultUsersFile, "Path to the users file")
	Cmd.PersistentFlags().String("root", defaultRoot, "FTP root directory for home directory creation")

	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(deleteCmd)
}

// openStore opens the users file named by the persistent flags.
func openStore(cmd *cobra.Command) (*identity.Store, error) {
	usersFile, _ := cmd.Flags().GetString("users-file")
	root, _ := cmd.Flags().GetString("root")

	store, err := identity.NewStore(usersFile, root, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open users file %s: %w", usersFile, err)
	}
	return store, nil
}

// userInfo is the display shape of an account. identity.User hides the
// username from its own JSON form because the users file keys on it, so
// output needs an explicit field.
type userInfo struct {
	Username string `json:"username" yaml:"username"`
	UID      uint16 `json:"uid" yaml:"uid"`
	Chroot   string `json:"chroot" yaml:"chroot"`
}

func toUserInfo(u *identity.User) userInfo {
	return userInfo{
		Username: u.Username,
		UID:      u.UID,
		Chroot:   u.Chroot,
	}
}
