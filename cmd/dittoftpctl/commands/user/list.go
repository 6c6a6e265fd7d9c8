package user

import (
	"fmt"
	"os"

	"github.com/marmos91/dittoftp/cmd/dittoftpctl/cmdutil"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	Long: `List all DittoFTP user accounts.

Examples:
  # List users as table
  dittoftpctl user list

  # List as JSON
  dittoftpctl user list -o json

  # List as YAML
  dittoftpctl user list -o yaml`,
	RunE: runList,
}

// UserList is a list of users for table rendering.
type UserList []userInfo

// Headers implements TableRenderer.
func (ul UserList) Headers() []string {
	return []string{"USERNAME", "UID", "HOME"}
}

// Rows implements TableRenderer.
func (ul UserList) Rows() [][]string {
	rows := make([][]string, 0, len(ul))
	for _, u := range ul {
		rows = append(rows, []string{u.Username, fmt.Sprintf("%d", u.UID), u.Chroot})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}

	users := store.List()
	infos := make([]userInfo, 0, len(users))
	for _, u := range users {
		infos = append(infos, toUserInfo(u))
	}

	return cmdutil.PrintOutput(os.Stdout, infos, len(infos) == 0, "No users found.", UserList(infos))
}
