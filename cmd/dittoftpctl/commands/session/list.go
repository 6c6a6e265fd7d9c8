package session

import (
	"fmt"
	"os"

	"github.com/marmos91/dittoftp/cmd/dittoftpctl/cmdutil"
	"github.com/marmos91/dittoftp/pkg/apiclient"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List live sessions",
	Long: `List the live FTP sessions on the connected server.

Examples:
  # List sessions as table
  dittoftpctl sessions list

  # List sessions as JSON
  dittoftpctl sessions list -o json`,
	RunE: runList,
}

// SessionList is a list of sessions for table rendering.
type SessionList []apiclient.Session

// Headers implements TableRenderer.
func (sl SessionList) Headers() []string {
	return []string{"HANDLE", "ID", "USER", "REMOTE", "STATE", "CWD", "AGE"}
}

// Rows implements TableRenderer.
func (sl SessionList) Rows() [][]string {
	rows := make([][]string, 0, len(sl))
	for _, s := range sl {
		// Truncate session ID for readability
		shortID := s.ID
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", s.Handle),
			shortID,
			cmdutil.EmptyOr(s.Username, "-"),
			s.RemoteAddr,
			s.State,
			cmdutil.EmptyOr(s.Cwd, "-"),
			s.Age,
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	sessions, err := client.ListSessions()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, sessions, len(sessions) == 0,
		"No live sessions.", SessionList(sessions))
}
