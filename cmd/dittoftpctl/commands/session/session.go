// Package session implements live session commands for dittoftpctl.
package session

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for session management.
var Cmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"session"},
	Short:   "Live session management",
	Long: `Inspect and manage live FTP sessions on a running server.

These commands talk to the server's admin HTTP API, so the server must be
running and reachable.

Examples:
  # List live sessions
  dittoftpctl sessions list

  # Force-close a session by handle
  dittoftpctl sessions kick 42`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(kickCmd)
}
