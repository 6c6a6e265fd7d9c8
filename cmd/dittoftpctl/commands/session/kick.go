package session

import (
	"fmt"
	"strconv"

	"github.com/marmos91/dittoftp/cmd/dittoftpctl/cmdutil"
	"github.com/marmos91/dittoftp/internal/cli/prompt"
	"github.com/spf13/cobra"
)

var kickForce bool

var kickCmd = &cobra.Command{
	Use:   "kick <handle>",
	Short: "Force-close a session",
	Long: `Force-close a live FTP session by its handle.

The control connection is torn down along with any data transfer in
flight. The FTP client sees the connection drop without a goodbye.

Examples:
  # Close a session (with confirmation prompt)
  dittoftpctl sessions kick 42

  # Close without confirmation
  dittoftpctl sessions kick 42 --force`,
	Args: cobra.ExactArgs(1),
	RunE: runKick,
}

func init() {
	kickCmd.Flags().BoolVarP(&kickForce, "force", "f", false, "Skip confirmation prompt")
}

func runKick(cmd *cobra.Command, args []string) error {
	handle, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid session handle %q: expected a number", args[0])
	}

	confirmed, err := prompt.ConfirmWithForce(
		fmt.Sprintf("Force-close session %d?", handle),
		kickForce,
	)
	if err != nil {
		return cmdutil.HandleAbort(err)
	}
	if !confirmed {
		fmt.Println("Aborted.")
		return nil
	}

	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	if err := client.CloseSession(handle); err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}

	cmdutil.PrintSuccess(fmt.Sprintf("Session %d closed", handle))
	return nil
}
