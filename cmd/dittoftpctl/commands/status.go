package commands

import (
	"fmt"
	"os"

	"github.com/marmos91/dittoftp/cmd/dittoftpctl/cmdutil"
	"github.com/marmos91/dittoftp/internal/cli/credentials"
	"github.com/marmos91/dittoftp/internal/cli/output"
	"github.com/marmos91/dittoftp/internal/cli/timeutil"
	"github.com/marmos91/dittoftp/pkg/apiclient"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long: `Display the status of the connected DittoFTP server.

This command checks the server health and readiness endpoints and shows
uptime, the FTP listener port, and live session and user counts. The
endpoints are unauthenticated, so no login is needed.

Examples:
  # Check status of the stored server
  dittoftpctl status

  # Check a specific server
  dittoftpctl status --server http://localhost:9090

  # Output as JSON
  dittoftpctl status -o json`,
	RunE: runStatus,
}

// ServerStatus represents the server status for display.
type ServerStatus struct {
	Server    string `json:"server" yaml:"server"`
	Status    string `json:"status" yaml:"status"`
	Healthy   bool   `json:"healthy" yaml:"healthy"`
	Ready     bool   `json:"ready" yaml:"ready"`
	Service   string `json:"service,omitempty" yaml:"service,omitempty"`
	StartedAt string `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	Uptime    string `json:"uptime,omitempty" yaml:"uptime,omitempty"`
	FTPPort   int    `json:"ftp_port,omitempty" yaml:"ftp_port,omitempty"`
	Sessions  int    `json:"sessions" yaml:"sessions"`
	Users     int    `json:"users" yaml:"users"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	serverURL := cmdutil.Flags.ServerURL
	if serverURL == "" {
		if store, err := credentials.NewStore(); err == nil {
			serverURL = store.ServerURL()
		}
	}
	if serverURL == "" {
		return fmt.Errorf("no server URL configured. Use --server or run 'dittoftpctl login --server <url>' first")
	}

	client := apiclient.New(serverURL)

	status := ServerStatus{
		Server:  serverURL,
		Status:  "unreachable",
		Healthy: false,
	}

	healthResp, err := client.Health()
	if err != nil {
		status.Error = err.Error()
	} else {
		status.Status = healthResp.Status
		status.Healthy = healthResp.Status == "healthy"
		status.Service = healthResp.Data.Service
		status.StartedAt = healthResp.Data.StartedAt
		status.Uptime = healthResp.Data.Uptime
		if healthResp.Error != "" {
			status.Error = healthResp.Error
		}

		// Readiness adds listener and store detail; a 503 here means the
		// process is up but not serving FTP yet.
		if readyResp, err := client.Ready(); err == nil {
			status.Ready = true
			status.FTPPort = readyResp.Data.FTPPort
			status.Sessions = readyResp.Data.Sessions
			status.Users = readyResp.Data.Users
		} else if status.Error == "" {
			status.Error = err.Error()
		}
	}

	// Output based on format
	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, status)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, status)
	default:
		printStatusTable(status)
	}

	return nil
}

func printStatusTable(status ServerStatus) {
	fmt.Println()
	fmt.Println("DittoFTP Server Status")
	fmt.Println("======================")
	fmt.Println()
	fmt.Printf("  Server:     %s\n", status.Server)

	if status.Healthy {
		fmt.Printf("  Status:     \033[32m● %s\033[0m\n", status.Status)
	} else if status.Status == "unreachable" {
		fmt.Printf("  Status:     \033[31m○ %s\033[0m\n", status.Status)
	} else {
		fmt.Printf("  Status:     \033[33m● %s\033[0m\n", status.Status)
	}

	fmt.Printf("  Ready:      %s\n", cmdutil.BoolToYesNo(status.Ready))

	if status.Service != "" {
		fmt.Printf("  Service:    %s\n", status.Service)
	}
	if status.StartedAt != "" {
		fmt.Printf("  Started:    %s\n", timeutil.FormatTime(status.StartedAt))
	}
	if status.Uptime != "" {
		fmt.Printf("  Uptime:     %s\n", timeutil.FormatUptime(status.Uptime))
	}
	if status.Ready {
		fmt.Printf("  FTP port:   %d\n", status.FTPPort)
		fmt.Printf("  Sessions:   %d\n", status.Sessions)
		fmt.Printf("  Users:      %d\n", status.Users)
	}
	if status.Error != "" {
		fmt.Printf("  Error:      %s\n", status.Error)
	}
	fmt.Println()
}
