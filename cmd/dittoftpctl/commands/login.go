package commands

import (
	"fmt"
	"net/url"

	"github.com/marmos91/dittoftp/cmd/dittoftpctl/cmdutil"
	"github.com/marmos91/dittoftp/internal/cli/credentials"
	"github.com/marmos91/dittoftp/internal/cli/prompt"
	"github.com/marmos91/dittoftp/pkg/apiclient"
	"github.com/spf13/cobra"
)

var (
	loginServer   string
	loginUsername string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with a DittoFTP server",
	Long: `Authenticate with a DittoFTP server and store credentials.

Login uses the same accounts as the FTP service itself. On first login,
you must specify the server URL (the admin API port, not the FTP port).
Subsequent logins reuse the stored URL unless overridden.

Only servers with API authentication enabled need a login; against open
servers the other commands work with just --server.

Examples:
  # First login to a server
  dittoftpctl login --server http://localhost:9090 --username alice

  # Login with password on command line (less secure)
  dittoftpctl login --server http://localhost:9090 -u alice -p secret

  # Re-login to stored server
  dittoftpctl login`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginServer, "server", "", "Server URL (required on first login)")
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password")
}

func runLogin(cmd *cobra.Command, args []string) error {
	// Load credential store
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}

	// Determine server URL
	serverURLStr := loginServer
	if serverURLStr == "" {
		serverURLStr = store.ServerURL()
		if serverURLStr == "" {
			return fmt.Errorf("no server URL specified and no saved server found\n\n" +
				"Specify server URL:\n" +
				"  dittoftpctl login --server http://localhost:9090")
		}
	}

	// Validate server URL
	parsedURL, err := url.Parse(serverURLStr)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}
	if parsedURL.Scheme == "" {
		parsedURL.Scheme = "http"
		serverURLStr = parsedURL.String()
	}

	// Get username (prompt if not provided)
	username := loginUsername
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

	// Get password (prompt if not provided). No length check here: login
	// must accept whatever the account actually has.
	password := loginPassword
	if password == "" {
		password, err = prompt.Password("Password")
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	// Create API client
	client := apiclient.New(serverURLStr)

	// Attempt login
	fmt.Printf("Logging in to %s as %s...\n", serverURLStr, username)
	tokens, err := client.Login(username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	// Save credentials
	creds := &credentials.Credentials{
		ServerURL:    serverURLStr,
		Username:     username,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
	}
	if err := store.SetServer(creds); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	fmt.Printf("Logged in successfully as %s\n", username)
	fmt.Printf("Credentials saved to: %s\n", store.ConfigPath())

	return nil
}
