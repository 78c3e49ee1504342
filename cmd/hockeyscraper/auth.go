package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"hockeyscraper/pkg/auth"
	"hockeyscraper/pkg/publish"
	"hockeyscraper/pkg/ui"
)

var skipVerify bool

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the publish token",
	Long: `Manage the GitHub token used to publish the output CSV.

Tokens are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation

HOCKEYSCRAPER_GITHUB_TOKEN or GITHUB_TOKEN override any stored token.`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store a GitHub token securely",
	Long: `Store a GitHub token in the system keychain or encrypted file.

The token needs write access to the contents of the target repository.
A fine-grained personal access token limited to that repository with
"Contents: Read and write" permission is enough.`,
	Example: `  # Interactive login
  hockeyscraper auth login

  # Store without checking the token against the API
  hockeyscraper auth login --skip-verify`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove the stored token",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

// authStatusCmd represents the auth status command
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored tokens",
	Long:  `List stored tokens with masked values and show whether the environment overrides them.`,
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(authStatusCmd)

	loginCmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "do not check the token against the API")
}

func credentialName(args []string) string {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0])
	}
	return auth.DefaultName
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := credentialName(args)
	reader := bufio.NewReader(os.Stdin)

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Printf("Token '%s' already exists. Replace it? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	fmt.Print("GitHub token (input hidden): ")
	token, err := readPassword(reader)
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	if token == "" {
		return fmt.Errorf("token is required")
	}

	cred := &auth.Credential{Name: name, Token: token}

	if !skipVerify {
		cfg, log, err := loadConfig(nil)
		if err != nil {
			return err
		}
		pub := cfg.Publish
		pub.Token = token

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		login, err := publish.NewClient(pub, log).Whoami(ctx)
		if err != nil {
			return fmt.Errorf("token check failed (use --skip-verify to store anyway): %w", err)
		}
		cred.Login = login
		ui.PrintInfo("Authenticated as", login)
	}

	if err := manager.Store(cred); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	ui.PrintSuccess(fmt.Sprintf("Token saved: %s (%s)", name, auth.MaskToken(cred.Token)))
	fmt.Println("\nPublishing uses this token unless HOCKEYSCRAPER_GITHUB_TOKEN or GITHUB_TOKEN is set.")
	fmt.Println("Enable it with 'publish.enabled: true' or 'hockeyscraper scrape --publish'.")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := credentialName(args)
	if err := manager.Delete(name); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	ui.PrintSuccess("Token removed: " + name)
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	creds, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list tokens: %w", err)
	}

	if len(creds) == 0 {
		ui.PrintInfo("No stored tokens", "Use 'hockeyscraper auth login' to add one")
		return nil
	}

	rows := make([][2]string, 0, len(creds))
	for _, c := range creds {
		masked := auth.Sanitize(c)
		value := masked.Token
		if masked.Login != "" {
			value += " • " + masked.Login
		}
		value += " • " + masked.LastModified.Format("2006-01-02 15:04:05")
		rows = append(rows, [2]string{masked.Name, value})
	}
	ui.RenderSettings(os.Stdout, "Stored Tokens", rows)

	if os.Getenv(auth.EnvToken) != "" || os.Getenv(auth.EnvGitHubToken) != "" {
		ui.PrintWarning("A token in the environment overrides stored tokens")
	}
	return nil
}

// readPassword reads a secret from stdin without echoing when stdin is a terminal
func readPassword(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
