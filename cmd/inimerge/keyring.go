package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/arthur-debert/inimerge/pkg/secrets"
)

// secretStore is swapped out in tests.
var secretStore secrets.Store = secrets.SystemStore{}

var keyringCmd = &cobra.Command{
	Use:   "keyring",
	Short: "Manage secrets used by the keyring transform",
}

var keyringSetCmd = &cobra.Command{
	Use:   "set SERVICE USER",
	Short: "Store a secret in the system keyring",
	Long: `Set prompts for a secret and stores it under (SERVICE, USER) in the
system keyring, where the keyring transform will find it during merges.
When stdin is not a terminal the secret is read from stdin instead,
which allows piping from a password manager.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, err := readSecret()
		if err != nil {
			return err
		}
		if err := secretStore.Set(args[0], args[1], secret); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Stored secret for service %q user %q\n", args[0], args[1])
		return nil
	},
}

var keyringDeleteCmd = &cobra.Command{
	Use:   "delete SERVICE USER",
	Short: "Remove a secret from the system keyring",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := secretStore.Delete(args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Removed secret for service %q user %q\n", args[0], args[1])
		return nil
	},
}

func init() {
	keyringCmd.AddCommand(keyringSetCmd)
	keyringCmd.AddCommand(keyringDeleteCmd)
}

func readSecret() (string, error) {
	if isatty.IsTerminal(os.Stdin.Fd()) {
		fmt.Fprint(os.Stderr, "Secret: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read secret from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
