package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lborres/clientportal/pkg/crypto"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print an argon2id hash for app_users.password_hash",
	Long: `Print an argon2id hash suitable for app_users.password_hash or a seed file.

The password is taken from the first argument, or read from the first line of
stdin when no argument is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHashPassword,
}

func init() {
	rootCmd.AddCommand(hashPasswordCmd)
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	var password string
	if len(args) == 1 {
		password = args[0]
	} else {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		if scanner.Scan() {
			password = scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}

	password = strings.TrimSpace(password)
	if password == "" {
		return errors.New("password is required")
	}

	hash, err := crypto.NewPasswords().Hash(password)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}
