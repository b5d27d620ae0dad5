// Package cmd implements the ledger-cli wallet/admin command tree, grounded
// on the teacher's app/wallet/cli/cmd root (persistent --account/--account-path
// flags resolving to an .ecdsa key file), generalized with a --db flag since
// this tool talks to the store directly rather than through a node's HTTP API.
package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	accountName string
	accountPath string
	dbPath      string
)

const keyExtension = ".ecdsa"

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "private.ecdsa", "Name of the private key file.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zblock/accounts/", "Directory holding private key files.")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "zblock/ledger.db", "Path to the node's store.")
}

var rootCmd = &cobra.Command{
	Use:   "ledger-cli",
	Short: "Wallet and admin commands for the ledger store",
}

// Execute runs the command tree, exiting non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func getPrivateKeyPath() string {
	if !strings.HasSuffix(accountName, keyExtension) {
		accountName += keyExtension
	}
	return filepath.Join(accountPath, accountName)
}
