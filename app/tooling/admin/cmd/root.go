// Package cmd contains the admin commands.
package cmd

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	accountName string
	accountPath string
)

const (
	keyExtension = ".ecdsa"
)

// log is set by Execute for commands that report progress.
var log = zap.NewNop().Sugar()

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "pavel", "Name of the private key.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zblock/accounts/", "Path to the directory with private keys.")
}

var rootCmd = &cobra.Command{
	Use:          "admin",
	Short:        "Ledger administration",
	SilenceUsage: true,
}

// Execute runs the command named on the command line.
func Execute(build string, logger *zap.SugaredLogger) error {
	log = logger
	rootCmd.Version = build

	return rootCmd.Execute()
}

func getPrivateKeyPath() string {
	name := accountName
	if !strings.HasSuffix(name, keyExtension) {
		name += keyExtension
	}

	return filepath.Join(accountPath, name)
}
