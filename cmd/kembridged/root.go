// Package main implements kembridged, the KEMBridge daemon binary. It
// exposes serve, migrate, and keygen subcommands the way go-fdo-server's
// cmd package exposes manufacturing, owner, and rendezvous.
package main

import (
	"os"

	"github.com/kembridge/kembridge-core/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	Use:   "kembridged",
	Short: "Post-quantum cross-chain bridge daemon",
	Long: `kembridged runs the KEMBridge swap coordinator, key manager, and
authentication services behind a single process, backed by Postgres and
ML-KEM-1024 envelope encryption.`,
}

// Execute adds all child commands to the root command and parses flags.
// This is called by main.main(). It only needs to happen once to rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	if err := config.BindFlags(rootCmd); err != nil {
		panic(err)
	}
}
