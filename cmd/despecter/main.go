// Package main provides the entry point for the despecter CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/despecter/cmd/despecter/commands"
	"github.com/Sumatoshi-tech/despecter/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "despecter",
		Short: "Despecter - recover readable source from Specter-obfuscated Python",
		Long: `Despecter reverses the Specter Python obfuscator.

Commands:
  run       Full recovery: extract bytecode, decompile, descramble, clean
  clean     Tree-level cleanup of already-decompiled sources
  patterns  List the rewrite pattern catalog`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add commands.
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewCleanCommand())
	rootCmd.AddCommand(commands.NewPatternsCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "despecter %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
