// Package cli builds tradepilot's cobra command tree: session run, screen,
// and the memory compress/cleanup maintenance commands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hanriver/tradepilot/internal/config"
	"github.com/hanriver/tradepilot/internal/logging"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cfg := config.DefaultConfig()
	log := logging.Base(cfg.Debug)

	rootCmd := &cobra.Command{
		Use:   "tradepilot",
		Short: "Daily stock screening and multi-agent trading analysis",
		Long: `tradepilot screens the KR and US equity universes for setup triggers,
runs a multi-agent LLM pipeline over each candidate, and maintains a
persistent trading memory that compresses experience into reusable
principles and intuitions over time.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.EnsureDirectories(); err != nil {
				return exitCodeError(1, fmt.Errorf("create data/results directories: %w", err))
			}
			return nil
		},
	}

	rootCmd.AddCommand(newSessionCmd(cfg, log))
	rootCmd.AddCommand(newScreenCmd(cfg, log))
	rootCmd.AddCommand(newMemoryCmd(cfg, log))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().Bool("debug", cfg.Debug, "Enable debug logging")

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("tradepilot v0.1.0")
		},
	}
}
