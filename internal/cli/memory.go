package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hanriver/tradepilot/internal/config"
	"github.com/hanriver/tradepilot/internal/memory"
	"github.com/hanriver/tradepilot/internal/models"
)

// newMemoryCmd creates the "memory" command tree: compress and cleanup,
// the two trading-memory maintenance operations of §4.4.
func newMemoryCmd(cfg *config.Config, log zerolog.Logger) *cobra.Command {
	memCmd := &cobra.Command{
		Use:   "memory",
		Short: "Maintain trading memory (compress, cleanup)",
	}
	memCmd.AddCommand(newMemoryCompressCmd(cfg, log))
	memCmd.AddCommand(newMemoryCleanupCmd(cfg, log))
	return memCmd
}

func allRealms() []models.Realm {
	return []models.Realm{models.RealmKR, models.RealmUS}
}

func openStore(cfg *config.Config) (*memory.Store, error) {
	return memory.Open(cfg.DBPath)
}

func newMemoryCompressCmd(cfg *config.Config, log zerolog.Logger) *cobra.Command {
	var (
		layer1AgeDays int
		layer2AgeDays int
		dryRun        bool
	)

	cmd := &cobra.Command{
		Use:   "compress",
		Short: "Compress journals: detailed -> summarized -> intuition",
		RunE: func(cmd *cobra.Command, args []string) error {
			policy := models.DefaultCompressionPolicy()
			if cmd.Flags().Changed("layer1-age") {
				policy.Layer1Age = time.Duration(layer1AgeDays) * 24 * time.Hour
			}
			if cmd.Flags().Changed("layer2-age") {
				policy.Layer2Age = time.Duration(layer2AgeDays) * 24 * time.Hour
			}

			if dryRun {
				fmt.Printf("dry run: would compress with layer1_age=%s layer2_age=%s\n", policy.Layer1Age, policy.Layer2Age)
				return nil
			}

			store, err := openStore(cfg)
			if err != nil {
				return exitCodeError(1, err)
			}
			defer store.Close()

			ctx := context.Background()
			now := time.Now()
			var failed bool
			for _, realm := range allRealms() {
				if err := store.Compress(ctx, realm, now, policy); err != nil {
					log.Error().Err(err).Str("realm", string(realm)).Msg("compress failed")
					failed = true
					continue
				}
				fmt.Printf("%s: compress complete\n", realm)
			}
			if failed {
				return exitCodeError(2, fmt.Errorf("compress failed for at least one realm"))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&layer1AgeDays, "layer1-age", 0, "days before detailed journals compress to summarized (default 7)")
	cmd.Flags().IntVar(&layer2AgeDays, "layer2-age", 0, "days before summarized journals compress to intuitions (default 30)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report the effective policy without writing")

	return cmd
}

func newMemoryCleanupCmd(cfg *config.Config, log zerolog.Logger) *cobra.Command {
	var (
		maxPrinciples int
		maxIntuitions int
		staleDays     int
		archiveDays   int
		dryRun        bool
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Deactivate stale principles/intuitions and archive old journals",
		RunE: func(cmd *cobra.Command, args []string) error {
			policy := models.DefaultCompressionPolicy()
			if cmd.Flags().Changed("max-principles") {
				policy.MaxPrinciples = maxPrinciples
			}
			if cmd.Flags().Changed("max-intuitions") {
				policy.MaxIntuitions = maxIntuitions
			}
			if cmd.Flags().Changed("stale-days") {
				policy.StaleDays = time.Duration(staleDays) * 24 * time.Hour
			}
			if cmd.Flags().Changed("archive-days") {
				policy.ArchiveDays = time.Duration(archiveDays) * 24 * time.Hour
			}

			if dryRun {
				fmt.Printf("dry run: would cleanup with max_principles=%d max_intuitions=%d stale_days=%s archive_days=%s\n",
					policy.MaxPrinciples, policy.MaxIntuitions, policy.StaleDays, policy.ArchiveDays)
				return nil
			}

			store, err := openStore(cfg)
			if err != nil {
				return exitCodeError(1, err)
			}
			defer store.Close()

			ctx := context.Background()
			now := time.Now()
			var failed bool
			for _, realm := range allRealms() {
				if err := store.Cleanup(ctx, realm, now, policy); err != nil {
					log.Error().Err(err).Str("realm", string(realm)).Msg("cleanup failed")
					failed = true
					continue
				}
				fmt.Printf("%s: cleanup complete\n", realm)
			}
			if failed {
				return exitCodeError(2, fmt.Errorf("cleanup failed for at least one realm"))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxPrinciples, "max-principles", 0, "cap on active principles (default 50)")
	cmd.Flags().IntVar(&maxIntuitions, "max-intuitions", 0, "cap on active intuitions (default 50)")
	cmd.Flags().IntVar(&staleDays, "stale-days", 0, "days of inactivity before a weak principle/intuition deactivates (default 60)")
	cmd.Flags().IntVar(&archiveDays, "archive-days", 0, "days before layer-3 journals are archived (default 180)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report the effective policy without writing")

	return cmd
}
