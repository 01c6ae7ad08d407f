package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hanriver/tradepilot/internal/bootstrap"
	"github.com/hanriver/tradepilot/internal/config"
	"github.com/hanriver/tradepilot/internal/market"
	"github.com/hanriver/tradepilot/internal/models"
	"github.com/hanriver/tradepilot/internal/screener"
)

// exitCode carries the process exit code spec §6 maps onto cobra's plain
// error return: 0 success, 1 config error, 2 partial failure, 3 fatal.
type exitCode struct {
	code int
	err  error
}

func (e *exitCode) Error() string { return e.err.Error() }
func (e *exitCode) Unwrap() error { return e.err }

func exitCodeError(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitCode{code: code, err: err}
}

// ExitCode extracts the process exit code an error carries, defaulting to
// 3 (fatal) for any error not produced by exitCodeError.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if ec, ok := err.(*exitCode); ok {
		return ec.code
	}
	return 3
}

// newScreenCmd creates the "screen" command: runs just the trigger screen
// for one mode/realm, without the agent pipeline or decision layer.
func newScreenCmd(cfg *config.Config, log zerolog.Logger) *cobra.Command {
	var (
		mode      string
		realmFlag string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "screen",
		Short: "Run the trigger screen for a realm without the agent pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			realm := models.Realm(strings.ToUpper(realmFlag))
			if !realm.Valid() {
				return exitCodeError(1, fmt.Errorf("invalid --realm %q, want kr or us", realmFlag))
			}
			sessions, err := parseSessionMode(mode)
			if err != nil {
				return exitCodeError(1, err)
			}
			if len(sessions) != 1 {
				return exitCodeError(1, fmt.Errorf("--mode must be morning or afternoon for screen, not both"))
			}

			ctx := context.Background()
			client, err := bootstrap.NewMarketClient(cfg, realm)
			if err != nil {
				return exitCodeError(1, err)
			}

			calendar := client.Calendar()
			now := time.Now()
			if !calendar.IsTradingDay(now) {
				fmt.Println("not a trading day, no-op")
				return nil
			}
			referenceDate := calendar.NearestPastTradingDay(now)
			tradingDay := referenceDate.Format("2006-01-02")

			sess := market.NewSession(client)
			defer sess.Dispose()

			result, err := screener.Screen(ctx, sess, realm, sessions[0], tradingDay)
			if err != nil {
				log.Error().Err(err).Msg("screen failed")
				return exitCodeError(2, err)
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return exitCodeError(3, err)
			}
			if output == "" {
				fmt.Println(string(out))
				return nil
			}
			return os.WriteFile(output, out, 0o644)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "morning or afternoon")
	cmd.MarkFlagRequired("mode")
	cmd.Flags().StringVar(&realmFlag, "realm", "", "kr or us")
	cmd.MarkFlagRequired("realm")
	cmd.Flags().StringVar(&output, "output", "", "write result JSON to this path instead of stdout")

	return cmd
}
