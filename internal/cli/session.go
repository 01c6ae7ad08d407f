package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hanriver/tradepilot/internal/bootstrap"
	"github.com/hanriver/tradepilot/internal/broker"
	"github.com/hanriver/tradepilot/internal/config"
	"github.com/hanriver/tradepilot/internal/display"
	"github.com/hanriver/tradepilot/internal/errs"
	"github.com/hanriver/tradepilot/internal/models"
	"github.com/hanriver/tradepilot/internal/orchestrator"
	"github.com/hanriver/tradepilot/internal/scheduler"
)

// newSessionCmd creates the "session" command tree.
func newSessionCmd(cfg *config.Config, log zerolog.Logger) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Run a screening session",
	}
	sessionCmd.AddCommand(newSessionRunCmd(cfg, log))
	return sessionCmd
}

func newSessionRunCmd(cfg *config.Config, log zerolog.Logger) *cobra.Command {
	var (
		mode               string
		realmFlag          string
		language           string
		broadcastLanguages string
		noMessaging        bool
		dryRun             bool
		schedule           bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one screen -> analyze -> decide -> persist session",
		Long: `Run a full session for a realm: screen the universe for trigger hits,
run the agent pipeline over each selected ticker, make buy/sell decisions
against trading memory, and persist the results.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			realm := models.Realm(strings.ToUpper(realmFlag))
			if !realm.Valid() {
				return exitCodeError(1, fmt.Errorf("invalid --realm %q, want kr or us", realmFlag))
			}

			sessions, err := parseSessionMode(mode)
			if err != nil {
				return exitCodeError(1, err)
			}

			if language == "" {
				language = cfg.DefaultLanguage
			}

			tradingMode := broker.Mode(cfg.TradingMode)
			if tradingMode == broker.ModeReal && !dryRun {
				confirmed, askErr := confirmRealTrading(realm)
				if askErr != nil {
					return exitCodeError(3, askErr)
				}
				if !confirmed {
					fmt.Println("aborted: real trading mode requires confirmation")
					return nil
				}
			}

			ctx := context.Background()
			rt, err := bootstrap.Build(ctx, cfg, realm, log)
			if err != nil {
				return exitCodeError(1, err)
			}
			defer rt.Close()

			opts := orchestrator.Options{
				Language:           language,
				BroadcastLanguages: splitNonEmpty(broadcastLanguages),
				MessagingEnabled:   cfg.MessagingEnabled && !noMessaging,
				DryRun:             dryRun,
				TradingMode:        tradingMode,
			}

			if schedule {
				return runScheduled(cfg, log, rt, realm, sessions, opts)
			}

			var failed bool
			for _, session := range sessions {
				summary, err := rt.Orch.RunSession(ctx, realm, session, opts)
				if err != nil {
					log.Error().Err(err).Str("mode", string(session)).Msg("session failed")
					failed = true
					continue
				}
				if len(summary.Errors) > 0 {
					failed = true
				}
				if err := writeSessionSummary(cfg, summary); err != nil {
					log.Warn().Err(err).Msg("write session summary artifact failed")
				}
				printSummary(summary)
			}

			if failed {
				return exitCodeError(2, fmt.Errorf("session completed with errors"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "morning, afternoon, or both")
	cmd.MarkFlagRequired("mode")
	cmd.Flags().StringVar(&realmFlag, "realm", "", "kr or us")
	cmd.MarkFlagRequired("realm")
	cmd.Flags().StringVar(&language, "language", "", "report language (default from config)")
	cmd.Flags().StringVar(&broadcastLanguages, "broadcast-languages", "", "comma-separated languages to additionally broadcast")
	cmd.Flags().BoolVar(&noMessaging, "no-messaging", false, "disable messaging even if configured")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "screen and analyze without persisting decisions or trading")
	cmd.Flags().BoolVar(&schedule, "schedule", false, "run as a long-lived daemon, firing each session on its configured cron schedule instead of once")

	return cmd
}

// sessionJob runs one (realm, session) pair as a scheduler.Job.
type sessionJob struct {
	cfg     *config.Config
	log     zerolog.Logger
	rt      *bootstrap.Runtime
	realm   models.Realm
	session models.Session
	opts    orchestrator.Options
}

func (j sessionJob) Name() string {
	return fmt.Sprintf("%s/%s", j.realm, j.session)
}

func (j sessionJob) Realm() models.Realm {
	return j.realm
}

func (j sessionJob) Run() error {
	summary, err := j.rt.Orch.RunSession(context.Background(), j.realm, j.session, j.opts)
	if err != nil {
		return err
	}
	if err := writeSessionSummary(j.cfg, summary); err != nil {
		j.log.Warn().Err(err).Msg("write session summary artifact failed")
	}
	printSummary(summary)
	if len(summary.Errors) > 0 {
		// Per-ticker failures during a session are typically upstream
		// data hiccups that clear on their own by the next scheduled
		// tick, not a reason to page anyone.
		return errs.Transient(fmt.Sprintf("session completed with %d error(s)", len(summary.Errors)), nil)
	}
	return nil
}

// runScheduled registers each session in sessions on its configured cron
// expression and blocks until interrupted, running the daemon mode
// `session run --schedule` instead of exiting after one pass.
func runScheduled(cfg *config.Config, log zerolog.Logger, rt *bootstrap.Runtime, realm models.Realm, sessions []models.Session, opts orchestrator.Options) error {
	sched := scheduler.New(log)
	for _, session := range sessions {
		cronExpr := cfg.MorningCron
		if session == models.SessionAfternoon {
			cronExpr = cfg.AfternoonCron
		}
		job := sessionJob{cfg: cfg, log: log, rt: rt, realm: realm, session: session, opts: opts}
		if err := sched.AddJob(cronExpr, job); err != nil {
			return exitCodeError(1, fmt.Errorf("register schedule for %s: %w", job.Name(), err))
		}
	}

	sched.Start()
	log.Info().Str("realm", string(realm)).Msg("scheduler running, press ctrl-c to stop")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	sched.Stop()
	return nil
}

func parseSessionMode(mode string) ([]models.Session, error) {
	switch strings.ToLower(mode) {
	case "morning":
		return []models.Session{models.SessionMorning}, nil
	case "afternoon":
		return []models.Session{models.SessionAfternoon}, nil
	case "both":
		return []models.Session{models.SessionMorning, models.SessionAfternoon}, nil
	default:
		return nil, fmt.Errorf("invalid --mode %q, want morning, afternoon, or both", mode)
	}
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func confirmRealTrading(realm models.Realm) (bool, error) {
	var confirmed bool
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("Trading mode is REAL for realm %s. Submit live orders?", realm),
		Default: false,
	}
	if err := survey.AskOne(prompt, &confirmed); err != nil {
		return false, err
	}
	return confirmed, nil
}

// writeSessionSummary persists the session's JSON artifact under
// ResultsDir/<realm>/<trading_day>/<mode>_<unix seconds>.json, the same
// results-directory-per-run layout the teacher's session manager used.
func writeSessionSummary(cfg *config.Config, summary models.SessionSummary) error {
	if summary.NoOp {
		return nil
	}
	dir := filepath.Join(cfg.ResultsDir, string(summary.Realm), summary.TradingDay)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%d.json", summary.Mode, time.Now().Unix()))
	return os.WriteFile(path, out, 0o644)
}

func printSummary(summary models.SessionSummary) {
	display.ShowSessionSummary(summary)
}
