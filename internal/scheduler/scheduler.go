// Package scheduler runs session jobs on a cron schedule for tradepilot's
// optional long-lived daemon mode (`session run --schedule`), as opposed
// to the default one-shot invocation that runs once and exits.
package scheduler

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/hanriver/tradepilot/internal/errs"
	"github.com/hanriver/tradepilot/internal/models"
)

// Job is one schedulable unit of work: a single (realm, session) run. Realm
// lets the scheduler tag every log line without parsing Name, and Run's
// error is classified via errs.Kind so a cron tick can tell a
// transient-upstream miss (expected to clear on the next tick) from a
// config or fatal error an operator needs to see.
type Job interface {
	Run() error
	Name() string
	Realm() models.Realm
}

// Scheduler wraps a cron.Cron with realm-aware logging and error
// classification around each job invocation.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// New creates a scheduler. Entries use the standard 5-field cron format
// (no seconds field: tradepilot's sessions fire at most twice a day).
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// Start begins running registered jobs on their schedules. Non-blocking.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop waits for in-flight jobs to finish, then returns.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}

// AddJob registers job to run on the given cron expression.
//
// Schedule examples:
//   - "0 9 * * MON-FRI"  - 9 AM weekdays (morning session)
//   - "30 13 * * MON-FRI" - 1:30 PM weekdays (afternoon session)
func (s *Scheduler) AddJob(schedule string, job Job) error {
	jobLog := s.log.With().Str("realm", string(job.Realm())).Str("job", job.Name()).Logger()

	_, err := s.cron.AddFunc(schedule, func() {
		jobLog.Info().Msg("running scheduled job")
		logJobOutcome(jobLog, job.Run())
	})
	if err != nil {
		return errs.ConfigError("invalid cron schedule "+schedule, err)
	}
	jobLog.Info().Str("schedule", schedule).Msg("job registered")
	return nil
}

// logJobOutcome reports a job's result at a severity matching its errs.Kind:
// a fatal or config error gets operator attention now, a transient-upstream
// failure is expected to clear on the next scheduled tick and only warrants
// a warning, and everything else is an ordinary failure.
func logJobOutcome(jobLog zerolog.Logger, err error) {
	switch {
	case err == nil:
		jobLog.Info().Msg("scheduled job completed")
	case errs.Is(err, errs.KindFatal), errs.Is(err, errs.KindConfig):
		jobLog.Error().Err(err).Msg("scheduled job failed, needs operator attention")
	case errs.IsRetryable(err):
		jobLog.Warn().Err(err).Msg("scheduled job hit a transient failure, will retry next tick")
	default:
		jobLog.Error().Err(err).Msg("scheduled job failed")
	}
}
