package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler runs the batch tasks on cron schedules.
type Scheduler struct {
	Cron   *cron.Cron
	Runner *Runner
	Ctx    context.Context
	Log    zerolog.Logger
}

// NewScheduler creates a Scheduler whose cron expressions include a seconds field.
func NewScheduler(ctx context.Context, runner *Runner, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:   cron.New(cron.WithSeconds()),
		Runner: runner,
		Ctx:    ctx,
		Log:    log.With().Str("component", "scheduler").Logger(),
	}
}

// Register adds the levels batch and, when historyCron is set, the history
// refresh. Expressions may carry a CRON_TZ= prefix.
func (s *Scheduler) Register(levelsCron, historyCron string) error {
	if _, err := s.Cron.AddFunc(levelsCron, s.levelsTask); err != nil {
		return fmt.Errorf("register levels task: %w", err)
	}
	if historyCron != "" {
		if _, err := s.Cron.AddFunc(historyCron, s.historyTask); err != nil {
			return fmt.Errorf("register history task: %w", err)
		}
	}
	return nil
}

func (s *Scheduler) Start() {
	s.Cron.Start()
	for _, e := range s.Cron.Entries() {
		s.Log.Info().Time("next", e.Next).Msg("task scheduled")
	}
	s.Log.Info().Msg("scheduler started")
}

// Stop stops the scheduler and waits for running tasks to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) levelsTask() {
	if err := s.Runner.RunLevels(s.Ctx).Err(); err != nil {
		s.Log.Error().Err(err).Msg("levels task had failures")
	}
}

func (s *Scheduler) historyTask() {
	if err := s.Runner.RefreshHistory(s.Ctx).Err(); err != nil {
		s.Log.Error().Err(err).Msg("history task had failures")
	}
}
