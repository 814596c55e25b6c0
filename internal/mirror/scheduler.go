package mirror

import (
	"context"
	"fmt"
	"time"

	"github.com/jonesrussell/north-cloud/content-mirror/internal/logger"
	"github.com/robfig/cron/v3"
)

// Scheduler runs FetchAll on a cron schedule. Overlapping runs are skipped.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	syncer   *Syncer
	log      logger.Logger
	timeout  time.Duration
}

// NewScheduler parses a standard five-field cron expression. timeout bounds each run; zero means none.
func NewScheduler(schedule string, syncer *Syncer, timeout time.Duration, log logger.Logger) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return nil, fmt.Errorf("parse sync schedule %q: %w", schedule, err)
	}

	cronLog := cronLogger{log: log}
	c := cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	return &Scheduler{cron: c, schedule: schedule, syncer: syncer, log: log, timeout: timeout}, nil
}

// Run starts the schedule and blocks until ctx is done, then waits for a running sync to stop.
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule sync: %w", err)
	}

	s.log.Info("Sync scheduler started", logger.String("schedule", s.schedule))
	s.cron.Start()

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.Info("Sync scheduler stopped")
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	stats, err := s.syncer.FetchAll(ctx)
	if err != nil {
		s.log.Error("Scheduled sync failed", logger.Error(err))
		return
	}
	s.log.Info("Scheduled sync completed",
		logger.Int("ingested", stats.Ingested),
		logger.Int("failed", stats.Failed),
		logger.Duration("duration", time.Since(start)),
	)
}

// cronLogger adapts Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keyValueFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keyValueFields(keysAndValues), logger.Error(err))...)
}

func keyValueFields(keysAndValues []any) []logger.Field {
	fields := make([]logger.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields = append(fields, logger.Any(key, keysAndValues[i+1]))
	}
	return fields
}
