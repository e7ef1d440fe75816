package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// WeeklySummarySpec fires on Sunday at 20:00.
const WeeklySummarySpec = "0 20 * * 0"

// Job is a named cron entry. Run receives the scheduler's context and
// should return early once it is cancelled.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

type Scheduler struct {
	loc *time.Location
	log logrus.FieldLogger
}

func New(loc *time.Location, log logrus.FieldLogger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		loc: loc,
		log: log.WithField("component", "scheduler"),
	}
}

// DailySpec returns the cron expression for a daily trigger at hour:minute.
func DailySpec(hour, minute int) string {
	return fmt.Sprintf("%d %d * * *", minute, hour)
}

// Run starts jobs and blocks until ctx is done. A job still running when
// its next tick arrives is skipped for that tick. On return every running
// job has finished.
func (s *Scheduler) Run(ctx context.Context, jobs ...Job) error {
	logger := cronLogger{log: s.log}
	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	for _, job := range jobs {
		if _, err := c.AddFunc(job.Spec, s.wrap(ctx, job)); err != nil {
			return errors.Wrapf(err, "schedule %s (%q)", job.Name, job.Spec)
		}
		s.log.WithFields(logrus.Fields{"job": job.Name, "spec": job.Spec}).Info("job scheduled")
	}

	c.Start()
	<-ctx.Done()

	s.log.Info("stopping scheduler")
	<-c.Stop().Done()
	return nil
}

func (s *Scheduler) wrap(ctx context.Context, job Job) func() {
	log := s.log.WithField("job", job.Name)
	return func() {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		log.Info("job started")
		err := job.Run(ctx)
		switch {
		case errors.Is(err, context.Canceled):
			log.WithField("took", time.Since(start)).Warn("job interrupted by shutdown")
			return
		case err != nil:
			log.WithError(err).WithField("took", time.Since(start)).Error("job failed")
			return
		}
		log.WithField("took", time.Since(start)).Info("job finished")
	}
}

// cronLogger adapts logrus to cron.Logger. Cron's own info lines are
// demoted to debug.
type cronLogger struct {
	log logrus.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithError(err).WithFields(fields(keysAndValues)).Error(msg)
}

func fields(kv []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
