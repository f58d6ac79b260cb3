// Package scheduler runs background tasks on a fixed interval.
package scheduler

import (
	"context"
	"fmt"
	"time"

	cron "github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Task is a unit of periodic work.
type Task interface {
	Run(ctx context.Context) error
}

// TaskFunc adapts a function to Task.
type TaskFunc func(ctx context.Context) error

func (f TaskFunc) Run(ctx context.Context) error { return f(ctx) }

// Run runs task every interval until ctx is cancelled. A failed or panicking
// invocation is logged and the schedule continues. Overlapping invocations
// are skipped rather than queued.
func Run(ctx context.Context, log *logrus.Entry, task Task, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid interval %s", interval)
	}

	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger{log}),
		cron.SkipIfStillRunning(cronLogger{log}),
	))
	_, err := c.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		log.Debugf("task started")
		if err := task.Run(ctx); err != nil {
			log.Errorf("finished with an error: %v", err)
		}
		log.Debugf("task finished")
	})
	if err != nil {
		return fmt.Errorf("scheduling task: %w", err)
	}

	log.Debugf("task running every %s", interval)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	log.Debugf("task stopped")
	return nil
}

// cronLogger routes cron's internal logging through logrus.
type cronLogger struct {
	log *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}

func fields(kv []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
