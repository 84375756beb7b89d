// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package scheduler runs periodic maintenance jobs inside the server
// process: publishing due scheduled blogs and the cleanup pass.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"blognest/internal/logging"
)

// Job is one periodic task.
type Job struct {
	Name  string
	Every time.Duration
	// RunAtStart runs the job once before the first tick.
	RunAtStart bool
	Run        func(ctx context.Context) error
}

// Scheduler runs jobs on their own tickers until stopped.
type Scheduler struct {
	jobs   []Job
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scheduler for jobs. Jobs with a non-positive interval are
// skipped.
func New(jobs ...Job) *Scheduler {
	s := &Scheduler{}
	for _, j := range jobs {
		if j.Every <= 0 || j.Run == nil {
			logging.L().Warn("scheduler job disabled", zap.String("job", j.Name))
			continue
		}
		s.jobs = append(s.jobs, j)
	}
	return s
}

// Start launches one goroutine per job. The jobs stop when ctx is cancelled
// or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, j := range s.jobs {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.loop(ctx, j)
		}()
	}
}

// Stop cancels every job and waits for running ones to return.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, j Job) {
	ticker := time.NewTicker(j.Every)
	defer ticker.Stop()

	logging.L().Info("scheduler job started", zap.String("job", j.Name), zap.Duration("every", j.Every))
	if j.RunAtStart {
		runOnce(ctx, j)
	}
	for {
		select {
		case <-ticker.C:
			runOnce(ctx, j)
		case <-ctx.Done():
			logging.L().Info("scheduler job stopped", zap.String("job", j.Name))
			return
		}
	}
}

// runOnce runs j, logging failures and panics so one bad run does not stop
// the loop.
func runOnce(ctx context.Context, j Job) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.L().Error("scheduler job panicked", zap.String("job", j.Name), zap.Any("panic", rec), zap.Stack("stack"))
		}
	}()
	start := time.Now()
	if err := j.Run(ctx); err != nil && ctx.Err() == nil {
		logging.L().Error("scheduler job failed", zap.String("job", j.Name), zap.Error(err))
		return
	}
	logging.L().Debug("scheduler job finished", zap.String("job", j.Name), zap.Duration("took", time.Since(start)))
}
