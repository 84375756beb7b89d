// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerRunsJobsUntilStopped(t *testing.T) {
	var ticks, failures atomic.Int32
	s := New(
		Job{Name: "tick", Every: 5 * time.Millisecond, Run: func(context.Context) error {
			ticks.Add(1)
			return nil
		}},
		Job{Name: "flaky", Every: 5 * time.Millisecond, Run: func(context.Context) error {
			if failures.Add(1) == 1 {
				panic("boom")
			}
			return errors.New("still failing")
		}},
	)
	s.Start(context.Background())

	assert.Eventually(t, func() bool { return ticks.Load() >= 3 && failures.Load() >= 3 },
		time.Second, 5*time.Millisecond, "a failing or panicking job must keep running")

	s.Stop()
	stopped := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, ticks.Load(), "no runs after Stop")
}

func TestSchedulerRunAtStart(t *testing.T) {
	ran := make(chan struct{}, 1)
	s := New(Job{Name: "eager", Every: time.Hour, RunAtStart: true, Run: func(context.Context) error {
		ran <- struct{}{}
		return nil
	}})
	s.Start(context.Background())
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job did not run at start")
	}
}

func TestSchedulerSkipsDisabledJobs(t *testing.T) {
	s := New(
		Job{Name: "no interval", Run: func(context.Context) error { return nil }},
		Job{Name: "no func", Every: time.Second},
	)
	assert.Empty(t, s.jobs)

	// Starting and stopping an empty scheduler must not block.
	s.Start(context.Background())
	s.Stop()
}

func TestSchedulerStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var n atomic.Int32
	s := New(Job{Name: "ctx", Every: 5 * time.Millisecond, Run: func(context.Context) error {
		n.Add(1)
		return nil
	}})
	s.Start(ctx)
	assert.Eventually(t, func() bool { return n.Load() > 0 }, time.Second, 5*time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() { s.Stop(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked after context cancel")
	}
}
