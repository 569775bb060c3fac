package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

func TestStopIdleReturnsImmediately(t *testing.T) {
	s := NewScheduler(nil, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		s.Stop(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return with no jobs running")
	}
}

func TestStopWaitsForRunningJob(t *testing.T) {
	s := NewScheduler(nil, zerolog.Nop())

	var once sync.Once
	started := make(chan struct{})
	release := make(chan struct{})

	s.cron.Schedule(cron.Every(time.Second), cron.FuncJob(func() {
		once.Do(func() { close(started) })
		<-release
	}))
	s.cron.Start()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("job never started")
	}

	done := make(chan struct{})
	go func() {
		s.Stop(context.Background())
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Stop returned while a job was still running")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the job finished")
	}
}

func TestStopHonorsDeadline(t *testing.T) {
	s := NewScheduler(nil, zerolog.Nop())

	var once sync.Once
	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)

	s.cron.Schedule(cron.Every(time.Second), cron.FuncJob(func() {
		once.Do(func() { close(started) })
		<-release
	}))
	s.cron.Start()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("job never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.Stop(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop ignored the deadline")
	}
}
