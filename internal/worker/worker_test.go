package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"railbook/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
}

func TestRunnerRunsOnStartAndOnTick(t *testing.T) {
	var runs atomic.Int32
	r := NewRunner("test", 20*time.Millisecond, true, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, testLogger())

	r.Start(context.Background())
	time.Sleep(70 * time.Millisecond)
	r.Stop()

	got := runs.Load()
	if got < 2 {
		t.Fatalf("expected at least 2 runs (run-on-start plus ticks), got %d", got)
	}
}

func TestRunnerStopBlocksUntilIterationReturns(t *testing.T) {
	iterating := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool

	r := NewRunner("slow", time.Hour, true, func(ctx context.Context) error {
		close(iterating)
		<-release
		finished.Store(true)
		return nil
	}, testLogger())

	r.Start(context.Background())
	<-iterating

	stopped := make(chan struct{})
	go func() {
		r.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while an iteration was still running")
	case <-time.After(30 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the iteration finished")
	}
	if !finished.Load() {
		t.Fatal("iteration did not run to completion")
	}
}

func TestRunnerKeepsGoingAfterTaskError(t *testing.T) {
	var runs atomic.Int32
	r := NewRunner("flaky", 15*time.Millisecond, false, func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("transient store failure")
	}, testLogger())

	r.Start(context.Background())
	time.Sleep(60 * time.Millisecond)
	r.Stop()

	if runs.Load() < 2 {
		t.Fatalf("a failing iteration must not stop the loop, got %d runs", runs.Load())
	}
}

func TestRunnerDoubleStartAndStopAreSafe(t *testing.T) {
	r := NewRunner("idem", time.Hour, false, func(ctx context.Context) error { return nil }, testLogger())

	r.Start(context.Background())
	r.Start(context.Background())
	r.Stop()
	r.Stop()
}
