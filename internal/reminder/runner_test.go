package reminder

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunnerTicksAndStops(t *testing.T) {
	st := newFakeStore()
	engine := testEngine(t, st, &fakeSender{})

	var ticks atomic.Int32
	r := NewRunner(engine, 50*time.Millisecond, func(Summary) {
		ticks.Add(1)
	}, engine.logger)

	r.Start(context.Background())
	time.Sleep(180 * time.Millisecond)
	r.Stop()

	got := ticks.Load()
	if got < 2 {
		t.Errorf("ticks = %d, want at least 2", got)
	}

	// No ticks after Stop.
	time.Sleep(120 * time.Millisecond)
	if after := ticks.Load(); after != got {
		t.Errorf("ticks advanced after Stop: %d -> %d", got, after)
	}
}

func TestRunnerAlignsToIntervalBoundary(t *testing.T) {
	st := newFakeStore()
	engine := testEngine(t, st, &fakeSender{})

	var instant atomic.Value
	r := NewRunner(engine, 100*time.Millisecond, func(s Summary) {
		instant.Store(s.StartedAt)
	}, engine.logger)

	r.Start(context.Background())
	time.Sleep(250 * time.Millisecond)
	r.Stop()

	v := instant.Load()
	if v == nil {
		t.Fatal("no tick observed")
	}
	at := v.(time.Time)
	if !at.Equal(at.Truncate(100 * time.Millisecond)) {
		t.Errorf("tick evaluated at %v, want an exact interval boundary", at)
	}
}
