package rip

import (
	"context"
	"testing"
	"time"
)

func newTestDaemon(t *testing.T, updatePeriod time.Duration) (*Daemon, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Unix(0, 0)}
	cfg := Config{
		RouterID:     1,
		InputPorts:   []int{0},
		OutputPort:   0,
		Neighbours:   []Neighbour{{ID: 2, LinkMetric: 1, InputPort: 0}},
		UpdatePeriod: updatePeriod,
	}
	d, err := NewDaemon(context.Background(), cfg, WithDaemonClock(clock.now))
	if err != nil {
		t.Fatalf("NewDaemon: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d, clock
}

func TestNewDaemonSchedulesFirstPeriodicUpdate(t *testing.T) {
	d, _ := newTestDaemon(t, 10*time.Second)
	if !d.nextPeriodicAt.After(time.Unix(0, 0)) {
		t.Fatalf("expected the first periodic update to be scheduled in the future")
	}
}

func TestTickSendsPeriodicUpdateOnceDue(t *testing.T) {
	d, clock := newTestDaemon(t, time.Second)
	before := d.nextPeriodicAt
	clock.advance(2 * time.Second)
	d.tick()
	if !d.nextPeriodicAt.After(before) {
		t.Fatalf("expected nextPeriodicAt to advance past the previous deadline")
	}
}

func TestTriggerUpdateCausesImmediateSendOnNextTick(t *testing.T) {
	d, clock := newTestDaemon(t, time.Hour) // periodic update far in the future
	d.TriggerUpdate()
	if !d.updateTriggered {
		t.Fatalf("expected updateTriggered to be set")
	}
	d.tick()
	if d.updateTriggered {
		t.Fatalf("expected updateTriggered to be cleared after the triggered update was sent")
	}
	if !d.triggeredTimerRunning {
		t.Fatalf("expected the triggered backoff timer to be running")
	}
	if !d.nextTriggeredAt.After(clock.now()) {
		t.Fatalf("expected nextTriggeredAt to be in the future")
	}
}

func TestTriggeredBackoffSuppressesASecondTriggerWithinTheWindow(t *testing.T) {
	d, clock := newTestDaemon(t, time.Hour)
	d.TriggerUpdate()
	d.tick()

	d.TriggerUpdate()
	d.tick() // still inside the backoff window: nothing should be sent yet
	if !d.updateTriggered {
		t.Fatalf("expected the second trigger to remain pending during the backoff window")
	}

	clock.advance(10 * time.Second) // clears even the widest backoff window
	d.tick()
	if d.updateTriggered {
		t.Fatalf("expected the pending trigger to fire once the backoff window elapsed")
	}
}

func TestCheckTimersRunsEveryTick(t *testing.T) {
	d, clock := newTestDaemon(t, time.Second) // timeout = 6s
	clock.advance(7 * time.Second)
	d.tick()
	if got := d.table.Metric(2); got != Infinity {
		t.Fatalf("got metric %d, want %d after the neighbour timed out", got, Infinity)
	}
}
