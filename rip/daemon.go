package rip

import (
	"context"
	"fmt"
	"time"
)

// Config gathers everything a Daemon needs to come up: the router's own
// id, the sockets it listens and sends on, its neighbours, and the base
// period for unsolicited updates.
type Config struct {
	RouterID     int
	InputPorts   []int
	OutputPort   int
	Neighbours   []Neighbour
	UpdatePeriod time.Duration
}

// Daemon runs the single-threaded event loop described in the routing
// daemon's design: one goroutine alternates between waiting for inbound
// datagrams and deciding whether it's time for a periodic or triggered
// update, then sweeps the table's timers. It owns the RoutingTable,
// Receiver and Sender outright; nothing outside Daemon ever touches them
// concurrently.
type Daemon struct {
	cfg Config

	table    *RoutingTable
	receiver *Receiver
	sender   *Sender

	now func() time.Time

	nextPeriodicAt        time.Time
	updateTriggered       bool
	triggeredTimerRunning bool
	nextTriggeredAt       time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// DaemonOption configures optional Daemon behaviour at construction time.
type DaemonOption func(*Daemon)

// WithDaemonClock overrides the monotonic clock the daemon and its
// RoutingTable use. Intended for deterministic tests.
func WithDaemonClock(now func() time.Time) DaemonOption {
	return func(d *Daemon) { d.now = now }
}

// NewDaemon wires up the routing table, receiver and sender for cfg and
// sends an initial round of updates, mirroring a freshly booted router
// announcing itself before settling into its periodic schedule.
func NewDaemon(ctx context.Context, cfg Config, opts ...DaemonOption) (*Daemon, error) {
	ctx, cancel := context.WithCancel(ctx)
	d := &Daemon{
		cfg:    cfg,
		now:    time.Now,
		cancel: cancel,
		ctx:    ctx,
	}
	for _, opt := range opts {
		opt(d)
	}

	table, err := NewRoutingTable(cfg.RouterID, cfg.Neighbours, cfg.UpdatePeriod, d, WithClock(d.now))
	if err != nil {
		cancel()
		return nil, err
	}
	d.table = table

	receiver, err := NewReceiver(ctx, cfg.RouterID, table, cfg.InputPorts)
	if err != nil {
		cancel()
		return nil, err
	}
	d.receiver = receiver

	sender, err := NewSender(ctx, cfg.RouterID, cfg.OutputPort, table, cfg.Neighbours)
	if err != nil {
		_ = receiver.Close()
		cancel()
		return nil, err
	}
	d.sender = sender

	d.sender.SendUpdates()
	d.nextPeriodicAt = d.now().Add(jitteredDuration(cfg.UpdatePeriod, PeriodicJitterLow, PeriodicJitterHigh))

	return d, nil
}

// TriggerUpdate implements UpdateTrigger. The RoutingTable calls it the
// moment a route is poisoned; the next tick of Run will act on the flag.
func (d *Daemon) TriggerUpdate() {
	d.updateTriggered = true
}

// Close releases the daemon's sockets and cancels its context. Safe to
// call once Run has returned or been asked to stop.
func (d *Daemon) Close() error {
	d.cancel()
	err := d.receiver.Close()
	if sErr := d.sender.Close(); err == nil {
		err = sErr
	}
	return err
}

// Run drives the event loop until ctx is cancelled or the daemon's own
// context is cancelled via Close. Each iteration blocks for at most
// SelectTimeout waiting for an inbound datagram, then makes one tick
// decision and sweeps the table's timers.
func (d *Daemon) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.ctx.Done():
			return d.ctx.Err()
		default:
		}
		d.receiver.WaitForMessages(SelectTimeout)
		d.tick()
	}
}

// tick makes the single update-scheduling decision described by the
// daemon's design: at most one of a periodic or triggered update is sent
// per call, after which pending timeouts and garbage collection are swept.
func (d *Daemon) tick() {
	now := d.now()
	if !d.triggeredTimerRunning || now.After(d.nextTriggeredAt) {
		switch {
		case now.After(d.nextPeriodicAt):
			d.sender.SendUpdates()
			d.nextPeriodicAt = now.Add(jitteredDuration(d.cfg.UpdatePeriod, PeriodicJitterLow, PeriodicJitterHigh))
			d.updateTriggered = false
			d.triggeredTimerRunning = false
		case d.updateTriggered:
			d.sender.SendUpdates()
			d.updateTriggered = false
			d.triggeredTimerRunning = true
			d.nextTriggeredAt = now.Add(randomBackoff(TriggeredBackoffLow, TriggeredBackoffHigh))
		}
	}
	d.table.CheckTimers()
}

// String identifies the daemon for logging.
func (d *Daemon) String() string {
	return fmt.Sprintf("rip.Daemon{routerID=%d}", d.cfg.RouterID)
}
