package rip

import (
	"fmt"
	"time"
)

// UpdateTrigger is the narrow capability a RoutingTable uses to tell its
// owning daemon that a route was just poisoned and a triggered update
// should be scheduled. It is injected rather than an owning back-pointer
// to the daemon, so the table stays testable without a running event loop
// (see design note in the spec on avoiding the table/daemon cycle).
type UpdateTrigger interface {
	TriggerUpdate()
}

// entry is a single routing table row. It is a private implementation
// detail: the only way to observe or mutate one from outside the package
// is through RoutingTable's typed accessor methods, never a handle to the
// entry itself.
type entry struct {
	destID  int
	metric  int
	nextHop int

	// timeoutDeadline is meaningful only while gcStarted is false.
	timeoutDeadline time.Time
	gcStarted       bool
	// gcDeadline is meaningful only while gcStarted is true.
	gcDeadline time.Time
}

// RouteView is a read-only snapshot of one routing table entry, used by
// callers (chiefly the Sender) that need to walk the whole table without
// being handed a live entry pointer.
type RouteView struct {
	DestID  int
	Metric  int
	NextHop int
}

// RoutingTable holds one route per known destination, enforces the
// invariants in the spec's data model, and drives each entry's
// timeout/garbage-collection lifecycle. The Daemon exclusively owns and
// mutates a RoutingTable; the Receiver and Sender hold a shared,
// non-owning reference to it. Because all mutation happens from the
// daemon's single-threaded event loop, RoutingTable itself does no
// internal locking.
type RoutingTable struct {
	routerID int

	entries map[int]*entry
	neigh   *neighbourSet

	timeoutPeriod time.Duration
	gcPeriod      time.Duration

	trigger UpdateTrigger
	now     func() time.Time
}

// Option configures optional RoutingTable behaviour at construction time.
type Option func(*RoutingTable)

// WithClock overrides the monotonic clock used for all deadlines. Intended
// for tests that need to advance time deterministically.
func WithClock(now func() time.Time) Option {
	return func(t *RoutingTable) { t.now = now }
}

// NewRoutingTable builds a table seeded with one directly-attached entry
// per neighbour, per the lifecycle described in the spec's data model:
// each neighbour starts as {destId: n.ID, metric: n.LinkMetric, nextHop:
// n.ID}, with its timeout armed immediately.
func NewRoutingTable(routerID int, neighbours []Neighbour, updatePeriod time.Duration, trigger UpdateTrigger, opts ...Option) (*RoutingTable, error) {
	neigh, err := newNeighbourSet(neighbours)
	if err != nil {
		return nil, err
	}
	t := &RoutingTable{
		routerID:      routerID,
		entries:       make(map[int]*entry, len(neighbours)),
		neigh:         neigh,
		timeoutPeriod: updatePeriod * TimeoutPeriodRatio,
		gcPeriod:      updatePeriod * GCPeriodRatio,
		trigger:       trigger,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	for _, n := range neighbours {
		if n.ID == routerID {
			return nil, fmt.Errorf("rip: neighbour %d equals this router's own id", n.ID)
		}
		t.AddEntry(n.ID, n.LinkMetric, n.ID)
	}
	return t, nil
}

// mustGet fetches an existing entry or panics. Every accessor below
// assumes destID names a present route; violating that precondition is a
// programming bug in the caller, per the spec's error handling design.
func (t *RoutingTable) mustGet(destID int) *entry {
	e, ok := t.entries[destID]
	if !ok {
		panic(fmt.Sprintf("rip: no routing table entry for destId %d", destID))
	}
	return e
}

// AddEntry inserts a new entry for destID and arms its timeout. It must
// not be called when an entry for destID already exists.
func (t *RoutingTable) AddEntry(destID, metric, nextHop int) {
	if _, exists := t.entries[destID]; exists {
		panic(fmt.Sprintf("rip: AddEntry called for existing destId %d", destID))
	}
	t.entries[destID] = &entry{
		destID:          destID,
		metric:          clampMetric(metric),
		nextHop:         nextHop,
		timeoutDeadline: t.now().Add(t.timeoutPeriod),
	}
}

// HasRoute reports whether a route to destID currently exists, timed out
// or not.
func (t *RoutingTable) HasRoute(destID int) bool {
	_, ok := t.entries[destID]
	return ok
}

// Metric returns the current best-known metric to destID.
func (t *RoutingTable) Metric(destID int) int {
	return t.mustGet(destID).metric
}

// SetMetric overwrites the metric for destID, saturating at Infinity.
func (t *RoutingTable) SetMetric(destID, metric int) {
	t.mustGet(destID).metric = clampMetric(metric)
}

// NextHop returns the neighbour router ID used to reach destID.
func (t *RoutingTable) NextHop(destID int) int {
	return t.mustGet(destID).nextHop
}

// SetNextHop overwrites the next hop for destID.
func (t *RoutingTable) SetNextHop(destID, nextHop int) {
	t.mustGet(destID).nextHop = nextHop
}

// ResetTimeout arms destID's timeout for timeoutPeriod from now and clears
// gcStarted. Calling it on an entry mid garbage-collection resurrects the
// route with whatever metric it currently holds; callers reinstating a
// poisoned route must SetMetric first.
func (t *RoutingTable) ResetTimeout(destID int) {
	e := t.mustGet(destID)
	e.timeoutDeadline = t.now().Add(t.timeoutPeriod)
	e.gcStarted = false
}

// StartDeletion pins destID's metric at Infinity, arms its
// garbage-collection timer, and asks the daemon to schedule a triggered
// update. It is idempotent: calling it again while GC is already running
// does not restart the GC timer or re-signal the trigger.
func (t *RoutingTable) StartDeletion(destID int) {
	e := t.mustGet(destID)
	if e.gcStarted {
		return
	}
	e.gcStarted = true
	e.gcDeadline = t.now().Add(t.gcPeriod)
	e.metric = Infinity
	if t.trigger != nil {
		t.trigger.TriggerUpdate()
	}
}

// IsNeighbour reports whether id names one of this router's configured
// neighbours. Backed by the immutable neighbours map, this stays defined
// even after the corresponding routing table entry has been garbage
// collected.
func (t *RoutingTable) IsNeighbour(id int) bool {
	return t.neigh.Has(id)
}

// MetricToNeighbour returns the link cost to neighbour id. id must be a
// configured neighbour.
func (t *RoutingTable) MetricToNeighbour(id int) int {
	return t.neigh.LinkMetric(id)
}

// CheckTimers sweeps every entry once: entries whose timeout has elapsed
// enter garbage collection, and entries whose garbage-collection timer has
// elapsed are removed. The sweep is invoked once per event-loop tick from
// the single-threaded daemon, so it never races a concurrent mutation.
func (t *RoutingTable) CheckTimers() {
	now := t.now()
	var toRemove []int
	for destID, e := range t.entries {
		if !e.gcStarted && now.After(e.timeoutDeadline) {
			t.StartDeletion(destID)
		}
		if e.gcStarted && now.After(e.gcDeadline) {
			toRemove = append(toRemove, destID)
		}
	}
	for _, destID := range toRemove {
		delete(t.entries, destID)
	}
}

// Size returns the number of entries currently in the table.
func (t *RoutingTable) Size() int {
	return len(t.entries)
}

// Entries returns a read-only snapshot of every route currently in the
// table, in no particular order.
func (t *RoutingTable) Entries() []RouteView {
	views := make([]RouteView, 0, len(t.entries))
	for _, e := range t.entries {
		views = append(views, RouteView{DestID: e.destID, Metric: e.metric, NextHop: e.nextHop})
	}
	return views
}

func clampMetric(metric int) int {
	if metric > Infinity {
		return Infinity
	}
	if metric < 1 {
		return 1
	}
	return metric
}
