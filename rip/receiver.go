package rip

import (
	"context"
	"fmt"
	"time"

	"github.com/rekanorman/rip-assignment/iface"
	"github.com/rekanorman/rip-assignment/rip/packet"
)

// Receiver owns the input sockets and applies the distance-vector update
// rule to whatever they deliver. It holds a shared, non-owning reference
// to the RoutingTable it mutates; the Daemon owns the table's lifetime.
type Receiver struct {
	routerID int
	table    *RoutingTable

	poller  *iface.Poller
	sockets []*iface.Socket
	buf     [packet.MaxPacketSize]byte
}

// NewReceiver binds one non-blocking UDP socket per input port and
// registers them all with a fresh readiness multiplexer.
func NewReceiver(ctx context.Context, routerID int, table *RoutingTable, inputPorts []int) (*Receiver, error) {
	poller, err := iface.NewPoller()
	if err != nil {
		return nil, fmt.Errorf("rip: creating readiness multiplexer: %w", err)
	}
	r := &Receiver{routerID: routerID, table: table, poller: poller}
	for _, port := range inputPorts {
		conn, err := iface.ListenUDPNonBlocking(ctx, port)
		if err != nil {
			return nil, fmt.Errorf("rip: binding input port %d: %w", port, err)
		}
		sock, err := poller.Register(conn, port)
		if err != nil {
			return nil, fmt.Errorf("rip: registering input port %d: %w", port, err)
		}
		r.sockets = append(r.sockets, sock)
	}
	return r, nil
}

// Close releases every input socket and the readiness multiplexer.
func (r *Receiver) Close() error {
	for _, s := range r.sockets {
		_ = s.Conn.Close()
	}
	return r.poller.Close()
}

// WaitForMessages blocks for up to timeout waiting for any input socket to
// become readable, then reads and processes one datagram from each ready
// socket. A waitReady error is logged and swallowed so the caller can
// proceed straight to the timer/update phase, per §4.3's failure
// semantics.
func (r *Receiver) WaitForMessages(timeout time.Duration) {
	ready, err := r.poller.WaitReady(int(timeout / time.Millisecond))
	if err != nil {
		logErr("waitReady failed: %v", err)
		return
	}
	for _, sock := range ready {
		n, _, err := sock.Conn.ReadFromUDP(r.buf[:])
		if err != nil {
			logErr("receive on port %d failed: %v", sock.Port, err)
			continue
		}
		r.handleDatagram(r.buf[:n])
	}
}

func (r *Receiver) handleDatagram(data []byte) {
	if len(data) < packet.HeaderSize {
		logWarn("discarding %d-byte datagram shorter than header", len(data))
		return
	}
	resp, err := packet.Decode(data)
	if err != nil {
		logWarn("discarding malformed datagram: %v", err)
		return
	}
	cmd, _ := packet.CommandOf(data)
	ver, _ := packet.VersionOf(data)
	if cmd != packet.Command {
		logWarn("discarding datagram with unexpected command %d", cmd)
		return
	}
	if ver != packet.Version {
		logWarn("discarding datagram with unexpected version %d", ver)
		return
	}
	senderID := int(resp.SenderID)
	if !r.table.IsNeighbour(senderID) {
		logWarn("discarding datagram from non-neighbour %d", senderID)
		return
	}

	// The link itself is proof of reachability: (re)instate the direct
	// route to the sender before considering anything it's advertising.
	r.applyUpdate(senderID, senderID, 0)

	for _, e := range resp.Entries {
		destID, metricSent := int(e.DestID), int(e.Metric)
		if destID < MinRouterID || destID > MaxRouterID {
			logWarn("skipping entry with out-of-range destId %d from %d", destID, senderID)
			continue
		}
		if metricSent < 1 || metricSent > Infinity {
			logWarn("skipping entry for %d with out-of-range metric %d from %d", destID, metricSent, senderID)
			continue
		}
		r.applyUpdate(senderID, destID, metricSent)
	}
}

// applyUpdate is the distance-vector update rule: given an advertisement of
// destID at metricSent from senderID, decide whether to accept, replace,
// poison, or ignore the corresponding routing table entry.
func (r *Receiver) applyUpdate(senderID, destID, metricSent int) {
	if destID == r.routerID {
		return
	}
	metric := metricSent + r.table.MetricToNeighbour(senderID)
	if metric > Infinity {
		metric = Infinity
	}

	if !r.table.HasRoute(destID) {
		if metric != Infinity {
			r.table.AddEntry(destID, metric, senderID)
		}
		return
	}

	curMetric := r.table.Metric(destID)
	curNextHop := r.table.NextHop(destID)

	if senderID == curNextHop {
		r.table.ResetTimeout(destID)
	}

	betterMetric := metric < curMetric
	authoritativeChange := senderID == curNextHop && metric != curMetric
	if !betterMetric && !authoritativeChange {
		return
	}

	r.table.SetNextHop(destID, senderID)
	r.table.SetMetric(destID, metric)
	if metric == Infinity {
		r.table.StartDeletion(destID)
	} else {
		r.table.ResetTimeout(destID)
	}
}
