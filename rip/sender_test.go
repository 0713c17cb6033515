package rip

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/rekanorman/rip-assignment/rip/packet"
)

// listenEphemeral opens a plain UDP socket on loopback with an OS-assigned
// port, standing in for a neighbour's input socket in these tests.
func listenEphemeral(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listening on ephemeral port: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readResponse(t *testing.T, conn *net.UDPConn) *packet.Response {
	t.Helper()
	buf := make([]byte, packet.MaxPacketSize)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("reading advertisement: %v", err)
	}
	resp, err := packet.Decode(buf[:n])
	if err != nil {
		t.Fatalf("decoding advertisement: %v", err)
	}
	return resp
}

func entryFor(t *testing.T, resp *packet.Response, destID int) packet.Entry {
	t.Helper()
	for _, e := range resp.Entries {
		if int(e.DestID) == destID {
			return e
		}
	}
	t.Fatalf("no entry for destId %d in %+v", destID, resp.Entries)
	return packet.Entry{}
}

func TestSendUpdatesAppliesSplitHorizonWithPoisonReverse(t *testing.T) {
	n2 := listenEphemeral(t)
	n3 := listenEphemeral(t)
	port2 := n2.LocalAddr().(*net.UDPAddr).Port
	port3 := n3.LocalAddr().(*net.UDPAddr).Port

	trig := &countingTrigger{}
	neighbours := []Neighbour{
		{ID: 2, LinkMetric: 1, InputPort: port2},
		{ID: 3, LinkMetric: 5, InputPort: port3},
	}
	table, err := NewRoutingTable(1, neighbours, time.Second, trig)
	if err != nil {
		t.Fatalf("NewRoutingTable: %v", err)
	}
	// A route to a far destination reachable only via neighbour 2.
	table.AddEntry(9, 3, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sender, err := NewSender(ctx, 1, 0, table, neighbours)
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}
	defer sender.Close()

	sender.SendUpdates()

	respTo2 := readResponse(t, n2)
	respTo3 := readResponse(t, n3)

	// Neighbour 2 is the next hop for destId 9: poisoned back to it.
	if got := entryFor(t, respTo2, 9).Metric; got != Infinity {
		t.Fatalf("got metric %d advertised to next hop, want %d (poison reverse)", got, Infinity)
	}
	// Neighbour 3 is not on the path: advertised at the real metric.
	if got := entryFor(t, respTo3, 9).Metric; got != 3 {
		t.Fatalf("got metric %d advertised to non-next-hop neighbour, want 3", got)
	}

	// Each neighbour's own directly-attached route is poisoned back to it too.
	if got := entryFor(t, respTo2, 2).Metric; got != Infinity {
		t.Fatalf("got metric %d for neighbour 2's own route advertised back to it, want %d", got, Infinity)
	}
	if got := entryFor(t, respTo3, 3).Metric; got != Infinity {
		t.Fatalf("got metric %d for neighbour 3's own route advertised back to it, want %d", got, Infinity)
	}
	// But neighbour 2 sees neighbour 3's route at its real metric, and vice versa.
	if got := entryFor(t, respTo2, 3).Metric; got != 5 {
		t.Fatalf("got metric %d for neighbour 3's route advertised to neighbour 2, want 5", got)
	}
	if got := entryFor(t, respTo3, 2).Metric; got != 1 {
		t.Fatalf("got metric %d for neighbour 2's route advertised to neighbour 3, want 1", got)
	}

	if respTo2.SenderID != 1 || respTo3.SenderID != 1 {
		t.Fatalf("expected every advertisement to carry the sending router's own id")
	}
}
