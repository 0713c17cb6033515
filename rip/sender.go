package rip

import (
	"context"
	"fmt"
	"net"

	"github.com/rekanorman/rip-assignment/iface"
	"github.com/rekanorman/rip-assignment/rip/packet"
)

// Sender owns the output socket and assembles per-neighbour advertisements
// with split horizon and poison reverse. Like the Receiver, it holds a
// shared, non-owning reference to the RoutingTable.
type Sender struct {
	routerID int
	table    *RoutingTable
	neigh    *neighbourSet
	conn     *net.UDPConn
}

// NewSender binds the single output socket used to advertise to every
// neighbour.
func NewSender(ctx context.Context, routerID, outputPort int, table *RoutingTable, neighbours []Neighbour) (*Sender, error) {
	neigh, err := newNeighbourSet(neighbours)
	if err != nil {
		return nil, err
	}
	conn, err := iface.LoopbackOutputSocket(ctx, outputPort)
	if err != nil {
		return nil, fmt.Errorf("rip: binding output port %d: %w", outputPort, err)
	}
	return &Sender{routerID: routerID, table: table, neigh: neigh, conn: conn}, nil
}

// Close releases the output socket.
func (s *Sender) Close() error {
	return s.conn.Close()
}

// SendUpdates builds one packet per neighbour, in configuration order, and
// transmits it to that neighbour's input port on loopback. A per-packet
// send failure is logged and never fatal.
func (s *Sender) SendUpdates() {
	for _, n := range s.neigh.All() {
		s.sendTo(n)
	}
}

func (s *Sender) sendTo(n Neighbour) {
	resp := s.buildAdvertisement(n.ID)
	buf, err := packet.Encode(resp)
	if err != nil {
		logErr("not sending update to %d: %v", n.ID, err)
		return
	}
	dst := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: n.InputPort}
	if _, err := s.conn.WriteToUDP(buf, dst); err != nil {
		logErr("could not send update to %d on port %d: %v", n.ID, n.InputPort, err)
	}
}

// buildAdvertisement assembles the response destined for neighbour id,
// applying split horizon with poison reverse: any route whose next hop is
// that neighbour is advertised back to it at Infinity.
func (s *Sender) buildAdvertisement(neighbourID int) *packet.Response {
	views := s.table.Entries()
	resp := &packet.Response{
		SenderID: uint16(s.routerID),
		Entries:  make([]packet.Entry, 0, len(views)),
	}
	for _, v := range views {
		metric := v.Metric
		if v.NextHop == neighbourID {
			metric = Infinity
		}
		resp.Entries = append(resp.Entries, packet.Entry{
			DestID: uint32(v.DestID),
			Metric: uint32(metric),
		})
	}
	return resp
}
