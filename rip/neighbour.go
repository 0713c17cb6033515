package rip

import "fmt"

// Neighbour is an immutable descriptor for a pre-configured point-to-point
// link declared in the outputs directive of the config file. Unlike OSPF,
// RIP neighbours are never discovered dynamically: the full set is fixed at
// startup and never mutated afterward (invariant 5).
type Neighbour struct {
	// ID is the neighbour's router ID.
	ID int
	// LinkMetric is the cost of the direct link to this neighbour.
	LinkMetric int
	// InputPort is the neighbour's own input port; advertisements destined
	// for it are sent to 127.0.0.1:InputPort.
	InputPort int
}

// neighbourSet holds the fixed neighbour table for a router. The
// RoutingTable and the Sender each build their own copy at startup from the
// configured neighbours and only ever read it afterwards.
type neighbourSet struct {
	order []Neighbour
	byID  map[int]Neighbour
}

func newNeighbourSet(neighbours []Neighbour) (*neighbourSet, error) {
	s := &neighbourSet{
		order: make([]Neighbour, len(neighbours)),
		byID:  make(map[int]Neighbour, len(neighbours)),
	}
	copy(s.order, neighbours)
	for _, n := range neighbours {
		if _, dup := s.byID[n.ID]; dup {
			return nil, fmt.Errorf("rip: duplicate neighbour id %d", n.ID)
		}
		s.byID[n.ID] = n
	}
	return s, nil
}

// Has reports whether id names a configured neighbour.
func (s *neighbourSet) Has(id int) bool {
	_, ok := s.byID[id]
	return ok
}

// LinkMetric returns the cost of the direct link to neighbour id. It
// assumes id is a known neighbour; callers must check Has first.
func (s *neighbourSet) LinkMetric(id int) int {
	return s.byID[id].LinkMetric
}

// All returns the neighbours in configuration (insertion) order, the order
// the Sender must use when emitting per-neighbour advertisements.
func (s *neighbourSet) All() []Neighbour {
	return s.order
}
