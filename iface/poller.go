package iface

import (
	"fmt"
	"net"
	"sync"

	"golang.org/x/sys/unix"
)

// Socket pairs a registered UDP connection with the file descriptor the
// poller watches on its behalf.
type Socket struct {
	Conn *net.UDPConn
	Port int
	fd   int
}

// Poller is a bounded-wait readiness multiplexer over a fixed set of UDP
// sockets, backed by epoll. It is the "OS-level readiness primitive"
// the daemon's event loop blocks in once per tick; it is not safe for
// concurrent use, which is fine because the daemon never calls it from more
// than one goroutine (see the single-threaded event loop in Daemon.Run).
type Poller struct {
	epfd int

	mu      sync.Mutex
	sockets map[int]*Socket
}

// NewPoller creates an empty epoll instance.
func NewPoller() (*Poller, error) {
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, fmt.Errorf("iface: epoll_create1: %w", err)
	}
	return &Poller{epfd: epfd, sockets: make(map[int]*Socket)}, nil
}

// Register adds conn to the set of sockets watched for readability.
func (p *Poller) Register(conn *net.UDPConn, port int) (*Socket, error) {
	rc, err := conn.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("iface: syscall conn: %w", err)
	}
	var fd int
	var ctlErr error
	err = rc.Control(func(f uintptr) { fd = int(f) })
	if err != nil {
		return nil, fmt.Errorf("iface: control: %w", err)
	}
	if ctlErr != nil {
		return nil, ctlErr
	}

	sock := &Socket{Conn: conn, Port: port, fd: fd}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return nil, fmt.Errorf("iface: epoll_ctl add fd %d: %w", fd, err)
	}

	p.mu.Lock()
	p.sockets[fd] = sock
	p.mu.Unlock()
	return sock, nil
}

// WaitReady blocks for up to timeoutMs milliseconds and returns the sockets
// that became readable. A timeoutMs of zero returns immediately; the
// daemon always passes a positive bound (§5: the only suspension point).
func (p *Poller) WaitReady(timeoutMs int) ([]*Socket, error) {
	events := make([]unix.EpollEvent, len(p.sockets))
	if len(events) == 0 {
		return nil, nil
	}
	n, err := unix.EpollWait(p.epfd, events, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, fmt.Errorf("iface: epoll_wait: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	ready := make([]*Socket, 0, n)
	for i := 0; i < n; i++ {
		if s, ok := p.sockets[int(events[i].Fd)]; ok {
			ready = append(ready, s)
		}
	}
	return ready, nil
}

// Close releases the epoll instance. It does not close the registered
// sockets; their owner (the Receiver) is responsible for that.
func (p *Poller) Close() error {
	return unix.Close(p.epfd)
}
