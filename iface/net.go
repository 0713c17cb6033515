// Package iface holds the low-level, OS-facing primitives the core daemon
// is built on: non-blocking UDP sockets on loopback, and a bounded-wait
// readiness multiplexer over many of them at once.
package iface

import (
	"context"
	"fmt"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// ListenUDPNonBlocking binds a UDP socket to 127.0.0.1:port and puts it in
// non-blocking mode so reads never stall the single-threaded event loop.
func ListenUDPNonBlocking(ctx context.Context, port int) (*net.UDPConn, error) {
	lc := &net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var ctlErr error
			err := c.Control(func(fd uintptr) {
				ctlErr = unix.SetNonblock(int(fd), true)
			})
			if ctlErr != nil {
				return fmt.Errorf("iface: set nonblocking: %w", ctlErr)
			}
			return err
		},
	}
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	pc, err := lc.ListenPacket(ctx, "udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("iface: listen udp %s: %w", addr, err)
	}
	conn, ok := pc.(*net.UDPConn)
	if !ok {
		pc.Close()
		return nil, fmt.Errorf("iface: unexpected packet conn type %T", pc)
	}
	return conn, nil
}

// LoopbackOutputSocket opens the single UDP socket a router uses to send
// advertisements to all of its neighbours, bound to the configured output
// port on loopback.
func LoopbackOutputSocket(ctx context.Context, port int) (*net.UDPConn, error) {
	return ListenUDPNonBlocking(ctx, port)
}
