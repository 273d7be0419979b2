//go:build linux

package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"github.com/filewire/filewire/internal/logger"
	"github.com/filewire/filewire/pkg/audit"
	"github.com/filewire/filewire/pkg/metrics"
	"github.com/filewire/filewire/pkg/store"
)

const (
	scratchBufSize = 64 * 1024
	listenBacklog  = 128
	// epollTimeoutMs bounds each epoll_wait call so Run can observe context
	// cancellation promptly; the protocol itself has no notion of a timeout.
	epollTimeoutMs = 200
)

// connState tracks the epoll registration alongside a Connection.
type connState struct {
	fd            int
	conn          *Connection
	writeInterest bool
	pendingClose  bool
}

// Dispatcher is the readiness dispatcher (C4): it owns the listening
// socket, the map from file descriptor to live Connection, and the
// level-triggered epoll instance used to learn about readiness.
type Dispatcher struct {
	epfd     int
	listenFd int
	store    store.FileStore
	recvCap  int
	metrics  metrics.ServerMetrics
	audit    *audit.Recorder

	conns    map[int]*connState
	runnable []int
	nextID   uint64
}

// SetMetrics installs the ServerMetrics sink new connections report
// against. Must be called before Run; existing connections are unaffected.
func (d *Dispatcher) SetMetrics(m metrics.ServerMetrics) {
	d.metrics = m
}

// SetAudit installs the Recorder new connections log dispatched requests
// to. Must be called before Run; existing connections are unaffected.
func (d *Dispatcher) SetAudit(r *audit.Recorder) {
	d.audit = r
}

// NewDispatcher creates the epoll instance backing a Dispatcher. Listen
// must be called before Run.
func NewDispatcher(st store.FileStore, recvCap int) (*Dispatcher, error) {
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}
	return &Dispatcher{
		epfd:    epfd,
		store:   st,
		recvCap: recvCap,
		conns:   make(map[int]*connState),
	}, nil
}

// Listen creates, binds, and registers the listening socket in
// non-blocking mode. addr is a "host:port" IPv4 address.
func (d *Dispatcher) Listen(addr string) error {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return fmt.Errorf("socket: %w", err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}

	ip, port, err := resolveIPv4(addr)
	if err != nil {
		unix.Close(fd)
		return err
	}

	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: port, Addr: ip}); err != nil {
		unix.Close(fd)
		return fmt.Errorf("bind %s: %w", addr, err)
	}
	if err := unix.Listen(fd, listenBacklog); err != nil {
		unix.Close(fd)
		return fmt.Errorf("listen: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return fmt.Errorf("set nonblock: %w", err)
	}

	if err := unix.EpollCtl(d.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}); err != nil {
		unix.Close(fd)
		return fmt.Errorf("epoll_ctl add listener: %w", err)
	}

	d.listenFd = fd
	return nil
}

func resolveIPv4(addr string) (ip [4]byte, port int, err error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp4", addr)
	if err != nil {
		return ip, 0, err
	}
	if tcpAddr.IP == nil {
		// No host part (e.g. ":9090"): bind every IPv4 interface.
		return ip, tcpAddr.Port, nil
	}
	ip4 := tcpAddr.IP.To4()
	if ip4 == nil {
		return ip, 0, fmt.Errorf("address %q is not IPv4", addr)
	}
	copy(ip[:], ip4)
	return ip, tcpAddr.Port, nil
}

// Run blocks until ctx is cancelled or a fatal epoll error occurs.
func (d *Dispatcher) Run(ctx context.Context) error {
	events := make([]unix.EpollEvent, 64)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := unix.EpollWait(d.epfd, events, epollTimeoutMs)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("epoll_wait: %w", err)
		}

		// Ordering: process write-ready before read-ready for the same
		// client so back-pressure drains before admitting new work.
		for _, ev := range events[:n] {
			fd := int(ev.Fd)
			if fd == d.listenFd {
				continue
			}
			if ev.Events&unix.EPOLLOUT != 0 {
				d.handleWritable(fd)
			}
		}
		for _, ev := range events[:n] {
			fd := int(ev.Fd)
			if fd == d.listenFd {
				if ev.Events&unix.EPOLLIN != 0 {
					d.acceptAll(ctx)
				}
				continue
			}
			if ev.Events&unix.EPOLLIN != 0 {
				d.handleReadable(ctx, fd)
			}
		}

		d.drainRunnable(ctx)
	}
}

// acceptAll drains every connection pending on the listener; a
// level-triggered listener can have more than one pending peer per event.
func (d *Dispatcher) acceptAll(ctx context.Context) {
	for {
		fd, sa, err := unix.Accept4(d.listenFd, unix.SOCK_NONBLOCK)
		if err != nil {
			if err == unix.EAGAIN {
				return
			}
			logger.WarnCtx(ctx, "accept failed", logger.Err(err))
			return
		}

		d.nextID++
		id := fmt.Sprintf("conn-%d", d.nextID)
		peer := peerString(sa)
		conn := NewConnection(id, peer, d.store, d.recvCap)
		conn.SetMetrics(d.metrics)
		conn.SetAudit(d.audit)
		d.conns[fd] = &connState{fd: fd, conn: conn}
		metrics.ConnectionOpened(d.metrics)

		if err := unix.EpollCtl(d.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}); err != nil {
			logger.WarnCtx(ctx, "epoll_ctl add connection failed", logger.Err(err))
			unix.Close(fd)
			delete(d.conns, fd)
			continue
		}

		connCtx := logger.WithContext(ctx, logger.NewLogContext(id, peer))
		logger.InfoCtx(connCtx, "connection accepted")
	}
}

func peerString(sa unix.Sockaddr) string {
	if a, ok := sa.(*unix.SockaddrInet4); ok {
		return fmt.Sprintf("%s:%d", net.IP(a.Addr[:]).String(), a.Port)
	}
	return "unknown"
}

func (d *Dispatcher) handleReadable(ctx context.Context, fd int) {
	cs, ok := d.conns[fd]
	if !ok {
		return
	}

	buf := make([]byte, scratchBufSize)
	n, err := unix.Read(fd, buf)
	switch {
	case errors.Is(err, unix.EAGAIN):
		return
	case err != nil:
		d.closeConn(fd)
		return
	case n == 0:
		d.closeConn(fd)
		return
	}

	connCtx := logger.WithContext(ctx, logger.NewLogContext(cs.conn.ID, cs.conn.Peer))

	if reason := cs.conn.AppendRecv(buf[:n]); reason != NoClose {
		d.afterStep(fd, reason)
		return
	}

	d.afterStep(fd, cs.conn.Step(connCtx))
}

// afterStep applies the consequences of a Step/AppendRecv outcome: arming
// write-readiness if a response is now pending, closing immediately if
// nothing remains to drain, or re-queuing the connection for another
// round of draining if recv_acc still holds a full line.
func (d *Dispatcher) afterStep(fd int, reason CloseReason) {
	cs, ok := d.conns[fd]
	if !ok {
		return
	}

	if cs.conn.WantsWrite() {
		d.setInterest(fd, true)
	}

	switch reason {
	case CloseAfterDrain:
		cs.pendingClose = true
		if !cs.conn.WantsWrite() {
			d.closeConn(fd)
		}
	case ClosePeerClosed, CloseTransportError:
		d.closeConn(fd)
	default:
		if cs.conn.HasPendingLine() {
			d.runnable = append(d.runnable, fd)
		}
	}
}

// drainRunnable processes one buffered line per still-runnable connection,
// round-robin, until none has a complete line left. This satisfies
// single-request-per-wake fairness while fully draining a pipelined
// segment within the same reactor tick, without any socket I/O.
func (d *Dispatcher) drainRunnable(ctx context.Context) {
	for len(d.runnable) > 0 {
		pending := d.runnable
		d.runnable = nil

		for _, fd := range pending {
			cs, ok := d.conns[fd]
			if !ok {
				continue
			}
			connCtx := logger.WithContext(ctx, logger.NewLogContext(cs.conn.ID, cs.conn.Peer))
			d.afterStep(fd, cs.conn.Step(connCtx))
		}
	}
}

func (d *Dispatcher) handleWritable(fd int) {
	cs, ok := d.conns[fd]
	if !ok {
		return
	}

	buf := cs.conn.PeekSend()
	if len(buf) == 0 {
		d.setInterest(fd, false)
		return
	}

	n, err := unix.Write(fd, buf)
	switch {
	case errors.Is(err, unix.EAGAIN):
		return
	case err != nil:
		d.closeConn(fd)
		return
	}

	cs.conn.Sent(n)
	if cs.conn.WantsWrite() {
		return
	}
	if cs.pendingClose {
		d.closeConn(fd)
		return
	}
	d.setInterest(fd, false)
}

func (d *Dispatcher) setInterest(fd int, write bool) {
	cs, ok := d.conns[fd]
	if !ok || cs.writeInterest == write {
		return
	}
	events := uint32(unix.EPOLLIN)
	if write {
		events |= unix.EPOLLOUT
	}
	cs.writeInterest = write
	_ = unix.EpollCtl(d.epfd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{Events: events, Fd: int32(fd)})
}

func (d *Dispatcher) closeConn(fd int) {
	if _, ok := d.conns[fd]; !ok {
		return
	}
	delete(d.conns, fd)
	metrics.ConnectionClosed(d.metrics)
	if err := unix.EpollCtl(d.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		logger.Warn("epoll_ctl del failed", logger.Err(err))
	}
	if err := unix.Close(fd); err != nil {
		logger.Warn("close failed", logger.Err(err))
	}
}

// Close tears down every live connection and the listening socket.
// Failures are swallowed with a log, per §4.4.
func (d *Dispatcher) Close() {
	for fd := range d.conns {
		d.closeConn(fd)
	}
	if d.listenFd != 0 {
		_ = unix.EpollCtl(d.epfd, unix.EPOLL_CTL_DEL, d.listenFd, nil)
		if err := unix.Close(d.listenFd); err != nil {
			logger.Warn("close listener failed", logger.Err(err))
		}
	}
	if err := unix.Close(d.epfd); err != nil {
		logger.Warn("close epoll instance failed", logger.Err(err))
	}
}
