//go:build linux

package ws

import (
	"net"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// waitBatchSize caps how many ready descriptors a single Wait call returns.
const waitBatchSize = 128

// Epoll multiplexes reads across every live WebSocket over a single kernel
// interest list, so the relay holds tens of thousands of idle channels
// without a goroutine per connection.
type Epoll struct {
	fd    int
	mu    sync.RWMutex
	conns map[int]net.Conn // keyed by socket fd
	ready []unix.EpollEvent
}

// NewEpoll creates the epoll instance via epoll_create1.
func NewEpoll() (*Epoll, error) {
	fd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, err
	}
	return &Epoll{
		fd:    fd,
		conns: make(map[int]net.Conn),
		ready: make([]unix.EpollEvent, waitBatchSize),
	}, nil
}

// Add puts a connection on the interest list. EPOLLRDHUP is included so a
// peer half-close wakes the event loop instead of lingering until the
// heartbeat sweep evicts the channel.
func (e *Epoll) Add(conn net.Conn) error {
	fd := socketFD(conn)
	err := unix.EpollCtl(e.fd, syscall.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
		Events: unix.EPOLLIN | unix.EPOLLHUP | unix.EPOLLRDHUP,
		Fd:     int32(fd),
	})
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.conns[fd] = conn
	e.mu.Unlock()
	return nil
}

// Remove takes a connection off the interest list and forgets its fd.
func (e *Epoll) Remove(conn net.Conn) error {
	fd := socketFD(conn)
	if err := unix.EpollCtl(e.fd, syscall.EPOLL_CTL_DEL, fd, nil); err != nil {
		return err
	}

	e.mu.Lock()
	delete(e.conns, fd)
	e.mu.Unlock()
	return nil
}

// Wait blocks until at least one registered connection is readable and
// returns those connections. An fd that raced a Remove between the kernel
// wakeup and the map lookup is skipped.
func (e *Epoll) Wait() ([]net.Conn, error) {
	n, err := unix.EpollWait(e.fd, e.ready, -1)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	conns := make([]net.Conn, 0, n)
	for i := 0; i < n; i++ {
		if conn, ok := e.conns[int(e.ready[i].Fd)]; ok {
			conns = append(conns, conn)
		}
	}
	return conns, nil
}

// Close releases the epoll file descriptor.
func (e *Epoll) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.conns = nil
	return unix.Close(e.fd)
}

// socketFD pulls the raw fd out of a net.Conn without duplicating it the way
// File() would, so the fd epoll watches is the one the connection still owns.
func socketFD(conn net.Conn) int {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return -1
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return -1
	}
	fd := -1
	_ = raw.Control(func(sfd uintptr) {
		fd = int(sfd)
	})
	return fd
}
