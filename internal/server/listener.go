// Package server is the connection manager (C8) and the I/O worker pools
// (C9). A single acceptor goroutine owns the listening socket; each
// accepted connection gets its own lightweight reader goroutine, which
// hands each frame's work to the read and write pools, instead of a
// second demultiplexing layer — Go's runtime
// netpoller already supplies the non-blocking, single-acceptor
// semantics the wire protocol's detail floor requires.
package server

import (
	"context"
	"net"
	"sync"

	"github.com/op/go-logging"

	"github.com/nikshvein/personhub/internal/router"
)

var log = logging.MustGetLogger("server")

// Manager accepts connections on a listener and drives them through a
// Router, using bounded worker pools for the actual decode/route/encode
// and write work.
type Manager struct {
	ln        net.Listener
	rt        *router.Router
	readPool  *Pool
	writePool *Pool

	conns sync.Map // net.Conn -> *conn
	wg    sync.WaitGroup
}

// NewManager returns a Manager that serves ln using rt, with the given
// worker pools for reads and writes.
func NewManager(ln net.Listener, rt *router.Router, readPool, writePool *Pool) *Manager {
	return &Manager{ln: ln, rt: rt, readPool: readPool, writePool: writePool}
}

// Serve runs the single acceptor loop until the listener is closed
// (typically by Shutdown). It always returns a non-nil error, matching
// net.Listener.Accept's contract.
func (m *Manager) Serve() error {
	for {
		nc, err := m.ln.Accept()
		if err != nil {
			return err
		}

		c := newConn(nc, m.rt, m.readPool, m.writePool)
		m.conns.Store(nc, c)
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			defer m.conns.Delete(nc)
			c.serve()
		}()
	}
}

// Shutdown closes the listener and every tracked connection, then waits
// for their goroutines to exit or for ctx to expire, whichever comes
// first.
func (m *Manager) Shutdown(ctx context.Context) error {
	if err := m.ln.Close(); err != nil {
		log.Warningf("close listener: %v", err)
	}

	m.conns.Range(func(_, value any) bool {
		value.(*conn).close()
		return true
	})

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
