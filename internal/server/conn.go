package server

import (
	"context"
	"io"
	"net"
	"sync"

	"github.com/op/go-logging"

	"github.com/nikshvein/personhub/internal/domain"
	"github.com/nikshvein/personhub/internal/errs"
	"github.com/nikshvein/personhub/internal/frame"
	"github.com/nikshvein/personhub/internal/router"
	"github.com/nikshvein/personhub/internal/wire"
)

// conn is the per-connection state: a decoder plus the pools a request
// is processed on. The read loop processes one frame to completion
// (decode, route, encode, and write the response) before reading the
// next, so a connection's responses leave in the same order its
// requests arrived in even though each stage actually runs on a shared
// pool worker rather than this goroutine.
type conn struct {
	nc        net.Conn
	decoder   *frame.Decoder
	rt        *router.Router
	readPool  *Pool
	writePool *Pool
	log       *logging.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

func newConn(nc net.Conn, rt *router.Router, readPool, writePool *Pool) *conn {
	return &conn{
		nc:        nc,
		decoder:   frame.NewDecoder(),
		rt:        rt,
		readPool:  readPool,
		writePool: writePool,
		log:       logging.MustGetLogger("server.conn"),
		closed:    make(chan struct{}),
	}
}

// serve drives the connection's read loop until it ends, then closes
// the socket.
func (c *conn) serve() {
	c.readLoop()
	c.close()
}

func (c *conn) readLoop() {
	buf := make([]byte, 32*1024)
	for {
		n, err := c.nc.Read(buf)
		if n > 0 {
			payloads, ferr := c.decoder.Feed(buf[:n])
			for _, p := range payloads {
				if !c.process(p) {
					return
				}
			}
			if ferr != nil {
				c.log.Warningf("%s: %v", c.nc.RemoteAddr(), ferr)
				return
			}
		}
		if err != nil {
			if err == io.EOF && !c.decoder.AtMessageBoundary() {
				c.log.Warningf("%s: %v", c.nc.RemoteAddr(), frame.ErrTruncated())
			}
			return
		}
	}
}

// process decodes, routes, and encodes payload on the read pool, then
// writes the framed response on the write pool, waiting for each stage
// in turn. Because readLoop calls process once per frame and never
// starts frame N+1 before frame N's response has been written, requests
// on one connection are never reordered by the pools' own concurrency
// across other connections. It reports whether the connection should
// keep reading.
func (c *conn) process(payload []byte) bool {
	framed, ok := c.routeAndEncode(payload)
	if !ok {
		return false
	}
	return c.writeFramed(framed)
}

func (c *conn) routeAndEncode(payload []byte) ([]byte, bool) {
	result := make(chan []byte, 1)
	err := c.readPool.Submit(func() {
		req, err := wire.DecodeRequest(payload)
		resp := domain.Response{Message: "malformed request"}
		if err == nil {
			resp = c.rt.Route(context.Background(), req)
		}
		result <- frame.Encode(wire.EncodeResponse(resp))
	})
	if err != nil {
		c.log.Warningf("%s: %v, closing connection", c.nc.RemoteAddr(), errs.ErrBackpressure)
		c.close()
		return nil, false
	}

	select {
	case framed := <-result:
		return framed, true
	case <-c.closed:
		return nil, false
	}
}

func (c *conn) writeFramed(framed []byte) bool {
	done := make(chan error, 1)
	err := c.writePool.Submit(func() {
		_, werr := c.nc.Write(framed)
		done <- werr
	})
	if err != nil {
		c.log.Warningf("%s: %v, closing connection", c.nc.RemoteAddr(), errs.ErrBackpressure)
		c.close()
		return false
	}

	select {
	case werr := <-done:
		if werr != nil {
			c.log.Warningf("%s: write failed: %v", c.nc.RemoteAddr(), werr)
			c.close()
			return false
		}
		return true
	case <-c.closed:
		return false
	}
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.nc.Close()
	})
}
