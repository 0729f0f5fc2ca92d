package server_test

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/nikshvein/personhub/auth"
	"github.com/nikshvein/personhub/internal/collection"
	"github.com/nikshvein/personhub/internal/command"
	"github.com/nikshvein/personhub/internal/domain"
	"github.com/nikshvein/personhub/internal/frame"
	"github.com/nikshvein/personhub/internal/router"
	"github.com/nikshvein/personhub/internal/server"
	"github.com/nikshvein/personhub/internal/store"
	"github.com/nikshvein/personhub/internal/wire"
)

func startTestServer(t *testing.T) (net.Addr, string, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	gw, err := store.OpenSQLiteForTest(path)
	if err != nil {
		t.Fatalf("open gateway: %v", err)
	}
	t.Cleanup(func() { gw.Close() })

	credSvc := auth.New(gw)
	const username, password = "alice", "s3cret!"
	if _, _, err := credSvc.Register(context.Background(), username, password); err != nil {
		t.Fatalf("register: %v", err)
	}

	coll, err := collection.New(context.Background(), gw)
	if err != nil {
		t.Fatalf("new collection: %v", err)
	}
	reg := command.NewRegistry()
	command.RegisterDefault(reg, coll)
	rt := router.New(reg, credSvc)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	readPool := server.NewPool("read", 4, 64)
	writePool := server.NewPool("write", 4, 64)
	t.Cleanup(func() { readPool.Close(); writePool.Close() })

	mgr := server.NewManager(ln, rt, readPool, writePool)
	go mgr.Serve()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		mgr.Shutdown(ctx)
	})

	return ln.Addr(), username, password
}

// responseReader decodes a stream of framed responses off nc, keeping
// any payloads decoded ahead of demand so pipelined responses arriving
// in one Read are not dropped between calls.
type responseReader struct {
	nc      net.Conn
	dec     *frame.Decoder
	pending [][]byte
}

func newResponseReader(nc net.Conn) *responseReader {
	return &responseReader{nc: nc, dec: frame.NewDecoder()}
}

func (r *responseReader) next(t *testing.T) domain.Response {
	t.Helper()
	buf := make([]byte, 4096)
	for len(r.pending) == 0 {
		n, err := r.nc.Read(buf)
		if err != nil {
			t.Fatalf("read response: %v", err)
		}
		payloads, ferr := r.dec.Feed(buf[:n])
		if ferr != nil {
			t.Fatalf("feed: %v", ferr)
		}
		r.pending = append(r.pending, payloads...)
	}
	payload := r.pending[0]
	r.pending = r.pending[1:]
	resp, err := wire.DecodeResponse(payload)
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func sendRequest(t *testing.T, nc net.Conn, req domain.Request) domain.Response {
	t.Helper()
	if _, err := nc.Write(frame.Encode(wire.EncodeRequest(req))); err != nil {
		t.Fatalf("write request: %v", err)
	}
	return newResponseReader(nc).next(t)
}

func TestServerRoundTripsOneRequest(t *testing.T) {
	addr, username, password := startTestServer(t)

	nc, err := net.DialTimeout("tcp", addr.String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer nc.Close()

	resp := sendRequest(t, nc, domain.Request{
		Command:     "help",
		Credentials: domain.Credentials{Username: username, Password: password},
	})
	if resp.Message == "" {
		t.Fatal("expected a non-empty help listing")
	}
}

func TestServerPreservesResponseOrderUnderPipelining(t *testing.T) {
	addr, username, password := startTestServer(t)

	nc, err := net.DialTimeout("tcp", addr.String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer nc.Close()

	p1 := domain.Person{
		Name: "P1", Coordinates: domain.Coordinates{X: 1, Y: 1},
		Height: 170, Weight: 70, HairColor: domain.HairGreen, Nationality: domain.NationalityUSA,
		Location: domain.Location{X: 0},
	}
	p2 := p1
	p2.Name = "P2"

	creds := domain.Credentials{Username: username, Password: password}
	payloads := [][]byte{
		frame.Encode(wire.EncodeRequest(domain.Request{Command: "add", Persons: []domain.Person{p1}, Credentials: creds})),
		frame.Encode(wire.EncodeRequest(domain.Request{Command: "add", Persons: []domain.Person{p2}, Credentials: creds})),
		frame.Encode(wire.EncodeRequest(domain.Request{Command: "show", Credentials: creds})),
	}
	for _, p := range payloads {
		if _, err := nc.Write(p); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	reader := newResponseReader(nc)
	first := reader.next(t)
	second := reader.next(t)
	third := reader.next(t)

	if len(first.Persons) != 1 || first.Persons[0].Name != "P1" {
		t.Fatalf("expected first response to echo P1, got %+v", first)
	}
	if len(second.Persons) != 1 || second.Persons[0].Name != "P2" {
		t.Fatalf("expected second response to echo P2, got %+v", second)
	}
	if len(third.Persons) != 2 || third.Persons[0].Name != "P1" || third.Persons[1].Name != "P2" {
		t.Fatalf("expected third response's show to contain [P1, P2] in order, got %+v", third)
	}
}
