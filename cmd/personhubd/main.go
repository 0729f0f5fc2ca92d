// Command personhubd is the server process: it loads its Postgres
// connection and listening port from the environment, wires the
// persistence gateway through to the connection manager, and serves
// connections until an administrative "exit" is typed on stdin.
package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/op/go-logging"

	"github.com/nikshvein/personhub/auth"
	"github.com/nikshvein/personhub/internal/collection"
	"github.com/nikshvein/personhub/internal/command"
	"github.com/nikshvein/personhub/internal/config"
	"github.com/nikshvein/personhub/internal/router"
	"github.com/nikshvein/personhub/internal/server"
	"github.com/nikshvein/personhub/internal/store"
)

const poolQueueSize = 256

var log = logging.MustGetLogger("personhubd")

func main() {
	os.Exit(run())
}

func run() int {
	configureLogging()
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gw, err := store.OpenPostgres(ctx, store.PostgresDSN(cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPassword))
	cancel()
	if err != nil {
		log.Errorf("database unavailable at startup: %v", err)
		return 1
	}
	defer gw.Close()

	coll, err := collection.New(context.Background(), gw)
	if err != nil {
		log.Errorf("load collection: %v", err)
		return 1
	}

	reg := command.NewRegistry()
	command.RegisterDefault(reg, coll)
	creds := auth.New(gw)
	rt := router.New(reg, creds)

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		log.Errorf("listen on port %d: %v", cfg.Port, err)
		return 1
	}

	poolWorkers := runtime.GOMAXPROCS(0)
	readPool := server.NewPool("read", poolWorkers, poolQueueSize)
	writePool := server.NewPool("write", poolWorkers, poolQueueSize)
	defer readPool.Close()
	defer writePool.Close()

	mgr := server.NewManager(ln, rt, readPool, writePool)
	go func() {
		if err := mgr.Serve(); err != nil {
			log.Infof("accept loop stopped: %v", err)
		}
	}()

	log.Infof("listening on port %d", cfg.Port)
	runConsole(mgr)
	return 0
}

// runConsole reads administrative commands from stdin until "exit" or
// EOF (including SIGINT/SIGTERM). "save" is accepted for protocol
// symmetry with the client but is a no-op under the write-through
// collection.
func runConsole(mgr *server.Manager) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-sig:
			shutdown(mgr)
			return
		case line, ok := <-lines:
			if !ok {
				shutdown(mgr)
				return
			}
			switch line {
			case "exit":
				shutdown(mgr)
				return
			case "save":
				fmt.Println("OK")
			default:
				fmt.Println("Unknown command")
			}
		}
	}
}

func shutdown(mgr *server.Manager) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mgr.Shutdown(ctx); err != nil {
		log.Warningf("shutdown: %v", err)
	}
}

func configureLogging() {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatter := logging.MustStringFormatter(
		`%{time:15:04:05.000} %{level:.4s} %{module}: %{message}`,
	)
	logging.SetBackend(logging.NewBackendFormatter(backend, formatter))
}
