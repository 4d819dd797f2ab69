package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vctt94/bisonbotkit/logging"

	"github.com/vctt94/uno-go/pkg/server"
)

func main() {
	var (
		dbPath     string
		host       string
		port       int
		seed       int64
		banSecret  string
		debugLevel string
		logFile    string
	)
	flag.StringVar(&dbPath, "db", "", "Path to SQLite database file (created if missing)")
	flag.StringVar(&host, "host", "0.0.0.0", "Host to listen on")
	flag.IntVar(&port, "port", 9999, "Port to listen on")
	flag.Int64Var(&seed, "seed", 0, "Deterministic RNG seed for decks (0 = random)")
	flag.StringVar(&banSecret, "bansecret", "", "Secret for the IP ban endpoints (empty disables them)")
	flag.StringVar(&debugLevel, "debuglevel", "info", "Logging level: trace, debug, info, warn, error")
	flag.StringVar(&logFile, "logfile", "", "Path to log file (empty logs to stdout)")
	flag.Parse()

	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "uno.sqlite")
	}

	db, err := server.NewDatabase(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init db: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	logBackend, err := logging.NewLogBackend(logging.LogConfig{
		LogFile:    logFile,
		DebugLevel: debugLevel,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logging: %v\n", err)
		os.Exit(1)
	}
	defer logBackend.Close()
	log := logBackend.Logger("MAIN")

	unoSrv, err := server.NewServer(server.Config{
		DB:         db,
		LogBackend: logBackend,
		Seed:       seed,
		BanSecret:  banSecret,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init server: %v\n", err)
		os.Exit(1)
	}

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      unoSrv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Listening on %s", httpSrv.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Infof("Received %v, shutting down", sig)
	case err := <-errCh:
		log.Errorf("HTTP server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Errorf("Shutdown error: %v", err)
	}
	unoSrv.Stop()
}
