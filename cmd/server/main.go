package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"homestead.ai/internal/persistence/indexdb"
	persistlog "homestead.ai/internal/persistence/log"
	"homestead.ai/internal/protocol"
	"homestead.ai/internal/sim/authority"
	"homestead.ai/internal/sim/tuning"
	"homestead.ai/internal/sim/world"
	"homestead.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite command index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", *tuningPath)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}
	if tune.ProtocolVersion != protocol.Version {
		logger.Printf("tuning protocol_version %q differs from built-in %q", tune.ProtocolVersion, protocol.Version)
	}

	_ = os.MkdirAll(*dataDir, 0o755)

	auth := authority.New(world.New(), logger)

	auditLog := persistlog.NewAuditLogger(*dataDir)
	defer auditLog.Close()

	var sinks []authority.AuditSink
	sinks = append(sinks, auditLog)

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(*dataDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index db: %v", err)
		}
		defer idx.Close()
		sinks = append(sinks, idx)
	}
	auth.SetAuditSink(auditFan(sinks))

	host := authority.NewHost(authority.Config{
		TickRateHz:   tune.TickRateHz,
		Seed:         tune.Seed,
		MaxSessions:  tune.MaxSessions,
		RequestBurst: tune.RequestBurst,
	}, auth, logger)
	if idx != nil {
		host.SetOnJoin(idx.RecordSession)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := host.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("host loop: %v", err)
		}
	}()

	wsSrv := ws.NewServer(host, ws.Config{
		OutQueueLen:    tune.OutQueueLen,
		HandshakeSecs:  tune.HandshakeSecs,
		ReadTimeoutSec: tune.ReadTimeoutSec,
	}, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws", wsSrv.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:    *addr,
		Handler: mux,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		logger.Printf("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()

	logger.Printf("listening on %s (tick_rate=%d)", *addr, tune.TickRateHz)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("listen: %v", err)
	}
}

// auditFan fans one audit entry out to every configured sink.
type auditFan []authority.AuditSink

func (f auditFan) WriteAudit(e authority.AuditEntry) error {
	var first error
	for _, s := range f {
		if err := s.WriteAudit(e); err != nil && first == nil {
			first = err
		}
	}
	return first
}
