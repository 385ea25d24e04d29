package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"smartkyc/internal/audit"
	kafkasink "smartkyc/internal/audit/kafka"
	"smartkyc/internal/auth"
	providermem "smartkyc/internal/auth/provider/memory"
	blobmem "smartkyc/internal/blob/memory"
	"smartkyc/internal/directory"
	dirmem "smartkyc/internal/directory/store/memory"
	dirpg "smartkyc/internal/directory/store/postgres"
	"smartkyc/internal/domain"
	"smartkyc/internal/evidence"
	"smartkyc/internal/evidence/store/lru"
	"smartkyc/internal/evidence/store/redisstore"
	"smartkyc/internal/platform/config"
	"smartkyc/internal/platform/httpserver"
	"smartkyc/internal/platform/logger"
	"smartkyc/internal/platform/metrics"
	platformredis "smartkyc/internal/platform/redis"
	httptransport "smartkyc/internal/transport/http"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Record store: postgres when a DSN is configured, in-memory otherwise.
	var recordStore domain.RecordStore
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		pg := dirpg.New(db, cfg.PostgresDSN, log)
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		recordStore = pg
		log.Info("using postgres record store")
	} else {
		recordStore = dirmem.New()
		log.Info("using in-memory record store")
	}

	// Evidence cache entries: redis when configured, process-local LRU
	// otherwise.
	var entryStore evidence.EntryStore
	rdb, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		entryStore = redisstore.New(rdb)
		log.Info("using redis evidence cache store")
	} else {
		entryStore = lru.New(1024)
	}

	// Admin events flow through a worker so domain code never blocks on the
	// sink. The Kafka sink is optional; the process log always gets a copy.
	sink := audit.MultiSink{audit.NewSlogSink(log)}
	if len(cfg.KafkaBrokers) > 0 {
		ks, err := kafkasink.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer ks.Close()
		sink = append(sink, ks)
		log.Info("kafka event sink enabled", "topic", cfg.KafkaTopic)
	}
	inbox := make(audit.ChanSink, 256)
	publisher := audit.NewPublisher(inbox)
	worker := audit.NewWorker(sink, inbox)

	blobs := blobmem.New()
	cache := evidence.NewCache(blobs, entryStore, log, m)
	syncer := directory.NewSyncer(recordStore, log, m)
	provider := providermem.New(cfg.JWTSigningKey, cfg.SessionTTL)
	defer provider.Close()

	gate := auth.NewGate(provider, recordStore, syncer, cache,
		func(records []domain.VerificationRecord) {
			log.Debug("directory snapshot", "records", len(records))
		},
		publisher, log, m)
	unbind := gate.Bind()
	defer unbind()

	service := directory.NewService(recordStore, blobs, cache, publisher, log, m)
	bootstrap := auth.NewBootstrap(provider, recordStore, publisher, log)

	if cfg.DevAdminEmail != "" {
		if _, err := bootstrap.CreateAdmin(ctx, cfg.DevAdminEmail, cfg.DevAdminPassword); err != nil {
			return err
		}
		log.Info("seeded dev admin", "email", cfg.DevAdminEmail)
	}

	handler := httptransport.NewHandler(gate, syncer, service, cache, bootstrap, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting smartkyc admin server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := gate.Logout(shutdownCtx); err != nil {
			log.Warn("logout on shutdown", "error", err)
		}
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
