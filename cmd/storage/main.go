package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/lucaslui/hems/event-pipeline/internal/api"
	"github.com/lucaslui/hems/event-pipeline/internal/broker"
	"github.com/lucaslui/hems/event-pipeline/internal/config"
	"github.com/lucaslui/hems/event-pipeline/internal/consumer"
	"github.com/lucaslui/hems/event-pipeline/internal/runtime"
	"github.com/lucaslui/hems/event-pipeline/internal/sink"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.LoadStorage()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runtime.SetupGracefulShutdown(cancel, logger)

	store, err := sink.OpenMySQL(cfg.MySQLDSN, logger)
	if err != nil {
		logger.Fatalf("[boot] mysql open failed: %v", err)
	}
	defer store.Close()

	policy := broker.RetryPolicy{
		MaxAttempts: cfg.ConnectMaxAttempts,
		Delay:       broker.FixedDelay(cfg.ConnectDelay),
	}
	if err := store.Connect(ctx, policy); err != nil {
		logger.Fatalf("[boot] mysql connection failed: %v", err)
	}
	if err := store.EnsureTables(ctx); err != nil {
		logger.Fatalf("[boot] mysql ensure tables failed: %v", err)
	}

	var writeSink sink.Sink = store
	if cfg.DedupEnabled {
		deduper := sink.NewRedisDeduper(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.DedupTTL)
		defer deduper.Close()
		writeSink = sink.WithDedup(store, deduper, logger)
		logger.Printf("[boot] trace-id dedup enabled via redis %s", cfg.RedisAddr)
	}

	reader := broker.NewGroupReader(cfg.KafkaBrokers, cfg.GroupID, cfg.KafkaTopic, cfg.SkipBacklog)
	defer reader.Close()

	loop := consumer.NewLoop(reader, writeSink, logger)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		loop.Run(ctx)
	}()

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: api.NewStorageMux(store, logger)}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Printf("[boot] storage listening on %s, group=%s topic=%s", cfg.HTTPAddr, cfg.GroupID, cfg.KafkaTopic)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("http server error: %v", err)
	}

	// Let the consumer finish its in-flight record before exiting.
	wg.Wait()
	logger.Println("storage stopped")
}
