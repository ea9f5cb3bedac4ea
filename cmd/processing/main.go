package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/lucaslui/hems/event-pipeline/internal/api"
	"github.com/lucaslui/hems/event-pipeline/internal/config"
	"github.com/lucaslui/hems/event-pipeline/internal/processing"
	"github.com/lucaslui/hems/event-pipeline/internal/runtime"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.LoadProcessing()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runtime.SetupGracefulShutdown(cancel, logger)

	store := processing.NewFileStateStore(cfg.StateFile)
	query := processing.NewHTTPQueryClient(cfg.QueryURL)

	var snap processing.SnapshotWriter
	if cfg.InfluxURL != "" {
		iw := processing.NewInfluxSnapshotWriter(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket)
		defer iw.Close()
		snap = iw
		logger.Printf("[boot] influx snapshots enabled: %s bucket=%s", cfg.InfluxURL, cfg.InfluxBucket)
	}

	agg := processing.NewAggregator(store, query, snap, logger)
	go agg.Run(ctx, cfg.Period)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: api.NewProcessingMux(store, logger)}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Printf("[boot] processing listening on %s, period=%s store=%s", cfg.HTTPAddr, cfg.Period, cfg.StateFile)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("http server error: %v", err)
	}
	logger.Println("processing stopped")
}
