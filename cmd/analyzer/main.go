package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/lucaslui/hems/event-pipeline/internal/analyzer"
	"github.com/lucaslui/hems/event-pipeline/internal/api"
	"github.com/lucaslui/hems/event-pipeline/internal/broker"
	"github.com/lucaslui/hems/event-pipeline/internal/config"
	"github.com/lucaslui/hems/event-pipeline/internal/runtime"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.LoadAnalyzer()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runtime.SetupGracefulShutdown(cancel, logger)

	open := func(ctx context.Context) (analyzer.EventStream, error) {
		return broker.OpenReplayStream(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.IdleTimeout), nil
	}
	reader := analyzer.NewReader(open, logger)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: api.NewAnalyzerMux(reader, logger)}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Printf("[boot] analyzer listening on %s, topic=%s", cfg.HTTPAddr, cfg.KafkaTopic)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("http server error: %v", err)
	}
	logger.Println("analyzer stopped")
}
