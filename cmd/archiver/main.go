package main

import (
	"context"
	"log"
	"os"

	"github.com/lucaslui/hems/event-pipeline/internal/archiver"
	"github.com/lucaslui/hems/event-pipeline/internal/broker"
	"github.com/lucaslui/hems/event-pipeline/internal/config"
	"github.com/lucaslui/hems/event-pipeline/internal/runtime"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.LoadArchiver()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runtime.SetupGracefulShutdown(cancel, logger)

	uploader, err := archiver.NewMinIOUploader(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOUseTLS, cfg.Bucket)
	if err != nil {
		logger.Fatalf("[boot] minio client failed: %v", err)
	}
	if err := uploader.EnsureBucket(ctx); err != nil {
		logger.Fatalf("[boot] minio ensure bucket failed: %v", err)
	}

	reader := broker.NewGroupReader(cfg.KafkaBrokers, cfg.GroupID, cfg.KafkaTopic, false)
	defer reader.Close()

	batcher := archiver.NewBatcher(cfg.MaxRecords, cfg.MaxInterval, uploader, cfg.BasePath)
	runner := archiver.NewRunner(reader, batcher, logger)

	logger.Printf("[boot] archiver group=%s topic=%s bucket=%s", cfg.GroupID, cfg.KafkaTopic, cfg.Bucket)
	runner.Run(ctx)
	logger.Println("archiver stopped")
}
