package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/lucaslui/hems/event-pipeline/internal/api"
	"github.com/lucaslui/hems/event-pipeline/internal/broker"
	"github.com/lucaslui/hems/event-pipeline/internal/config"
	"github.com/lucaslui/hems/event-pipeline/internal/gateway"
	"github.com/lucaslui/hems/event-pipeline/internal/mqttin"
	"github.com/lucaslui/hems/event-pipeline/internal/runtime"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.LoadReceiver()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runtime.SetupGracefulShutdown(cancel, logger)

	policy := broker.RetryPolicy{
		MaxAttempts: cfg.RetryMaxAttempts,
		Delay:       broker.FixedDelay(cfg.RetryDelay),
	}

	if err := broker.EnsureTopic(ctx, cfg.KafkaBrokers[0], cfg.KafkaTopic, cfg.Partitions, cfg.Replication, logger); err != nil {
		logger.Printf("[boot] topic ensure failed (continuing, broker may create it): %v", err)
	}

	pub := broker.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	defer pub.Close()
	if err := pub.Connect(ctx, policy); err != nil {
		logger.Fatalf("[boot] kafka connection failed: %v", err)
	}

	var fwd gateway.Forwarder
	if cfg.ForwardURL != "" {
		fwd = gateway.NewHTTPForwarder(cfg.ForwardURL)
		logger.Printf("[boot] storage forward enabled: %s", cfg.ForwardURL)
	}

	gw := gateway.New(pub, fwd, policy, logger)

	if cfg.MQTTEnabled {
		client := mqttin.Build(mqttin.Options{
			BrokerURL: cfg.MQTTBrokerURL,
			ClientID:  cfg.MQTTClientID,
			Username:  cfg.MQTTUsername,
			Password:  cfg.MQTTPassword,
			Topic:     cfg.MQTTTopic,
			QoS:       cfg.MQTTQoS,
		}, gw, logger)
		go mqttin.ConnectWithBackoff(ctx, client, 2*time.Second, 30*time.Second, logger)
		defer client.Disconnect(250)
	}

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: api.NewReceiverMux(gw, logger)}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Printf("[boot] receiver listening on %s, topic=%s", cfg.HTTPAddr, cfg.KafkaTopic)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("http server error: %v", err)
	}
	logger.Println("receiver stopped")
}
