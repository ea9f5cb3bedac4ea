// Package mqttin is the optional broker-side inbound path for devices
// that publish over MQTT instead of HTTP. Messages are routed by topic
// suffix and pushed through the same ingestion gateway as the HTTP
// surface, so validation, trace ids and publish retry behave
// identically on both paths.
package mqttin

import (
	"context"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/lucaslui/hems/event-pipeline/internal/gateway"
)

type Options struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
	Topic     string // subscription filter, e.g. hems/events/#
	QoS       byte
}

// Build wires a paho client that feeds every message into the gateway.
// The topic's last segment names the event type (.../sensor_data).
func Build(opts Options, gw *gateway.Gateway, logger *log.Logger) mqtt.Client {
	h := func(_ mqtt.Client, msg mqtt.Message) {
		parts := strings.Split(msg.Topic(), "/")
		eventType := parts[len(parts)-1]

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		if _, err := gw.Ingest(ctx, eventType, msg.Payload()); err != nil {
			logger.Printf("[mqtt] ingest failed for topic %s: %v", msg.Topic(), err)
		}
	}

	copts := mqtt.NewClientOptions().
		AddBroker(opts.BrokerURL).
		SetClientID(opts.ClientID).
		SetOrderMatters(false).
		SetCleanSession(false).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	if opts.Username != "" {
		copts.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		copts.SetPassword(opts.Password)
	}

	copts.OnConnect = func(c mqtt.Client) {
		logger.Printf("[mqtt] connected to %s", opts.BrokerURL)
		if token := c.Subscribe(opts.Topic, opts.QoS, h); token.Wait() && token.Error() != nil {
			logger.Printf("[mqtt] subscribe error: %v", token.Error())
		} else {
			logger.Printf("[mqtt] subscribed to topic %s (qos %d)", opts.Topic, opts.QoS)
		}
	}
	copts.OnConnectionLost = func(c mqtt.Client, err error) {
		logger.Printf("[mqtt] connection lost: %v", err)
	}

	return mqtt.NewClient(copts)
}

// ConnectWithBackoff retries the initial connect with doubling delay
// until it succeeds or ctx ends. Reconnects after that are paho's job.
func ConnectWithBackoff(ctx context.Context, client mqtt.Client, start, max time.Duration, logger *log.Logger) {
	backoff := start
	for {
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			logger.Printf("[mqtt] connect error: %v; retrying in %s", token.Error(), backoff)
			select {
			case <-time.After(backoff):
				if backoff < max {
					backoff *= 2
				}
			case <-ctx.Done():
				logger.Printf("[mqtt] context cancelled before connect")
				return
			}
			continue
		}
		return
	}
}
