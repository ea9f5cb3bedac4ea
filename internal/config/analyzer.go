package config

import (
	"strings"
	"time"
)

type Analyzer struct {
	HTTPAddr string

	KafkaBrokers string
	KafkaTopic   string

	IdleTimeout time.Duration
}

func LoadAnalyzer() (*Analyzer, error) {
	brokers, err := checkBrokers(getenv("KAFKA_BROKERS", "localhost:9092"))
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		HTTPAddr: getenv("HTTP_ADDR", ":8110"),

		KafkaBrokers: strings.Join(brokers, ","),
		KafkaTopic:   getenv("KAFKA_TOPIC", "events"),

		IdleTimeout: time.Duration(getenvInt("REPLAY_IDLE_TIMEOUT_MS", 1000)) * time.Millisecond,
	}, nil
}
