package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

type Storage struct {
	HTTPAddr string

	KafkaBrokers string
	KafkaTopic   string
	GroupID      string
	SkipBacklog  bool

	MySQLDSN string

	DedupEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DedupTTL      time.Duration

	ConnectMaxAttempts int
	ConnectDelay       time.Duration
}

func LoadStorage() (*Storage, error) {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		return nil, errors.New("MYSQL_DSN must not be empty")
	}
	brokers, err := checkBrokers(getenv("KAFKA_BROKERS", "localhost:9092"))
	if err != nil {
		return nil, err
	}
	return &Storage{
		HTTPAddr: getenv("HTTP_ADDR", ":8090"),

		KafkaBrokers: strings.Join(brokers, ","),
		KafkaTopic:   getenv("KAFKA_TOPIC", "events"),
		GroupID:      getenv("KAFKA_GROUP_ID", "event_group"),
		SkipBacklog:  getenvBool("SKIP_BACKLOG", false),

		MySQLDSN: dsn,

		DedupEnabled:  getenvBool("DEDUP_ENABLED", false),
		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getenvInt("REDIS_DB", 0),
		DedupTTL:      time.Duration(getenvInt("DEDUP_TTL_SEC", 86400)) * time.Second,

		ConnectMaxAttempts: getenvInt("CONNECT_MAX_ATTEMPTS", 5),
		ConnectDelay:       time.Duration(getenvInt("CONNECT_DELAY_SEC", 10)) * time.Second,
	}, nil
}
