package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

type Archiver struct {
	KafkaBrokers string
	KafkaTopic   string
	GroupID      string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOUseTLS    bool
	Bucket         string
	BasePath       string

	MaxRecords  int
	MaxInterval time.Duration
}

func LoadArchiver() (*Archiver, error) {
	access := os.Getenv("MINIO_ACCESS_KEY")
	secret := os.Getenv("MINIO_SECRET_KEY")
	if access == "" || secret == "" {
		return nil, errors.New("MINIO_ACCESS_KEY and MINIO_SECRET_KEY must not be empty")
	}
	brokers, err := checkBrokers(getenv("KAFKA_BROKERS", "localhost:9092"))
	if err != nil {
		return nil, err
	}
	return &Archiver{
		KafkaBrokers: strings.Join(brokers, ","),
		KafkaTopic:   getenv("KAFKA_TOPIC", "events"),
		GroupID:      getenv("KAFKA_GROUP_ID", "archive_group"),

		MinIOEndpoint:  getenv("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey: access,
		MinIOSecretKey: secret,
		MinIOUseTLS:    getenvBool("MINIO_USE_TLS", false),
		Bucket:         getenv("MINIO_BUCKET", "event-archive"),
		BasePath:       getenv("ARCHIVE_BASE_PATH", "events"),

		MaxRecords:  getenvInt("ARCHIVE_MAX_RECORDS", 5000),
		MaxInterval: time.Duration(getenvInt("ARCHIVE_MAX_INTERVAL_SEC", 60)) * time.Second,
	}, nil
}
