package config

import (
	"os"
	"time"
)

type Processing struct {
	HTTPAddr string

	StateFile string
	QueryURL  string
	Period    time.Duration

	InfluxURL    string // optional dashboard snapshots; empty disables
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string
}

func LoadProcessing() (*Processing, error) {
	return &Processing{
		HTTPAddr: getenv("HTTP_ADDR", ":8100"),

		StateFile: getenv("STATS_FILE", "stats.json"),
		QueryURL:  getenv("STORAGE_URL", "http://localhost:8090"),
		Period:    time.Duration(getenvInt("PERIOD_SEC", 5)) * time.Second,

		InfluxURL:    os.Getenv("INFLUX_URL"),
		InfluxToken:  os.Getenv("INFLUX_TOKEN"),
		InfluxOrg:    os.Getenv("INFLUX_ORG"),
		InfluxBucket: os.Getenv("INFLUX_BUCKET"),
	}, nil
}
