// Package config loads each service's settings from the environment
// into explicit structs handed to constructors. Nothing here is global.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getenvQoS(key string, fallback byte) byte {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			if n < 0 {
				n = 0
			}
			if n > 2 {
				n = 2
			}
			return byte(n)
		}
	}
	return fallback
}

func checkBrokers(brokers string) ([]string, error) {
	parts := strings.Split(brokers, ",")
	out := parts[:0]
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("KAFKA_BROKERS must not be empty")
	}
	return out, nil
}
