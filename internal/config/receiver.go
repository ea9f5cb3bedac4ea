package config

import (
	"os"
	"time"
)

type Receiver struct {
	HTTPAddr string

	KafkaBrokers []string
	KafkaTopic   string
	Partitions   int
	Replication  int

	RetryMaxAttempts int
	RetryDelay       time.Duration

	ForwardURL string // optional direct-to-storage copy; empty disables

	MQTTEnabled   bool
	MQTTBrokerURL string
	MQTTClientID  string
	MQTTUsername  string
	MQTTPassword  string
	MQTTTopic     string
	MQTTQoS       byte
}

func LoadReceiver() (*Receiver, error) {
	brokers, err := checkBrokers(getenv("KAFKA_BROKERS", "localhost:9092"))
	if err != nil {
		return nil, err
	}
	return &Receiver{
		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		KafkaBrokers: brokers,
		KafkaTopic:   getenv("KAFKA_TOPIC", "events"),
		Partitions:   getenvInt("KAFKA_TOPIC_PARTITIONS", 1),
		Replication:  getenvInt("KAFKA_REPLICATION_FACTOR", 1),

		RetryMaxAttempts: getenvInt("KAFKA_RETRY_MAX_ATTEMPTS", 5),
		RetryDelay:       time.Duration(getenvInt("KAFKA_RETRY_DELAY_SEC", 10)) * time.Second,

		ForwardURL: os.Getenv("STORAGE_FORWARD_URL"),

		MQTTEnabled:   getenvBool("MQTT_ENABLED", false),
		MQTTBrokerURL: getenv("MQTT_BROKER_URL", "tcp://localhost:1883"),
		MQTTClientID:  getenv("MQTT_CLIENT_ID", "hems-receiver"),
		MQTTUsername:  os.Getenv("MQTT_USERNAME"),
		MQTTPassword:  os.Getenv("MQTT_PASSWORD"),
		MQTTTopic:     getenv("MQTT_TOPIC", "hems/events/#"),
		MQTTQoS:       getenvQoS("MQTT_QOS", 1),
	}, nil
}
