package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvBrokers             = "KAFKA_BROKERS"
	EnvProducerAcks        = "KAFKA_PRODUCER_ACKS"
	EnvProducerCompression = "KAFKA_PRODUCER_COMPRESSION"
	EnvProducerMaxAttempts = "KAFKA_PRODUCER_MAX_ATTEMPTS"
	EnvProducerBatchWait   = "KAFKA_PRODUCER_BATCH_TIMEOUT"
)

const (
	DefaultProducerAcks        = -1 // all
	DefaultProducerCompression = "snappy"
	DefaultProducerMaxAttempts = 3
	DefaultProducerBatchWait   = 100 * time.Millisecond
)

type Config struct {
	Brokers              []string
	ProducerRequireAcks  int
	ProducerCompression  string
	ProducerMaxAttempts  int
	ProducerBatchTimeout time.Duration
}

// Load reads the Kafka settings from the environment. Brokers may be empty,
// in which case callers should fall back to a no-op emitter.
func Load() *Config {
	return &Config{
		Brokers:              splitBrokers(os.Getenv(EnvBrokers)),
		ProducerRequireAcks:  getEnvNum(EnvProducerAcks, DefaultProducerAcks),
		ProducerCompression:  getEnvStr(EnvProducerCompression, DefaultProducerCompression),
		ProducerMaxAttempts:  getEnvNum(EnvProducerMaxAttempts, DefaultProducerMaxAttempts),
		ProducerBatchTimeout: getEnvDuration(EnvProducerBatchWait, DefaultProducerBatchWait),
	}
}

func (c *Config) Enabled() bool {
	return len(c.Brokers) > 0
}

func splitBrokers(value string) []string {
	if value == "" {
		return nil
	}
	var brokers []string
	for _, b := range strings.Split(value, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
