package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	ShipSarthi ShipSarthiConfig `yaml:"shipsarthi"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (c DatabaseConfig) ConnString() string {
	ssl := c.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Username, c.Password, c.Host, c.Port, c.DBName, ssl)
}

type KafkaConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	StatusChangedTopicName string `yaml:"status_changed_topic_name"`
}

func (c KafkaConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type ShipSarthiConfig struct {
	HTTPAddr           string `yaml:"http_addr"`
	WorkerHTTPAddr     string `yaml:"worker_http_addr"`
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`

	ReconcileIntervalSeconds int  `yaml:"reconcile_interval_seconds"`
	InterCallDelayMillis     int  `yaml:"inter_call_delay_millis"`
	RateLimitPerMinute       int  `yaml:"rate_limit_per_minute"`
	RequirePickupRequest     bool `yaml:"require_pickup_request"`

	QueueCapacity        int `yaml:"queue_capacity"`
	JobTimeoutSeconds    int `yaml:"job_timeout_seconds"`
	JobMaxAttempts       int `yaml:"job_max_attempts"`
	JobBackoffBaseMillis int `yaml:"job_backoff_base_millis"`

	RateCardCacheTTLSeconds int `yaml:"rate_card_cache_ttl_seconds"`

	DelhiveryBaseURL string `yaml:"delhivery_base_url"`
	DelhiveryToken   string `yaml:"delhivery_token"`
	// "fake" swaps the real carrier client for the deterministic local one.
	CarrierMode string `yaml:"carrier_mode"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}
