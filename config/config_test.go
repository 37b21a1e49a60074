package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
database:
  host: "localhost"
  port: 5432
  username: "u"
  password: "p"
  name: "shipsarthi"
kafka:
  host: "localhost"
  port: 9092
  status_changed_topic_name: "shipment.status-changed"
redis:
  host: "localhost"
  port: 6379
shipsarthi:
  http_addr: ":8080"
  worker_http_addr: ":8082"
  kafka_consumer_group: "ship-api"
  reconcile_interval_seconds: 1800
  queue_capacity: 500
  delhivery_base_url: "https://track.delhivery.com"
  delhivery_token: "secret"
`), 0o600))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "u", cfg.Database.Username)
	require.Equal(t, "postgres://u:p@localhost:5432/shipsarthi?sslmode=disable", cfg.Database.ConnString())
	require.Equal(t, "shipment.status-changed", cfg.Kafka.StatusChangedTopicName)
	require.Equal(t, "localhost:9092", cfg.Kafka.Addr())
	require.Equal(t, "localhost:6379", cfg.Redis.Addr())
	require.Equal(t, ":8080", cfg.ShipSarthi.HTTPAddr)
	require.Equal(t, 1800, cfg.ShipSarthi.ReconcileIntervalSeconds)
	require.Equal(t, 500, cfg.ShipSarthi.QueueCapacity)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig("/does/not/exist.yaml")
	require.Error(t, err)
}
