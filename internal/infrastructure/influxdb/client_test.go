package influxdb_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hearthlabs/hearthctl/internal/infrastructure/config"
	"github.com/hearthlabs/hearthctl/internal/infrastructure/influxdb"
)

// testConfig returns a configuration for a local dev InfluxDB.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "hearthctl-dev-token",
		Org:           "home",
		Bucket:        "hearth",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

// skipIfNoInfluxDB skips the test when no local InfluxDB answers.
func skipIfNoInfluxDB(t *testing.T) {
	t.Helper()
	client, err := influxdb.Connect(testConfig())
	if err != nil {
		t.Skip("InfluxDB not available, skipping integration test")
	}
	client.Close()
}

// trackErrors registers an error callback and returns a getter.
func trackErrors(client *influxdb.Client) func() error {
	var mu sync.Mutex
	var writeErr error
	client.SetOnError(func(err error) {
		mu.Lock()
		writeErr = err
		mu.Unlock()
	})
	return func() error {
		mu.Lock()
		defer mu.Unlock()
		return writeErr
	}
}

func TestConnect(t *testing.T) {
	skipIfNoInfluxDB(t)

	client, err := influxdb.Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestConnectDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	if _, err := influxdb.Connect(cfg); !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnectUnreachable(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:59999"

	if _, err := influxdb.Connect(cfg); !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnectDefaultBatchSettings(t *testing.T) {
	skipIfNoInfluxDB(t)
	cfg := testConfig()
	cfg.BatchSize = 0
	cfg.FlushInterval = -1

	client, err := influxdb.Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false with defaulted batch settings")
	}
}

func TestWriteStateMetric(t *testing.T) {
	skipIfNoInfluxDB(t)

	client, err := influxdb.Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	lastErr := trackErrors(client)

	client.WriteStateMetric("sensor.hall_temp", "sensor", "state", 21.5)
	client.WriteStateMetric("light.kitchen", "light", "brightness", 128)
	client.Flush()

	time.Sleep(100 * time.Millisecond)
	if err := lastErr(); err != nil {
		t.Errorf("write error = %v", err)
	}
}

func TestWriteEventCount(t *testing.T) {
	skipIfNoInfluxDB(t)

	client, err := influxdb.Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	lastErr := trackErrors(client)

	client.WriteEventCount("state_changed")
	client.Flush()

	time.Sleep(100 * time.Millisecond)
	if err := lastErr(); err != nil {
		t.Errorf("write error = %v", err)
	}
}

func TestWritePointWithTime(t *testing.T) {
	skipIfNoInfluxDB(t)

	client, err := influxdb.Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	lastErr := trackErrors(client)

	client.WritePointWithTime(
		"relay_stats",
		map[string]string{"client": "hearthctl-test"},
		map[string]interface{}{"events_dropped": 3},
		time.Now().Add(-time.Hour),
	)
	client.Flush()

	time.Sleep(100 * time.Millisecond)
	if err := lastErr(); err != nil {
		t.Errorf("write error = %v", err)
	}
}

func TestClose(t *testing.T) {
	skipIfNoInfluxDB(t)

	client, err := influxdb.Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	client.WriteStateMetric("sensor.close_test", "sensor", "state", 1.0)

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
}
