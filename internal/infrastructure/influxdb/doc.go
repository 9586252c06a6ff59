// Package influxdb provides time-series storage for hearth state
// telemetry.
//
// It wraps the official influxdb-client-go v2 library with the relay's
// patterns for connection management, metric writing, and health
// monitoring.
//
// # Purpose
//
// The relay extracts numeric values from state_changed events (sensor
// readings, brightness levels, battery percentages) and writes them
// here so dashboards can chart the home over time.
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    Enabled: true,
//	    URL:     "http://localhost:8086",
//	    Token:   "your-token",
//	    Org:     "home",
//	    Bucket:  "hearth",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteStateMetric("sensor.hall_temp", "sensor", "state", 21.5)
//
// # Thread Safety
//
// All methods are safe for concurrent use. The underlying write API
// uses non-blocking batched writes; async write errors surface through
// SetOnError.
package influxdb
