package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteStateMetric records one numeric measurement extracted from an
// entity state, e.g. a sensor reading or a light's brightness.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - entityID: full entity id (e.g. "sensor.hall_temp")
//   - domain: entity domain used for grouping (e.g. "sensor")
//   - field: which value this is ("state", "brightness", "battery")
//   - value: the numeric value
//
// Example:
//
//	client.WriteStateMetric("sensor.hall_temp", "sensor", "state", 21.5)
func (c *Client) WriteStateMetric(entityID, domain, field string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"entity_state",
		map[string]string{
			"entity_id": entityID,
			"domain":    domain,
			"field":     field,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteEventCount records that an event of the given type was seen.
// Useful for dashboards tracking hub activity over time.
func (c *Client) WriteEventCount(eventType string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"hub_events",
		map[string]string{
			"event_type": eventType,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Parameters:
//   - measurement: the measurement name (table)
//   - tags: key-value pairs for indexing (low cardinality)
//   - fields: key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("relay_stats",
//	    map[string]string{"client": "hearthctl"},
//	    map[string]interface{}{"events_dropped": 3})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp,
// for data that did not originate "now".
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
