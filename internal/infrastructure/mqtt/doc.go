// Package mqtt provides MQTT client connectivity for the hearth relay.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The relay uses MQTT as the bridge between the hub and the rest of a
// local deployment: hub state changes are republished as retained
// messages, and commands published by other services are forwarded to
// the hub as service calls.
//
//	Hearth hub ↔ hearthctl relay ↔ MQTT broker ↔ other services
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.Relay.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	// Subscribe to inbound commands
//	err = client.Subscribe(mqtt.Topics{}.AllCommands(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish a retained state update
//	topic := mqtt.Topics{}.State("light", "kitchen")
//	client.Publish(topic, []byte(`{"state":"on"}`), 1, true)
package mqtt
