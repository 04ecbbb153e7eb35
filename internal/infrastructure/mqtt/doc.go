// Package mqtt publishes controller snapshots to an MQTT broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Retained publishing with QoS guarantees
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Topics
//
//	poolwatch/controllers/{CtrlId}/snapshot   retained controller document
//	poolwatch/system/status                   online / offline (LWT)
//
// # Security Considerations
//
//   - Enable TLS for brokers outside the host (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Snapshots carry filtered controller data only; user records are never published
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.ControllerSnapshot("100")
//	client.PublishRetained(topic, payload)
package mqtt
