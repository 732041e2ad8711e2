// Package mqtt provides MQTT client connectivity for the sensor simulator.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS and context-bounded waits
//   - Topic subscriptions restored after reconnects
//   - Last Will and Testament (LWT) for offline detection
//
// # Topics
//
//	iot/simulated/data        readings (QoS 0, not retained)
//	iot/simulator/command     remote control commands
//	iot/simulator/status      retained engine status
//	iot/simulator/connection  retained online/offline presence (LWT)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Publish(mqtt.Topics{}.Data(), payload, 0, false)
//
// Credentials should come from SENSORSIM_MQTT_USERNAME / SENSORSIM_MQTT_PASSWORD.
package mqtt
