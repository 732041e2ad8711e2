// Package publish delivers simulated readings to their subscribers.
//
// The engine sees a single simulation.Publisher. Behind it, a Fanout sends
// each reading to the primary transport (MQTT) and mirrors it to any
// secondary sinks (Kafka, WebSocket clients). Only a primary failure is
// reported back to the engine; mirror failures are logged and counted.
//
//	pub := publish.NewFanout(publish.NewMQTT(client, qos, false), logger,
//	    publish.Mirror{Name: "kafka", Publisher: publish.NewKafka(producer, clientID)},
//	    publish.Mirror{Name: "websocket", Publisher: publish.NewBroadcast(hub)},
//	)
package publish
