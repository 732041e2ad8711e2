// Package kafka provides an optional Kafka producer for simulated readings.
//
// When enabled in config.yaml, every reading published to MQTT is also
// written to a Kafka topic, keyed by the simulator's client ID so one
// simulator's readings stay ordered within a partition.
//
// Usage:
//
//	producer, err := kafka.NewProducer(cfg.Kafka)
//	if err != nil {
//	    return err
//	}
//	defer producer.Close()
//
//	err = producer.Write(ctx, []byte(clientID), payload, time.Now())
package kafka
