package mqtt

// Topic prefixes for the simulator's MQTT hierarchy.
const (
	// TopicPrefixSimulated is the base for published sensor data.
	TopicPrefixSimulated = "iot/simulated"

	// TopicPrefixSimulator is the base for control and presence topics.
	TopicPrefixSimulator = "iot/simulator"
)

// Topics provides builders for simulator MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	topics.Data() // "iot/simulated/data"
type Topics struct{}

// Data returns the default topic readings are published on.
//
// Example: iot/simulated/data
func (Topics) Data() string {
	return TopicPrefixSimulated + "/data"
}

// Command returns the topic remote control commands arrive on.
//
// Example: iot/simulator/command
func (Topics) Command() string {
	return TopicPrefixSimulator + "/command"
}

// Status returns the retained engine status topic.
//
// Example: iot/simulator/status
func (Topics) Status() string {
	return TopicPrefixSimulator + "/status"
}

// Connection returns the retained online/offline presence topic.
// The broker publishes the LWT here if the simulator drops off.
//
// Example: iot/simulator/connection
func (Topics) Connection() string {
	return TopicPrefixSimulator + "/connection"
}
