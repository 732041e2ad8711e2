package mqtt

import "errors"

// Sentinel errors returned by Client. Callers match them with errors.Is.
var (
	// Connection state.
	ErrConnectionFailed = errors.New("mqtt: unable to reach broker")
	ErrNotConnected     = errors.New("mqtt: not connected to broker")
	ErrTimeout          = errors.New("mqtt: broker did not acknowledge in time")

	// Argument validation.
	ErrInvalidTopic = errors.New("mqtt: empty topic")
	ErrInvalidQoS   = errors.New("mqtt: qos must be 0, 1 or 2")

	// Broker rejected or failed the request.
	ErrPublishFailed     = errors.New("mqtt: publish rejected")
	ErrSubscribeFailed   = errors.New("mqtt: subscribe rejected")
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe rejected")
)
