package mqtt

import (
	"fmt"
	"maps"
	"sync"
)

type subscription struct {
	qos     byte
	handler MessageHandler
}

// subscriptionSet remembers active filters so handleConnect can restore
// them on a clean session.
type subscriptionSet struct {
	mu      sync.RWMutex
	byTopic map[string]subscription
}

func (s *subscriptionSet) put(topic string, sub subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byTopic == nil {
		s.byTopic = make(map[string]subscription)
	}
	s.byTopic[topic] = sub
}

func (s *subscriptionSet) remove(topic string) {
	s.mu.Lock()
	delete(s.byTopic, topic)
	s.mu.Unlock()
}

func (s *subscriptionSet) has(topic string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byTopic[topic]
	return ok
}

func (s *subscriptionSet) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byTopic)
}

func (s *subscriptionSet) snapshot() map[string]subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.byTopic)
}

// Subscribe routes messages matching topic (wildcards allowed) to handler
// and keeps the filter across reconnects. Handlers run on paho's
// goroutines and should return quickly.
//
//	err := client.Subscribe(mqtt.Topics{}.Command(), 1, listener.handle)
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	switch {
	case topic == "":
		return ErrInvalidTopic
	case qos > maxQoS:
		return ErrInvalidQoS
	case handler == nil:
		return fmt.Errorf("%w: nil handler for %q", ErrSubscribeFailed, topic)
	case !c.IsConnected():
		return ErrNotConnected
	}

	if err := await(c.conn.Subscribe(topic, qos, c.deliver(handler)), ackTimeout); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrSubscribeFailed, topic, err)
	}
	c.subs.put(topic, subscription{qos: qos, handler: handler})
	return nil
}

// Unsubscribe drops the filter. Messages already in flight may still reach
// the old handler.
func (c *Client) Unsubscribe(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.subs.remove(topic)
	if err := await(c.conn.Unsubscribe(topic), ackTimeout); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrUnsubscribeFailed, topic, err)
	}
	return nil
}

// SubscriptionCount returns the number of filters restored on reconnect.
func (c *Client) SubscriptionCount() int {
	return c.subs.len()
}

// HasSubscription reports whether the exact filter string is tracked.
func (c *Client) HasSubscription(topic string) bool {
	return c.subs.has(topic)
}
