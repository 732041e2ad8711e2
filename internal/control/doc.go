// Package control is the single entry point for operating the simulation.
//
// The HTTP API and the MQTT command listener both call a Controller rather
// than the engine directly. After every successful operation the controller
// records an audit entry, updates control metrics and pushes the new status
// to every registered StatusNotifier (WebSocket clients, the retained MQTT
// status topic).
package control
