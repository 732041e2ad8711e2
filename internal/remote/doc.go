// Package remote lets MQTT clients operate the simulator.
//
// The listener subscribes to the command topic (default
// iot/simulator/command) and accepts JSON commands:
//
//	{"action":"start"}
//	{"action":"settings","settings":{"updateFrequency":5,"noiseLevel":0.5}}
//	{"action":"manual","enabled":true,"values":{"temperature":40}}
//	{"action":"preset","preset":"rainy-day"}
//
// After every change, whichever surface made it, the engine status is
// published retained on the status topic (default iot/simulator/status).
package remote
