// Package logging configures the simulator's log/slog output.
//
// Every entry carries service=sensorsim and the build version. Timestamps
// are UTC. Attributes named password, token, secret or authorization are
// replaced with [REDACTED] so broker and InfluxDB credentials cannot leak
// through a careless log call.
//
//	logging:
//	  level: info      # debug | info | warn | error
//	  format: json     # json | text
//	  output: stdout   # stdout | stderr
//
// Components log through a tagged child:
//
//	log := logging.New(cfg.Logging, version)
//	log.Component("mqtt").Warn("reconnecting", "attempt", 3)
package logging
