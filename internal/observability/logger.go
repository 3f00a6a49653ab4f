// Package observability exposes pitchtrack metrics over a Prometheus-compatible HTTP endpoint.
package observability

import "github.com/tphakala/pitchtrack/internal/logger"

// getLogger resolves the module logger on use so it picks up the global
// logger configured at startup.
func getLogger() logger.Logger {
	return logger.Global().Module("telemetry")
}
