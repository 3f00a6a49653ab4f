package analysis

import "github.com/tphakala/pitchtrack/internal/logger"

func getLogger() logger.Logger {
	return logger.Global().Module("analysis")
}
