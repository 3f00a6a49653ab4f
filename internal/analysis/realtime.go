package analysis

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tphakala/pitchtrack/internal/audiocore/sources"
	"github.com/tphakala/pitchtrack/internal/conf"
	"github.com/tphakala/pitchtrack/internal/logger"
)

// RealtimeAnalysis captures from the configured audio device and prints note
// events until SIGINT or SIGTERM is received.
func RealtimeAnalysis(settings *conf.Settings) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings.InputFile = ""
	summary, err := Run(ctx, settings, sources.CreateSource(settings), Options{Output: os.Stdout})
	if err != nil {
		return err
	}

	getLogger().Info("realtime analysis stopped",
		logger.Uint64("windows", summary.Windows),
		logger.Uint64("events", summary.Events),
		logger.Duration("elapsed", summary.Duration))
	return nil
}
