package analysis

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/tphakala/pitchtrack/internal/audiocore/sources"
	"github.com/tphakala/pitchtrack/internal/conf"
	"github.com/tphakala/pitchtrack/internal/errors"
	"github.com/tphakala/pitchtrack/internal/logger"
)

// FileAnalysis runs the WAV file named by settings.InputFile through the
// pipeline and prints its note events.
func FileAnalysis(settings *conf.Settings) error {
	if err := validateAudioFile(settings.InputFile); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := Run(ctx, settings, sources.CreateSource(settings), Options{Output: os.Stdout})
	if err != nil {
		return err
	}

	var audioSeconds float64
	if summary.Format.SampleRate > 0 {
		audioSeconds = float64(summary.Windows) * float64(settings.Pitch.WindowSize) / float64(summary.Format.SampleRate)
	}
	getLogger().Info("file analysis complete",
		logger.String("file", filepath.Base(settings.InputFile)),
		logger.Uint64("windows", summary.Windows),
		logger.Uint64("events", summary.Events),
		logger.Float64("audio_seconds", audioSeconds),
		logger.Duration("elapsed", summary.Duration))
	return nil
}

// validateAudioFile checks that filePath names a non-empty regular file.
func validateAudioFile(filePath string) error {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return errors.New(err).
			Component(ComponentAnalysis).
			Category(errors.CategoryFileIO).
			Context("path", filePath).
			Build()
	}
	if fileInfo.IsDir() {
		return errors.Newf("%s is a directory, not a file", filepath.Base(filePath)).
			Component(ComponentAnalysis).
			Category(errors.CategoryValidation).
			Context("path", filePath).
			Build()
	}
	if fileInfo.Size() == 0 {
		return errors.Newf("file %s is empty", filepath.Base(filePath)).
			Component(ComponentAnalysis).
			Category(errors.CategoryValidation).
			Context("path", filePath).
			Build()
	}
	return nil
}
