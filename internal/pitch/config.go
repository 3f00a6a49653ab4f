package pitch

import (
	"fmt"
	"math"
	"strings"

	"github.com/tphakala/pitchtrack/internal/errors"
)

// ComponentPitch identifies errors raised by this package
const ComponentPitch = "pitch"

// Default estimator parameters
const (
	DefaultWindowSize       = 512
	DefaultPowerThreshold   = 1.0
	DefaultClarityThreshold = 0.3
	DefaultPeakCutoff       = 0.9

	// MinWindowSize keeps the lag range wide enough for interpolation
	MinWindowSize = 32
)

// Config holds the estimator parameters. It is fixed for the lifetime of an Estimator.
type Config struct {
	WindowSize       int     // samples per window
	PowerThreshold   float64 // minimum window energy, sum of squared samples
	ClarityThreshold float64 // minimum interpolated NSDF peak height
	PeakCutoff       float64 // key maximum cutoff relative to the highest key maximum
}

// DefaultConfig returns the default estimator parameters.
func DefaultConfig() Config {
	return Config{
		WindowSize:       DefaultWindowSize,
		PowerThreshold:   DefaultPowerThreshold,
		ClarityThreshold: DefaultClarityThreshold,
		PeakCutoff:       DefaultPeakCutoff,
	}
}

// PaddingSize is half the window size.
func (c Config) PaddingSize() int {
	return c.WindowSize / 2
}

// MaxLag is the largest lag the NSDF is evaluated at.
func (c Config) MaxLag() int {
	return c.WindowSize - c.PaddingSize()
}

// Validate checks that the parameters describe a usable estimator.
func (c Config) Validate() error {
	var problems []string

	if c.WindowSize < MinWindowSize || c.WindowSize%2 != 0 {
		problems = append(problems, fmt.Sprintf("window size must be an even number of at least %d, got %d", MinWindowSize, c.WindowSize))
	}
	if c.PowerThreshold < 0 || math.IsNaN(c.PowerThreshold) {
		problems = append(problems, fmt.Sprintf("power threshold must not be negative, got %g", c.PowerThreshold))
	}
	if c.ClarityThreshold < 0 || c.ClarityThreshold > 1 || math.IsNaN(c.ClarityThreshold) {
		problems = append(problems, fmt.Sprintf("clarity threshold must be between 0 and 1, got %g", c.ClarityThreshold))
	}
	if c.PeakCutoff <= 0 || c.PeakCutoff > 1 || math.IsNaN(c.PeakCutoff) {
		problems = append(problems, fmt.Sprintf("peak cutoff must be in (0, 1], got %g", c.PeakCutoff))
	}

	if len(problems) == 0 {
		return nil
	}

	return errors.Newf("invalid estimator config: %s", strings.Join(problems, "; ")).
		Component(ComponentPitch).
		Category(errors.CategoryValidation).
		Context("window_size", c.WindowSize).
		Build()
}
