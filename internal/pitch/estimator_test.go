package pitch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/pitchtrack/internal/errors"
)

const testSampleRate = 44100

func sine(freq, amplitude float64, sampleRate, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}

func newTestEstimator(t *testing.T, cfg Config) *Estimator {
	t.Helper()
	e, err := NewEstimator(cfg, testSampleRate)
	require.NoError(t, err)
	return e
}

func TestEstimateSilence(t *testing.T) {
	t.Parallel()

	e := newTestEstimator(t, DefaultConfig())

	r := e.Analyze(make([]float32, DefaultWindowSize))
	assert.Equal(t, Silent, r.Verdict)
	assert.Zero(t, r.Power)

	_, ok := e.Estimate(make([]float32, DefaultWindowSize))
	assert.False(t, ok)
}

func TestEstimateBelowPowerThreshold(t *testing.T) {
	t.Parallel()

	e := newTestEstimator(t, DefaultConfig())

	// energy of a 0.01 amplitude sine over 512 samples is about 0.0256
	r := e.Analyze(sine(440, 0.01, testSampleRate, DefaultWindowSize))
	assert.Equal(t, Silent, r.Verdict)
	assert.Greater(t, r.Power, 0.0)
	assert.Less(t, r.Power, DefaultPowerThreshold)
}

func TestEstimateSineFrequencies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		freq float64
	}{
		{"A4", 440},
		{"C5", 523.25},
		{"A3", 220},
		{"A5", 880},
		{"C7", 2093},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newTestEstimator(t, DefaultConfig())

			est, ok := e.Estimate(sine(tt.freq, 1.0, testSampleRate, DefaultWindowSize))
			require.True(t, ok)
			assert.InEpsilon(t, tt.freq, est.FrequencyHz, 0.01)
			assert.GreaterOrEqual(t, est.Clarity, DefaultClarityThreshold)
			assert.LessOrEqual(t, est.Clarity, 1.0)
		})
	}
}

// Periods longer than the largest lag must not collapse onto the lag edge.
func TestEstimateNearLagEdge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		freq float64
	}{
		{"D3", 146.83},
		{"E3", 164.81},
		{"170Hz", 170},
		{"160Hz", 160},
		{"130Hz", 130},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newTestEstimator(t, DefaultConfig())

			r := e.Analyze(sine(tt.freq, 1.0, testSampleRate, DefaultWindowSize))
			if !r.Accepted() {
				assert.Contains(t, []Verdict{NoPeak, Unclear}, r.Verdict)
				return
			}
			assert.InEpsilon(t, tt.freq, r.Estimate.FrequencyHz, 0.01)
		})
	}
}

func TestEstimateIsIdempotent(t *testing.T) {
	t.Parallel()

	e := newTestEstimator(t, DefaultConfig())
	window := sine(440, 0.8, testSampleRate, DefaultWindowSize)

	first := e.Analyze(window)
	// analyse something else in between to dirty the scratch buffers
	_ = e.Analyze(sine(1000, 0.5, testSampleRate, DefaultWindowSize))
	second := e.Analyze(window)

	assert.Equal(t, first, second)
}

func TestEstimateRejectsUnclearSignal(t *testing.T) {
	t.Parallel()

	// deterministic pseudo noise from a linear congruential generator
	noise := make([]float32, DefaultWindowSize)
	state := uint32(12345)
	for i := range noise {
		state = state*1664525 + 1013904223
		noise[i] = float32(state>>8)/float32(1<<24)*2 - 1
	}

	cfg := DefaultConfig()
	cfg.ClarityThreshold = 0.95
	e := newTestEstimator(t, cfg)

	r := e.Analyze(noise)
	assert.Contains(t, []Verdict{Unclear, NoPeak}, r.Verdict)
	_, ok := e.Estimate(noise)
	assert.False(t, ok)
}

func TestEstimateWrongWindowLengthPanics(t *testing.T) {
	t.Parallel()

	e := newTestEstimator(t, DefaultConfig())

	assert.Panics(t, func() { e.Analyze(make([]float32, DefaultWindowSize-1)) })
	assert.Panics(t, func() { e.Estimate(make([]float32, DefaultWindowSize*2)) })
}

func TestEstimateLargerWindow(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.WindowSize = 2048
	e := newTestEstimator(t, cfg)

	// 82.41 Hz (E2) needs a lag of about 535 samples, out of reach for 512 windows
	est, ok := e.Estimate(sine(82.41, 0.5, testSampleRate, cfg.WindowSize))
	require.True(t, ok)
	assert.InEpsilon(t, 82.41, est.FrequencyHz, 0.01)
}

func TestNewEstimatorValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		mutate     func(c *Config)
		sampleRate int
	}{
		{"odd window", func(c *Config) { c.WindowSize = 511 }, testSampleRate},
		{"tiny window", func(c *Config) { c.WindowSize = 8 }, testSampleRate},
		{"negative power", func(c *Config) { c.PowerThreshold = -1 }, testSampleRate},
		{"clarity above one", func(c *Config) { c.ClarityThreshold = 2 }, testSampleRate},
		{"zero cutoff", func(c *Config) { c.PeakCutoff = 0 }, testSampleRate},
		{"zero sample rate", func(c *Config) {}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			_, err := NewEstimator(cfg, tt.sampleRate)
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
		})
	}
}

func TestVerdictString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "accepted", Accepted.String())
	assert.Equal(t, "silent", Silent.String())
	assert.Equal(t, "unclear", Unclear.String())
	assert.Equal(t, "no_peak", NoPeak.String())
	assert.Equal(t, "verdict(9)", Verdict(9).String())
}

func TestAnalyzeDoesNotAllocate(t *testing.T) {
	e := newTestEstimator(t, DefaultConfig())
	window := sine(440, 1.0, testSampleRate, DefaultWindowSize)

	allocs := testing.AllocsPerRun(100, func() {
		_ = e.Analyze(window)
	})
	assert.Zero(t, allocs)
}

func BenchmarkAnalyze(b *testing.B) {
	e, err := NewEstimator(DefaultConfig(), testSampleRate)
	require.NoError(b, err)
	window := sine(440, 1.0, testSampleRate, DefaultWindowSize)

	b.ReportAllocs()
	for b.Loop() {
		_ = e.Analyze(window)
	}
}
