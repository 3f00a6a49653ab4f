package pitch

import (
	"fmt"

	"github.com/tphakala/pitchtrack/internal/errors"
)

// Verdict describes the outcome of analysing one window.
type Verdict int

const (
	// Accepted means the window produced an estimate.
	Accepted Verdict = iota
	// Silent means the window power was zero or below the power threshold.
	Silent
	// Unclear means the best peak was below the clarity threshold.
	Unclear
	// NoPeak means the NSDF had no usable key maximum.
	NoPeak
)

// String returns the verdict name used in logs and metric labels.
func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case Silent:
		return "silent"
	case Unclear:
		return "unclear"
	case NoPeak:
		return "no_peak"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// Estimate is a pitch estimate for one window.
type Estimate struct {
	FrequencyHz float64 // fundamental frequency
	Clarity     float64 // interpolated NSDF peak height in [0, 1]
}

// Result is the full outcome of analysing one window.
type Result struct {
	Estimate
	Verdict Verdict
	Power   float64 // sum of squared samples
}

// Accepted reports whether the result carries an estimate.
func (r Result) Accepted() bool {
	return r.Verdict == Accepted
}

// Estimator computes pitch estimates for windows of a fixed size.
// It reuses its scratch buffers and must not be shared between goroutines.
type Estimator struct {
	cfg        Config
	sampleRate float64
	nsdf       []float64
	maxima     []int
}

// NewEstimator creates an estimator for windows sampled at sampleRate Hz.
func NewEstimator(cfg Config, sampleRate int) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sampleRate <= 0 {
		return nil, errors.Newf("sample rate must be positive, got %d", sampleRate).
			Component(ComponentPitch).
			Category(errors.CategoryValidation).
			Build()
	}

	lags := cfg.MaxLag() + 1
	return &Estimator{
		cfg:        cfg,
		sampleRate: float64(sampleRate),
		nsdf:       make([]float64, lags),
		maxima:     make([]int, 0, lags/2+1),
	}, nil
}

// Config returns the estimator parameters.
func (e *Estimator) Config() Config {
	return e.cfg
}

// SampleRate returns the sample rate in Hz.
func (e *Estimator) SampleRate() int {
	return int(e.sampleRate)
}

// Estimate returns the pitch of samples, or false when the window is rejected.
func (e *Estimator) Estimate(samples []float32) (Estimate, bool) {
	r := e.Analyze(samples)
	if !r.Accepted() {
		return Estimate{}, false
	}
	return r.Estimate, true
}

// Analyze runs the full estimation on samples and reports why a window was
// rejected. It panics if len(samples) differs from the configured window size.
func (e *Estimator) Analyze(samples []float32) Result {
	if len(samples) != e.cfg.WindowSize {
		panic(fmt.Sprintf("pitch: window has %d samples, estimator expects %d", len(samples), e.cfg.WindowSize))
	}

	power := windowPower(samples)
	if power == 0 || power < e.cfg.PowerThreshold {
		return Result{Verdict: Silent, Power: power}
	}

	computeNSDF(samples, power, e.nsdf)

	e.maxima = findKeyMaxima(e.nsdf, e.maxima[:0])
	lag := selectPeak(e.nsdf, e.maxima, e.cfg.PeakCutoff)
	// the last lag has no right neighbour to interpolate against
	if lag < 0 || lag >= len(e.nsdf)-1 {
		return Result{Verdict: NoPeak, Power: power}
	}

	refinedLag, height := interpolatePeak(e.nsdf, lag)
	if refinedLag <= 0 {
		return Result{Verdict: NoPeak, Power: power}
	}

	clarity := min(max(height, 0), 1)
	if clarity < e.cfg.ClarityThreshold {
		return Result{Verdict: Unclear, Power: power, Estimate: Estimate{Clarity: clarity}}
	}

	return Result{
		Estimate: Estimate{
			FrequencyHz: e.sampleRate / refinedLag,
			Clarity:     clarity,
		},
		Verdict: Accepted,
		Power:   power,
	}
}
