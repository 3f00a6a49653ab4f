package pipeline

import (
	"fmt"
	"math"
	"time"

	"github.com/tphakala/pitchtrack/internal/errors"
	"github.com/tphakala/pitchtrack/internal/notes"
	"github.com/tphakala/pitchtrack/internal/observability/metrics"
	"github.com/tphakala/pitchtrack/internal/pitch"
)

// ComponentPipeline identifies errors raised by this package
const ComponentPipeline = "pipeline"

// State is the accumulation state of a pipeline.
type State int

const (
	// Idle means no samples are buffered.
	Idle State = iota
	// Accumulating means a partial window is buffered.
	Accumulating
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Accumulating:
		return "accumulating"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Pipeline turns sample chunks into note events.
type Pipeline struct {
	estimator *pitch.Estimator
	mapper    *notes.Mapper
	sink      Sink
	metrics   *metrics.PitchMetrics
	now       func() time.Time

	window  *pitch.Window
	overlap float64
	retain  int

	windows uint64
	events  uint64
	closed  bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithOverlap sets the fraction of each window carried over into the next
// one. Zero, the default, gives disjoint windows.
func WithOverlap(fraction float64) Option {
	return func(p *Pipeline) {
		p.overlap = fraction
	}
}

// WithMetrics records per-window verdicts and timings.
func WithMetrics(m *metrics.PitchMetrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithClock overrides the clock used to timestamp events.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates a pipeline that feeds windows sized for estimator and delivers
// accepted estimates to sink.
func New(estimator *pitch.Estimator, mapper *notes.Mapper, sink Sink, opts ...Option) (*Pipeline, error) {
	if estimator == nil || mapper == nil || sink == nil {
		return nil, errors.Newf("pipeline requires an estimator, a mapper and a sink").
			Component(ComponentPipeline).
			Category(errors.CategoryValidation).
			Build()
	}

	p := &Pipeline{
		estimator: estimator,
		mapper:    mapper,
		sink:      sink,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	if math.IsNaN(p.overlap) || p.overlap < 0 || p.overlap >= 1 {
		return nil, errors.Newf("overlap must be in [0, 1), got %g", p.overlap).
			Component(ComponentPipeline).
			Category(errors.CategoryValidation).
			Context("overlap", p.overlap).
			Build()
	}

	size := estimator.Config().WindowSize
	p.window = pitch.NewWindow(size)
	p.retain = RetainedSamples(size, p.overlap)

	return p, nil
}

// RetainedSamples returns how many samples of a full window are kept as the
// start of the next window for the given overlap fraction.
func RetainedSamples(windowSize int, overlap float64) int {
	k := int(math.Round(overlap * float64(windowSize)))
	return min(max(k, 0), windowSize-1)
}

// Process appends chunk to the current window, analysing each window as it
// fills. Remainders carry over to the next call. Calls after Close are ignored.
func (p *Pipeline) Process(chunk []float32) {
	if p.closed {
		return
	}
	for len(chunk) > 0 {
		n := p.window.Fill(chunk)
		chunk = chunk[n:]
		if p.window.Full() {
			p.analyze()
			p.window.Retain(p.retain)
		}
	}
}

func (p *Pipeline) analyze() {
	var start time.Time
	if p.metrics != nil {
		start = time.Now()
	}

	seq := p.windows
	p.windows++

	result := p.estimator.Analyze(p.window.Samples())
	if result.Accepted() {
		ev := notes.Event{
			Note:        p.mapper.Map(result.FrequencyHz),
			FrequencyHz: result.FrequencyHz,
			Clarity:     result.Clarity,
			Sequence:    seq,
			Timestamp:   p.now(),
		}
		p.events++
		p.sink.Deliver(ev)
		p.metrics.RecordEstimate(result.FrequencyHz, result.Clarity)
	}

	if p.metrics != nil {
		p.metrics.RecordWindow(result.Verdict.String(), time.Since(start).Seconds())
	}
}

// Close discards any partial window without emitting and stops further processing.
func (p *Pipeline) Close() {
	p.window.Reset()
	p.closed = true
}

// Buffered returns the number of samples carried over into the next window.
func (p *Pipeline) Buffered() int {
	return p.window.Len()
}

// State reports whether a partial window is buffered.
func (p *Pipeline) State() State {
	if p.window.Len() == 0 {
		return Idle
	}
	return Accumulating
}

// Windows returns the number of windows analysed.
func (p *Pipeline) Windows() uint64 {
	return p.windows
}

// Events returns the number of events delivered.
func (p *Pipeline) Events() uint64 {
	return p.events
}

// WindowSize returns the analysis window size in samples.
func (p *Pipeline) WindowSize() int {
	return p.window.Size()
}

// Closed reports whether Close has been called.
func (p *Pipeline) Closed() bool {
	return p.closed
}
