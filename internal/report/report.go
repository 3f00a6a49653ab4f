// Package report delivers note events to their destinations. Every sink
// hands events to a worker goroutine through a bounded queue; when the queue
// is full the event is dropped and counted, so Deliver never blocks the
// audio goroutine.
package report

import (
	"sync"
	"time"

	"github.com/tphakala/pitchtrack/internal/logger"
	"github.com/tphakala/pitchtrack/internal/notes"
	"github.com/tphakala/pitchtrack/internal/observability/metrics"
	"github.com/tphakala/pitchtrack/internal/pipeline"
)

// ComponentReport identifies errors raised by this package
const ComponentReport = "report"

// DefaultQueueSize is used when a sink is created with a non-positive queue size.
const DefaultQueueSize = 64

func getLogger() logger.Logger {
	return logger.Global().Module("report")
}

// EventPayload is the JSON representation of a note event.
type EventPayload struct {
	Note        string    `json:"note"`
	Name        string    `json:"name"`
	Octave      int       `json:"octave"`
	FrequencyHz float64   `json:"frequency_hz"`
	Clarity     float64   `json:"clarity"`
	Cents       float64   `json:"cents"`
	Sequence    uint64    `json:"sequence"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewEventPayload converts ev to its JSON representation.
func NewEventPayload(ev *notes.Event) EventPayload {
	return EventPayload{
		Note:        ev.Note.String(),
		Name:        ev.Name,
		Octave:      ev.Octave,
		FrequencyHz: ev.FrequencyHz,
		Clarity:     ev.Clarity,
		Cents:       ev.Cents,
		Sequence:    ev.Sequence,
		Timestamp:   ev.Timestamp,
	}
}

// queue is the bounded hand-off shared by the sinks. The worker drains
// remaining events on Close before returning.
type queue struct {
	name    string
	events  chan notes.Event
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once
	metrics *metrics.PitchMetrics
}

func newQueue(name string, size int, m *metrics.PitchMetrics) *queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &queue{
		name:    name,
		events:  make(chan notes.Event, size),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		metrics: m,
	}
}

// offer enqueues ev without blocking and reports whether it was accepted.
func (q *queue) offer(ev notes.Event) bool {
	select {
	case <-q.quit:
		return false
	default:
	}

	select {
	case q.events <- ev:
		return true
	default:
		q.metrics.RecordDropped(q.name)
		return false
	}
}

// run calls handle for every event until Close, then drains the queue.
func (q *queue) run(handle func(ev *notes.Event)) {
	defer close(q.done)
	for {
		select {
		case ev := <-q.events:
			handle(&ev)
		case <-q.quit:
			for {
				select {
				case ev := <-q.events:
					handle(&ev)
				default:
					return
				}
			}
		}
	}
}

func (q *queue) close() {
	q.once.Do(func() { close(q.quit) })
	<-q.done
}

// Multi fans each event out to all sinks in order.
func Multi(sinks ...pipeline.Sink) pipeline.Sink {
	switch len(sinks) {
	case 0:
		return pipeline.Discard
	case 1:
		return sinks[0]
	}
	return multiSink(sinks)
}

type multiSink []pipeline.Sink

func (m multiSink) Deliver(ev notes.Event) {
	for _, s := range m {
		s.Deliver(ev)
	}
}
