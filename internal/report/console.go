package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/tphakala/pitchtrack/internal/errors"
	"github.com/tphakala/pitchtrack/internal/logger"
	"github.com/tphakala/pitchtrack/internal/notes"
	"github.com/tphakala/pitchtrack/internal/observability/metrics"
)

// Format selects how the console sink renders events.
type Format string

const (
	// FormatText prints one "Note: A-4, Frequency: 440.50, Clarity: 0.988" line per event.
	FormatText Format = "text"
	// FormatJSON prints one JSON object per line.
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", errors.Newf("unknown output format %q, expected text or json", s).
			Component(ComponentReport).
			Category(errors.CategoryValidation).
			Build()
	}
}

// ConsoleSink writes events to an io.Writer from its own goroutine.
type ConsoleSink struct {
	w      io.Writer
	format Format
	enc    *json.Encoder
	q      *queue
}

// NewConsoleSink starts a sink writing to w. Call Close to flush and stop it.
func NewConsoleSink(w io.Writer, format Format, queueSize int, m *metrics.PitchMetrics) *ConsoleSink {
	s := &ConsoleSink{
		w:      w,
		format: format,
		enc:    json.NewEncoder(w),
		q:      newQueue(metrics.SinkConsole, queueSize, m),
	}
	go s.q.run(s.write)
	return s
}

// Deliver queues ev for printing, dropping it if the queue is full.
func (s *ConsoleSink) Deliver(ev notes.Event) {
	s.q.offer(ev)
}

func (s *ConsoleSink) write(ev *notes.Event) {
	var err error
	if s.format == FormatJSON {
		err = s.enc.Encode(NewEventPayload(ev))
	} else {
		_, err = fmt.Fprintln(s.w, ev.String())
	}
	if err != nil {
		getLogger().Warn("failed to write event", logger.Error(err))
		return
	}
	s.q.metrics.RecordDelivered(metrics.SinkConsole)
}

// Close writes any queued events and stops the worker.
func (s *ConsoleSink) Close() {
	s.q.close()
}
