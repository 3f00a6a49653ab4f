package pipeline

import "github.com/tphakala/pitchtrack/internal/notes"

// Sink receives note events in window order. Deliver is called on the audio
// goroutine and must return without blocking.
type Sink interface {
	Deliver(ev notes.Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ev notes.Event)

// Deliver calls f(ev).
func (f SinkFunc) Deliver(ev notes.Event) {
	f(ev)
}

// Discard is a Sink that drops every event.
var Discard Sink = SinkFunc(func(notes.Event) {})
