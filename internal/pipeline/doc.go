// Package pipeline assembles a stream of mono samples into analysis windows,
// runs pitch estimation on every full window and delivers the resulting note
// events to a Sink.
//
// Process is called synchronously from the audio callback. It never blocks,
// takes no locks and allocates nothing per window, so calls must be
// serialized by the caller.
package pipeline
