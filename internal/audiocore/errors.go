package audiocore

import (
	"github.com/tphakala/pitchtrack/internal/errors"
)

// ComponentAudioCore identifies audiocore errors
const ComponentAudioCore = "audiocore"

// ErrorChannelSize is the buffer size sources use for their Errors channel.
const ErrorChannelSize = 10

var (
	// ErrNoDevice is returned when no capture device matches the request
	ErrNoDevice = errors.New(nil).
		Component(ComponentAudioCore).
		Category(errors.CategoryNotFound).
		Context("error", "no matching audio capture device").
		Build()

	// ErrUnsupportedFormat is returned when the negotiated format cannot be converted
	ErrUnsupportedFormat = errors.New(nil).
		Component(ComponentAudioCore).
		Category(errors.CategoryValidation).
		Context("error", "unsupported audio format").
		Build()

	// ErrSourceState is returned when a source method is called in the wrong state
	ErrSourceState = errors.New(nil).
		Component(ComponentAudioCore).
		Category(errors.CategoryState).
		Context("error", "audio source in wrong state").
		Build()
)

func newFormatError(f Format, reason string) error {
	return errors.Newf("%s: %s", reason, f).
		Component(ComponentAudioCore).
		Category(errors.CategoryValidation).
		Context("sample_rate", f.SampleRate).
		Context("channels", f.Channels).
		Context("encoding", string(f.Encoding)).
		Build()
}

// StateError builds an ErrSourceState-compatible error for source id.
func StateError(id, reason string) error {
	return errors.Newf("%s", reason).
		Component(ComponentAudioCore).
		Category(errors.CategoryState).
		Context("source_id", id).
		Build()
}

// ReportError sends err on ch without blocking. It reports whether the error was queued.
func ReportError(ch chan<- error, err error) bool {
	select {
	case ch <- err:
		return true
	default:
		return false
	}
}
