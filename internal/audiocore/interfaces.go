package audiocore

import (
	"context"
	"fmt"
)

// Encoding names a PCM sample encoding.
type Encoding string

// Supported encodings, all little endian and interleaved.
const (
	EncodingU8    Encoding = "pcm_u8"
	EncodingS16LE Encoding = "pcm_s16le"
	EncodingS24LE Encoding = "pcm_s24le"
	EncodingS32LE Encoding = "pcm_s32le"
	EncodingF32LE Encoding = "pcm_f32le"
)

// BytesPerSample returns the size of one sample, or 0 for an unknown encoding.
func (e Encoding) BytesPerSample() int {
	switch e {
	case EncodingU8:
		return 1
	case EncodingS16LE:
		return 2
	case EncodingS24LE:
		return 3
	case EncodingS32LE, EncodingF32LE:
		return 4
	default:
		return 0
	}
}

// Format describes the stream a Source produces.
type Format struct {
	SampleRate int      // Sample rate in Hz (e.g., 44100)
	Channels   int      // Number of interleaved channels
	BitDepth   int      // Bits per sample (e.g., 16, 24, 32)
	Encoding   Encoding // Sample encoding
}

// String returns a short description such as "44100 Hz, 2 ch, pcm_s16le".
func (f Format) String() string {
	return fmt.Sprintf("%d Hz, %d ch, %s", f.SampleRate, f.Channels, f.Encoding)
}

// BytesPerFrame returns the size of one interleaved frame.
func (f Format) BytesPerFrame() int {
	return f.Encoding.BytesPerSample() * f.Channels
}

// Validate checks that the format can be converted.
func (f Format) Validate() error {
	switch {
	case f.SampleRate <= 0:
		return newFormatError(f, "sample rate must be positive")
	case f.Channels <= 0:
		return newFormatError(f, "channel count must be positive")
	case f.Encoding.BytesPerSample() == 0:
		return newFormatError(f, "unsupported sample encoding")
	}
	return nil
}

// ChunkHandler receives mono normalized samples. The slice is only valid for
// the duration of the call. Calls from one Source are never concurrent.
type ChunkHandler func(samples []float32)

// Source represents an audio input.
type Source interface {
	// ID returns a unique identifier for this source
	ID() string

	// Name returns a human-readable name for this source
	Name() string

	// Open acquires the device or file and negotiates the stream format.
	Open() (Format, error)

	// Start begins delivering chunks to handler. Capture stops when ctx is
	// cancelled, Stop is called or the input ends.
	Start(ctx context.Context, handler ChunkHandler) error

	// Stop halts capture and releases the underlying resources. It is safe
	// to call more than once.
	Stop() error

	// Errors returns a channel for asynchronous stream errors
	Errors() <-chan error

	// Done is closed when the source has delivered its last chunk.
	Done() <-chan struct{}
}
