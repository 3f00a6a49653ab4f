package audiocore

import (
	"encoding/binary"
	"math"

	"github.com/tphakala/pitchtrack/internal/errors"
)

// Normalization divisors for integer PCM.
const (
	scaleU8  = 128.0
	scaleS16 = 32768.0
	scaleS24 = 8388608.0
	scaleS32 = 2147483648.0
)

// DownmixAll selects averaging of all channels instead of a single channel.
const DownmixAll = -1

// Converter turns interleaved PCM into mono float32 in [-1, 1]. It reuses its
// output buffer, so the returned slice is only valid until the next call.
// A Converter must not be shared between goroutines.
type Converter struct {
	format  Format
	channel int
	out     []float32
}

// NewConverter creates a converter for format. channel selects one input
// channel, or DownmixAll to average every channel.
func NewConverter(format Format, channel int) (*Converter, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if channel != DownmixAll && (channel < 0 || channel >= format.Channels) {
		return nil, errors.Newf("channel %d out of range for %d channel input", channel, format.Channels).
			Component(ComponentAudioCore).
			Category(errors.CategoryValidation).
			Context("channel", channel).
			Context("channels", format.Channels).
			Build()
	}
	return &Converter{format: format, channel: channel}, nil
}

// Format returns the input format.
func (c *Converter) Format() Format {
	return c.format
}

func (c *Converter) buffer(frames int) []float32 {
	if cap(c.out) < frames {
		c.out = make([]float32, frames)
	}
	return c.out[:frames]
}

// Convert decodes raw interleaved bytes. Trailing bytes that do not form a
// complete frame are ignored.
func (c *Converter) Convert(raw []byte) []float32 {
	bps := c.format.Encoding.BytesPerSample()
	channels := c.format.Channels
	frameSize := bps * channels
	frames := len(raw) / frameSize
	out := c.buffer(frames)

	if c.channel != DownmixAll {
		offset := c.channel * bps
		for i := range frames {
			out[i] = c.decode(raw[i*frameSize+offset:])
		}
		return out
	}

	inv := 1 / float32(channels)
	for i := range frames {
		frame := raw[i*frameSize : (i+1)*frameSize]
		var sum float32
		for ch := range channels {
			sum += c.decode(frame[ch*bps:])
		}
		out[i] = sum * inv
	}
	return out
}

// decode reads one sample from the start of b.
func (c *Converter) decode(b []byte) float32 {
	switch c.format.Encoding {
	case EncodingU8:
		return (float32(b[0]) - 128) / scaleU8
	case EncodingS16LE:
		return float32(int16(binary.LittleEndian.Uint16(b))) / scaleS16
	case EncodingS24LE:
		v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		if v&0x800000 != 0 {
			v |= ^0xFFFFFF
		}
		return float32(v) / scaleS24
	case EncodingS32LE:
		return float32(float64(int32(binary.LittleEndian.Uint32(b))) / scaleS32)
	case EncodingF32LE:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	default:
		return 0
	}
}

// ConvertInt converts interleaved integer samples of the format's bit depth,
// as produced by WAV decoders.
func (c *Converter) ConvertInt(data []int) []float32 {
	channels := c.format.Channels
	frames := len(data) / channels
	out := c.buffer(frames)
	scale := float32(1 / math.Exp2(float64(c.format.BitDepth-1)))

	if c.channel != DownmixAll {
		for i := range frames {
			out[i] = float32(data[i*channels+c.channel]) * scale
		}
		return out
	}

	inv := scale / float32(channels)
	for i := range frames {
		var sum int
		for _, v := range data[i*channels : (i+1)*channels] {
			sum += v
		}
		out[i] = float32(sum) * inv
	}
	return out
}

// EncodingForBitDepth maps an integer PCM bit depth to its encoding.
func EncodingForBitDepth(bits int) (Encoding, bool) {
	switch bits {
	case 8:
		return EncodingU8, true
	case 16:
		return EncodingS16LE, true
	case 24:
		return EncodingS24LE, true
	case 32:
		return EncodingS32LE, true
	default:
		return "", false
	}
}
