// Package wavfile provides an audio source that reads PCM WAV files.
package wavfile

import (
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tphakala/pitchtrack/internal/audiocore"
	"github.com/tphakala/pitchtrack/internal/errors"
)

// DefaultChunkFrames is the number of frames decoded per chunk.
const DefaultChunkFrames = 4096

// Source streams a WAV file as fast as it can be decoded.
type Source struct {
	path        string
	channel     int
	chunkFrames int

	file      *os.File
	decoder   *wav.Decoder
	format    audiocore.Format
	converter *audiocore.Converter

	errorChan chan error
	done      chan struct{}
	cancel    context.CancelFunc

	mu       sync.Mutex
	started  bool
	doneOnce sync.Once
}

// New creates a source for the WAV file at path. channel selects the channel
// to analyse, or audiocore.DownmixAll. chunkFrames <= 0 uses DefaultChunkFrames.
func New(path string, channel, chunkFrames int) *Source {
	if chunkFrames <= 0 {
		chunkFrames = DefaultChunkFrames
	}
	return &Source{
		path:        path,
		channel:     channel,
		chunkFrames: chunkFrames,
		errorChan:   make(chan error, audiocore.ErrorChannelSize),
		done:        make(chan struct{}),
	}
}

// ID returns a unique identifier for this source
func (s *Source) ID() string {
	return "file:" + s.path
}

// Name returns the file name.
func (s *Source) Name() string {
	return filepath.Base(s.path)
}

// Open reads the WAV header and validates the stream format.
func (s *Source) Open() (audiocore.Format, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		return audiocore.Format{}, audiocore.StateError(s.ID(), "source already opened")
	}

	file, err := os.Open(s.path)
	if err != nil {
		return audiocore.Format{}, errors.New(err).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryFileIO).
			Context("path", s.path).
			Build()
	}

	decoder := wav.NewDecoder(file)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		_ = file.Close()
		return audiocore.Format{}, errors.New(audiocore.ErrUnsupportedFormat).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryValidation).
			Context("path", s.path).
			Context("reason", "not a valid WAV file").
			Build()
	}

	bits := int(decoder.BitDepth)
	encoding, ok := audiocore.EncodingForBitDepth(bits)
	if !ok || bits == 8 || !isPCM(file, decoder.WavAudioFormat) {
		_ = file.Close()
		return audiocore.Format{}, errors.New(audiocore.ErrUnsupportedFormat).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryValidation).
			Context("path", s.path).
			Context("bit_depth", bits).
			Context("wav_format", int(decoder.WavAudioFormat)).
			Build()
	}

	format := audiocore.Format{
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
		BitDepth:   bits,
		Encoding:   encoding,
	}
	converter, err := audiocore.NewConverter(format, s.channel)
	if err != nil {
		_ = file.Close()
		return audiocore.Format{}, err
	}

	s.file = file
	s.decoder = decoder
	s.format = format
	s.converter = converter
	return format, nil
}

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE

	// offset of the sub-format GUID inside an extensible fmt chunk
	extensibleSubFormatOffset = 24
	extensibleFmtSize         = 40
)

// isPCM reports whether the stream holds integer PCM, either plainly or as a
// WAVE_FORMAT_EXTENSIBLE file whose sub-format is PCM.
func isPCM(r io.ReaderAt, format uint16) bool {
	switch format {
	case wavFormatPCM:
		return true
	case wavFormatExtensible:
		sub, ok := extensibleSubFormat(r)
		return ok && sub == wavFormatPCM
	default:
		return false
	}
}

// extensibleSubFormat returns the format code in the leading bytes of the
// sub-format GUID of the fmt chunk.
func extensibleSubFormat(r io.ReaderAt) (uint16, bool) {
	var hdr [8]byte
	off := int64(12) // past "RIFF", size and "WAVE"
	for {
		if _, err := r.ReadAt(hdr[:], off); err != nil {
			return 0, false
		}
		size := int64(binary.LittleEndian.Uint32(hdr[4:]))
		if string(hdr[:4]) != "fmt " {
			off += 8 + size + size&1
			continue
		}
		if size < extensibleFmtSize {
			return 0, false
		}
		var sub [2]byte
		if _, err := r.ReadAt(sub[:], off+8+extensibleSubFormatOffset); err != nil {
			return 0, false
		}
		return binary.LittleEndian.Uint16(sub[:]), true
	}
}

// Start decodes the file on a new goroutine, delivering chunks to handler.
// Done is closed at end of file, on a read error or when ctx is cancelled.
func (s *Source) Start(ctx context.Context, handler audiocore.ChunkHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.decoder == nil {
		return audiocore.StateError(s.ID(), "source not opened")
	}
	if s.started {
		return audiocore.StateError(s.ID(), "source already running")
	}
	s.started = true

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go s.run(runCtx, handler)
	return nil
}

func (s *Source) run(ctx context.Context, handler audiocore.ChunkHandler) {
	defer s.closeDone()

	buf := &audio.IntBuffer{
		Data:           make([]int, s.chunkFrames*s.format.Channels),
		Format:         &audio.Format{SampleRate: s.format.SampleRate, NumChannels: s.format.Channels},
		SourceBitDepth: s.format.BitDepth,
	}

	for ctx.Err() == nil {
		n, err := s.decoder.PCMBuffer(buf)
		if err != nil {
			audiocore.ReportError(s.errorChan, errors.New(err).
				Component(audiocore.ComponentAudioCore).
				Category(errors.CategoryFileIO).
				Context("path", s.path).
				Context("operation", "decode").
				Build())
			return
		}
		if n == 0 {
			return
		}
		if samples := s.converter.ConvertInt(buf.Data[:n]); len(samples) > 0 {
			handler(samples)
		}
	}
}

// Stop cancels decoding, waits for the decoder goroutine and closes the file.
func (s *Source) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if s.started {
		<-s.done
	} else {
		s.closeDone()
	}

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	s.decoder = nil
	if err != nil {
		return errors.New(err).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryFileIO).
			Context("path", s.path).
			Build()
	}
	return nil
}

// Errors returns a channel for error reporting
func (s *Source) Errors() <-chan error {
	return s.errorChan
}

// Done is closed when decoding has finished.
func (s *Source) Done() <-chan struct{} {
	return s.done
}

func (s *Source) closeDone() {
	s.doneOnce.Do(func() { close(s.done) })
}
