// Package malgo provides a malgo-based soundcard audio source implementation
package malgo

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/tphakala/pitchtrack/internal/audiocore"
	"github.com/tphakala/pitchtrack/internal/errors"
	"github.com/tphakala/pitchtrack/internal/logger"
)

// Config contains configuration for the malgo audio source
type Config struct {
	DeviceName   string // device name, decoded ID or substring, "" for the system default
	SampleRate   int    // requested rate, 0 for the device native rate
	Channels     int    // requested channel count, 0 for the device native count
	Channel      int    // channel to analyse, audiocore.DownmixAll to average
	BufferFrames int    // period size in frames, 0 lets the backend decide
}

// captureDevice is the part of *malgo.Device used after Open.
type captureDevice interface {
	Start() error
	Stop() error
	Uninit()
}

// Source implements audiocore.Source using malgo for cross-platform audio capture.
// Samples are requested as float32; miniaudio converts from the device format.
type Source struct {
	config Config

	// Malgo specific
	mctx   *malgo.AllocatedContext
	device captureDevice
	name   string

	format    audiocore.Format
	converter *audiocore.Converter
	handler   audiocore.ChunkHandler

	errorChan chan error
	done      chan struct{}
	stopped   chan struct{} // closed when Stop has released the device

	mu       sync.Mutex
	opened   bool
	running  atomic.Bool
	stopping atomic.Bool
	doneOnce sync.Once
}

// New creates a capture source. Nothing is acquired until Open.
func New(config Config) *Source {
	return &Source{
		config:    config,
		errorChan: make(chan error, audiocore.ErrorChannelSize),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

func getLogger() logger.Logger {
	return logger.Global().Module("audio")
}

// ID returns a unique identifier for this source
func (s *Source) ID() string {
	return "malgo"
}

// Name returns the selected device name once opened.
func (s *Source) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.name == "" {
		return s.config.DeviceName
	}
	return s.name
}

// Open selects the capture device and initializes it.
func (s *Source) Open() (audiocore.Format, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opened {
		return audiocore.Format{}, audiocore.StateError(s.ID(), "source already opened")
	}

	mctx, err := initContext()
	if err != nil {
		return audiocore.Format{}, err
	}

	raw, devices, err := captureDevices(mctx)
	if err != nil {
		s.freeContext(mctx)
		return audiocore.Format{}, err
	}
	idx, err := selectDevice(devices, s.config.DeviceName)
	if err != nil {
		s.freeContext(mctx)
		return audiocore.Format{}, err
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = uint32(max(s.config.Channels, 0))
	deviceConfig.Capture.DeviceID = raw[idx].ID.Pointer()
	deviceConfig.SampleRate = uint32(max(s.config.SampleRate, 0))
	deviceConfig.PeriodSizeInFrames = uint32(max(s.config.BufferFrames, 0))
	deviceConfig.Alsa.NoMMap = 1

	deviceName := devices[idx].Name
	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: s.onAudioData,
		Stop: func() { s.onDeviceStop(deviceName) },
	})
	if err != nil {
		s.freeContext(mctx)
		return audiocore.Format{}, errors.New(err).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryAudioSource).
			Context("device_name", devices[idx].Name).
			Context("operation", "init_device").
			Build()
	}

	encoding, bits, ok := encodingFor(device.CaptureFormat())
	format := audiocore.Format{
		SampleRate: int(device.SampleRate()),
		Channels:   int(device.CaptureChannels()),
		BitDepth:   bits,
		Encoding:   encoding,
	}
	if !ok {
		device.Uninit()
		s.freeContext(mctx)
		return audiocore.Format{}, errors.New(audiocore.ErrUnsupportedFormat).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryValidation).
			Context("device_name", devices[idx].Name).
			Context("malgo_format", int(device.CaptureFormat())).
			Build()
	}

	converter, err := audiocore.NewConverter(format, s.config.Channel)
	if err != nil {
		device.Uninit()
		s.freeContext(mctx)
		return audiocore.Format{}, err
	}

	s.mctx = mctx
	s.device = device
	s.name = devices[idx].Name
	s.format = format
	s.converter = converter
	s.opened = true

	getLogger().Info("audio device opened",
		logger.String("device", s.name),
		logger.Int("sample_rate", format.SampleRate),
		logger.Int("channels", format.Channels),
		logger.String("encoding", string(format.Encoding)))

	return format, nil
}

// Start begins capture. The device callback delivers chunks to handler.
func (s *Source) Start(ctx context.Context, handler audiocore.ChunkHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opened {
		return audiocore.StateError(s.ID(), "source not opened")
	}
	if s.running.Load() {
		return audiocore.StateError(s.ID(), "source already running")
	}

	s.handler = handler
	s.running.Store(true)
	if err := s.device.Start(); err != nil {
		s.running.Store(false)
		return errors.New(err).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryAudioSource).
			Context("device_name", s.name).
			Context("operation", "start_device").
			Build()
	}

	go func() {
		select {
		case <-ctx.Done():
			_ = s.Stop()
		case <-s.done:
		}
	}()

	return nil
}

// Stop halts capture and releases the device and context. Concurrent callers
// all return only after the teardown has finished.
func (s *Source) Stop() error {
	if !s.stopping.CompareAndSwap(false, true) {
		<-s.stopped
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	defer close(s.stopped)

	if s.device != nil {
		_ = s.device.Stop()
		s.running.Store(false)
		s.device.Uninit()
		s.device = nil
	}
	if s.mctx != nil {
		s.freeContext(s.mctx)
		s.mctx = nil
	}
	s.closeDone()
	return nil
}

// Errors returns a channel for error reporting
func (s *Source) Errors() <-chan error {
	return s.errorChan
}

// Done is closed once capture has stopped.
func (s *Source) Done() <-chan struct{} {
	return s.done
}

// onAudioData is called by malgo on the device thread when audio data is available
func (s *Source) onAudioData(_, input []byte, _ uint32) {
	if !s.running.Load() {
		return
	}
	if samples := s.converter.Convert(input); len(samples) > 0 {
		s.handler(samples)
	}
}

// onDeviceStop is called by malgo when the device stops. A stop that we did
// not request means the device went away.
func (s *Source) onDeviceStop(deviceName string) {
	if s.stopping.Load() {
		return
	}
	s.running.Store(false)
	audiocore.ReportError(s.errorChan, errors.Newf("audio device stopped unexpectedly").
		Component(audiocore.ComponentAudioCore).
		Category(errors.CategoryAudioSource).
		Context("device_name", deviceName).
		Build())
	s.closeDone()
}

func (s *Source) closeDone() {
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *Source) freeContext(mctx *malgo.AllocatedContext) {
	if err := mctx.Uninit(); err != nil {
		getLogger().Warn("failed to release audio context", logger.Error(err))
	}
	mctx.Free()
}
