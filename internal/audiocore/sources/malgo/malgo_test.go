package malgo

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/pitchtrack/internal/audiocore"
	"github.com/tphakala/pitchtrack/internal/errors"
)

// blockingDevice holds Stop until release is closed.
type blockingDevice struct {
	entered chan struct{}
	release chan struct{}
	uninit  atomic.Bool
}

func newBlockingDevice() *blockingDevice {
	return &blockingDevice{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (d *blockingDevice) Start() error { return nil }

func (d *blockingDevice) Stop() error {
	close(d.entered)
	<-d.release
	return nil
}

func (d *blockingDevice) Uninit() { d.uninit.Store(true) }

func TestConcurrentStopWaitsForTeardown(t *testing.T) {
	t.Parallel()

	dev := newBlockingDevice()
	s := New(Config{Channel: audiocore.DownmixAll})
	s.device = dev
	s.opened = true
	s.running.Store(true)

	first := make(chan error, 1)
	go func() { first <- s.Stop() }()
	<-dev.entered

	second := make(chan error, 1)
	go func() { second <- s.Stop() }()

	select {
	case <-second:
		t.Fatal("second Stop returned while the device was still being released")
	case <-time.After(50 * time.Millisecond):
	}

	close(dev.release)
	require.NoError(t, <-first)
	require.NoError(t, <-second)

	assert.True(t, dev.uninit.Load())
	assert.False(t, s.running.Load())
	select {
	case <-s.Done():
	default:
		t.Fatal("Done not closed after Stop")
	}
}

func TestStopAfterUnexpectedDeviceStop(t *testing.T) {
	t.Parallel()

	dev := newBlockingDevice()
	s := New(Config{Channel: audiocore.DownmixAll})
	s.device = dev
	s.opened = true
	s.running.Store(true)

	s.onDeviceStop("USB Audio CODEC")

	select {
	case <-s.Done():
	default:
		t.Fatal("Done not closed after the device went away")
	}
	assert.False(t, s.running.Load())

	var err error
	select {
	case err = <-s.Errors():
	default:
		t.Fatal("no error reported for the unexpected stop")
	}
	var ee *errors.EnhancedError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, audiocore.ComponentAudioCore, ee.GetComponent())
	assert.Equal(t, "USB Audio CODEC", ee.GetContext()["device_name"])

	// Done is already closed, so a second Stop must still wait for the first
	first := make(chan error, 1)
	go func() { first <- s.Stop() }()
	<-dev.entered

	second := make(chan error, 1)
	go func() { second <- s.Stop() }()
	select {
	case <-second:
		t.Fatal("second Stop returned while the device was still being released")
	case <-time.After(50 * time.Millisecond):
	}

	close(dev.release)
	require.NoError(t, <-first)
	require.NoError(t, <-second)
	assert.True(t, dev.uninit.Load())
}

func TestRequestedStopReportsNothing(t *testing.T) {
	t.Parallel()

	s := New(Config{Channel: audiocore.DownmixAll})
	require.NoError(t, s.Stop())

	s.onDeviceStop("USB Audio CODEC")
	select {
	case err := <-s.Errors():
		t.Fatalf("unexpected error after a requested stop: %v", err)
	default:
	}
}
