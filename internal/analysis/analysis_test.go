package analysis

import (
	"bufio"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tphakala/pitchtrack/internal/audiocore"
	"github.com/tphakala/pitchtrack/internal/audiocore/sources/wavfile"
	"github.com/tphakala/pitchtrack/internal/conf"
	"github.com/tphakala/pitchtrack/internal/errors"
	"github.com/tphakala/pitchtrack/internal/observability"
	"github.com/tphakala/pitchtrack/internal/observability/metrics"
	"github.com/tphakala/pitchtrack/internal/report"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testSettings() *conf.Settings {
	s := &conf.Settings{}
	s.Pitch = conf.PitchSettings{
		WindowSize:       1024,
		PowerThreshold:   conf.DefaultPowerThreshold,
		ClarityThreshold: conf.DefaultClarityThreshold,
		PeakCutoff:       conf.DefaultPeakCutoff,
	}
	s.Tuning.A4 = conf.DefaultA4
	s.Audio.Channel = audiocore.DownmixAll
	s.Output.Console = conf.ConsoleOutputSettings{Enabled: true, Format: "json", QueueSize: 4096}
	s.Output.MQTT = conf.MQTTOutputSettings{Broker: "tcp://localhost:1883", Topic: "test/notes", QueueSize: 4096}
	return s
}

func writeSineWAV(t *testing.T, freq float64, sampleRate, frames int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	data := make([]int, frames)
	for i := range data {
		data[i] = int(16000 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: 1},
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
	return path
}

// fakeClient records published payloads.
type fakeClient struct {
	mu         sync.Mutex
	connectErr error
	connected  bool
	payloads   [][]byte
}

func (f *fakeClient) Connect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeClient) Publish(_ context.Context, _ string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeClient) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeClient) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
}

func (f *fakeClient) published() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.payloads...)
}

func TestRunFileToConsoleAndMQTT(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	settings.Output.MQTT.Enabled = true
	path := writeSineWAV(t, 440, 44100, 10*1024+300)

	m, err := observability.NewMetrics()
	require.NoError(t, err)
	client := &fakeClient{}
	var out syncBuffer

	summary, err := Run(t.Context(), settings, wavfile.New(path, audiocore.DownmixAll, 512), Options{
		Output:     &out,
		Metrics:    m,
		MQTTClient: client,
	})
	require.NoError(t, err)

	assert.Equal(t, 44100, summary.Format.SampleRate)
	assert.Equal(t, uint64(10), summary.Windows)
	assert.Equal(t, uint64(10), summary.Events)
	assert.Positive(t, summary.Duration)

	lines := 0
	scanner := bufio.NewScanner(strings.NewReader(out.String()))
	for scanner.Scan() {
		var payload report.EventPayload
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &payload))
		assert.Equal(t, "A-4", payload.Note)
		assert.Equal(t, uint64(lines), payload.Sequence)
		lines++
	}
	assert.Equal(t, 10, lines)

	published := client.published()
	require.Len(t, published, 10)
	var first report.EventPayload
	require.NoError(t, json.Unmarshal(published[0], &first))
	assert.Equal(t, "A", first.Name)
	assert.Equal(t, 4, first.Octave)
	assert.InDelta(t, 440, first.FrequencyHz, 1)

	assert.False(t, client.IsConnected(), "client is disconnected when the run ends")
	assert.InDelta(t, 10, testutil.ToFloat64(m.Pitch.WindowsAnalyzed.WithLabelValues(metrics.VerdictAccepted)), 0)
	assert.InDelta(t, 10, testutil.ToFloat64(m.Pitch.EventsDelivered.WithLabelValues(metrics.SinkMQTT)), 0)
}

func TestRunSilenceProducesNoEvents(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	path := writeSineWAV(t, 0, 44100, 4096)
	var out syncBuffer

	summary, err := Run(t.Context(), settings, wavfile.New(path, audiocore.DownmixAll, 0), Options{Output: &out})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), summary.Windows)
	assert.Zero(t, summary.Events)
	assert.Empty(t, out.String())
}

func TestRunMQTTConnectFailure(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	settings.Output.MQTT.Enabled = true
	path := writeSineWAV(t, 440, 44100, 2048)
	client := &fakeClient{connectErr: errors.NewStd("connection refused")}

	_, err := Run(t.Context(), settings, wavfile.New(path, audiocore.DownmixAll, 0), Options{
		Output:     &syncBuffer{},
		MQTTClient: client,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryMQTTConnect))
	assert.Empty(t, client.published())
}

func TestRunRejectsInvalidSettings(t *testing.T) {
	t.Parallel()

	path := writeSineWAV(t, 440, 44100, 2048)

	t.Run("console format", func(t *testing.T) {
		t.Parallel()
		settings := testSettings()
		settings.Output.Console.Format = "xml"
		_, err := Run(t.Context(), settings, wavfile.New(path, audiocore.DownmixAll, 0), Options{Output: &syncBuffer{}})
		require.Error(t, err)
	})

	t.Run("window size", func(t *testing.T) {
		t.Parallel()
		settings := testSettings()
		settings.Pitch.WindowSize = 15
		_, err := Run(t.Context(), settings, wavfile.New(path, audiocore.DownmixAll, 0), Options{Output: &syncBuffer{}})
		require.Error(t, err)
	})

	t.Run("overlap", func(t *testing.T) {
		t.Parallel()
		settings := testSettings()
		settings.Pitch.Overlap = 1
		_, err := Run(t.Context(), settings, wavfile.New(path, audiocore.DownmixAll, 0), Options{Output: &syncBuffer{}})
		require.Error(t, err)
	})
}

func TestRunMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Run(t.Context(), testSettings(), wavfile.New(filepath.Join(t.TempDir(), "missing.wav"), audiocore.DownmixAll, 0), Options{})
	require.Error(t, err)
}

// streamSource emits one error and then blocks until stopped.
type streamSource struct {
	errs    chan error
	done    chan struct{}
	once    sync.Once
	started chan struct{}
}

func newStreamSource() *streamSource {
	return &streamSource{
		errs:    make(chan error, audiocore.ErrorChannelSize),
		done:    make(chan struct{}),
		started: make(chan struct{}),
	}
}

func (s *streamSource) ID() string   { return "stream" }
func (s *streamSource) Name() string { return "stream" }
func (s *streamSource) Open() (audiocore.Format, error) {
	return audiocore.Format{SampleRate: 48000, Channels: 1, BitDepth: 32, Encoding: audiocore.EncodingF32LE}, nil
}

func (s *streamSource) Start(_ context.Context, handler audiocore.ChunkHandler) error {
	handler(make([]float32, 100))
	audiocore.ReportError(s.errs, errors.NewStd("buffer overrun"))
	close(s.started)
	return nil
}

func (s *streamSource) Stop() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

func (s *streamSource) Errors() <-chan error  { return s.errs }
func (s *streamSource) Done() <-chan struct{} { return s.done }

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	m, err := observability.NewMetrics()
	require.NoError(t, err)
	src := newStreamSource()

	ctx, cancel := context.WithCancel(t.Context())
	result := make(chan error, 1)
	go func() {
		_, err := Run(ctx, testSettings(), src, Options{Output: &syncBuffer{}, Metrics: m})
		result <- err
	}()

	<-src.started
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.Pitch.StreamErrors) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-result:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancellation")
	}
}

func TestValidateAudioFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.wav")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))

	tests := []struct {
		name     string
		path     string
		category errors.ErrorCategory
	}{
		{"missing", filepath.Join(dir, "missing.wav"), errors.CategoryFileIO},
		{"directory", dir, errors.CategoryValidation},
		{"empty", empty, errors.CategoryValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validateAudioFile(tt.path)
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, tt.category))
		})
	}

	require.NoError(t, validateAudioFile(writeSineWAV(t, 440, 44100, 1024)))
}

// syncBuffer is a strings.Builder safe for use across goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
