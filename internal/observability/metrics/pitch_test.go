package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPitchMetricsRecording(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := NewPitchMetrics(registry)
	require.NoError(t, err)

	m.RecordWindow(VerdictAccepted, 0.0001)
	m.RecordWindow(VerdictAccepted, 0.0002)
	m.RecordWindow(VerdictSilent, 0.00001)
	m.RecordEstimate(440.2, 0.97)
	m.RecordDropped(SinkConsole)
	m.RecordDelivered(SinkMQTT)
	m.RecordStreamError()
	m.RecordError("audiocore", "audio-source")

	assert.InDelta(t, 2, testutil.ToFloat64(m.WindowsAnalyzed.WithLabelValues(VerdictAccepted)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.WindowsAnalyzed.WithLabelValues(VerdictSilent)), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.WindowsAnalyzed.WithLabelValues(VerdictUnclear)), 0)
	assert.InDelta(t, 440.2, testutil.ToFloat64(m.LastFrequency), 1e-9)
	assert.InDelta(t, 0.97, testutil.ToFloat64(m.LastClarity), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.EventsDropped.WithLabelValues(SinkConsole)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.EventsDelivered.WithLabelValues(SinkMQTT)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.StreamErrors), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ErrorsByCategory.WithLabelValues("audiocore", "audio-source")), 0)

	expected := `
# HELP pitchtrack_stream_errors_total Asynchronous errors reported by the audio source
# TYPE pitchtrack_stream_errors_total counter
pitchtrack_stream_errors_total 1
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "pitchtrack_stream_errors_total"))
}

func TestPitchMetricsNilReceiver(t *testing.T) {
	t.Parallel()

	var m *PitchMetrics
	assert.NotPanics(t, func() {
		m.RecordWindow(VerdictAccepted, 0.1)
		m.RecordEstimate(440, 1)
		m.RecordDropped(SinkConsole)
		m.RecordDelivered(SinkConsole)
		m.RecordStreamError()
		m.RecordError("a", "b")
	})

	var mq *MQTTMetrics
	assert.NotPanics(t, func() {
		mq.UpdateConnectionStatus(true)
		mq.IncrementErrors()
		mq.IncrementMessagesDelivered()
		mq.IncrementReconnectAttempts()
		mq.ObserveMessageSize(10)
		mq.ObservePublishLatency(time.Millisecond)
	})
}

func TestDuplicateRegistrationFails(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	_, err := NewPitchMetrics(registry)
	require.NoError(t, err)
	_, err = NewPitchMetrics(registry)
	require.Error(t, err)
}

func TestMQTTMetrics(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := NewMQTTMetrics(registry)
	require.NoError(t, err)

	m.UpdateConnectionStatus(true)
	m.IncrementMessagesDelivered()
	m.IncrementMessagesDelivered()
	m.ObservePublishLatency(3 * time.Millisecond)

	assert.InDelta(t, 1, testutil.ToFloat64(m.ConnectionStatus), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.MessagesDelivered), 0)

	m.UpdateConnectionStatus(false)
	assert.InDelta(t, 0, testutil.ToFloat64(m.ConnectionStatus), 0)

	count, err := testutil.GatherAndCount(registry, "pitchtrack_mqtt_publish_latency_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
