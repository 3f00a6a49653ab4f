package conf

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bytesReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}

func validSettings() *Settings {
	return &Settings{
		Pitch: PitchSettings{
			WindowSize:       DefaultWindowSize,
			PowerThreshold:   DefaultPowerThreshold,
			ClarityThreshold: DefaultClarityThreshold,
			PeakCutoff:       DefaultPeakCutoff,
		},
		Tuning: TuningSettings{A4: DefaultA4},
		Audio:  AudioSettings{Channel: -1},
		Output: OutputSettings{
			Console: ConsoleOutputSettings{Enabled: true, Format: "text", QueueSize: DefaultQueueSize},
		},
		Log: LogSettings{Level: "info"},
	}
}

func TestValidateSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr string
	}{
		{"valid defaults", func(s *Settings) {}, ""},
		{"odd window size", func(s *Settings) { s.Pitch.WindowSize = 513 }, "pitch.windowsize"},
		{"tiny window size", func(s *Settings) { s.Pitch.WindowSize = 16 }, "pitch.windowsize"},
		{"overlap of one", func(s *Settings) { s.Pitch.Overlap = 1 }, "pitch.overlap"},
		{"negative power threshold", func(s *Settings) { s.Pitch.PowerThreshold = -0.1 }, "pitch.powerthreshold"},
		{"clarity above one", func(s *Settings) { s.Pitch.ClarityThreshold = 1.1 }, "pitch.claritythreshold"},
		{"zero peak cutoff", func(s *Settings) { s.Pitch.PeakCutoff = 0 }, "pitch.peakcutoff"},
		{"zero tuning", func(s *Settings) { s.Tuning.A4 = 0 }, "tuning.a4"},
		{"channel out of range", func(s *Settings) { s.Audio.Channels = 2; s.Audio.Channel = 2 }, "audio.channel"},
		{"negative buffer frames", func(s *Settings) { s.Audio.BufferFrames = -1 }, "audio.bufferframes"},
		{"unknown console format", func(s *Settings) { s.Output.Console.Format = "xml" }, "output.console.format"},
		{"mqtt without broker", func(s *Settings) {
			s.Output.MQTT = MQTTOutputSettings{Enabled: true, Topic: "t", QueueSize: 1}
		}, "output.mqtt.broker"},
		{"mqtt broker not a url", func(s *Settings) {
			s.Output.MQTT = MQTTOutputSettings{Enabled: true, Broker: "localhost", Topic: "t", QueueSize: 1}
		}, "output.mqtt.broker"},
		{"mqtt valid", func(s *Settings) {
			s.Output.MQTT = MQTTOutputSettings{Enabled: true, Broker: "tcp://localhost:1883", Topic: "t", QueueSize: 1}
		}, ""},
		{"telemetry bad listen", func(s *Settings) {
			s.Telemetry = TelemetrySettings{Enabled: true, Listen: "8090"}
		}, "telemetry.listen"},
		{"sentry dsn not a url", func(s *Settings) { s.Telemetry.SentryDSN = "not a dsn" }, "telemetry.sentrydsn"},
		{"sentry dsn valid", func(s *Settings) { s.Telemetry.SentryDSN = "https://key@o1.ingest.sentry.io/2" }, ""},
		{"bad module log level", func(s *Settings) { s.Log.Modules = map[string]string{"mqtt": "loud"} }, "log.modules.mqtt"},
		{"module log level", func(s *Settings) { s.Log.Modules = map[string]string{"mqtt": "debug"} }, ""},
		{"bad log level", func(s *Settings) { s.Log.Level = "verbose" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := validSettings()
			tt.mutate(s)

			err := ValidateSettings(s)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateSettingsCollectsAllErrors(t *testing.T) {
	t.Parallel()

	s := validSettings()
	s.Pitch.WindowSize = 7
	s.Pitch.Overlap = -0.5
	s.Tuning.A4 = -440

	err := ValidateSettings(s)
	require.Error(t, err)

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 3)
}

func TestEnvValidators(t *testing.T) {
	t.Parallel()

	require.NoError(t, validateEnvBool("true"))
	require.Error(t, validateEnvBool("yes please"))
	require.NoError(t, validateEnvWindowSize("2048"))
	require.Error(t, validateEnvWindowSize("2047"))
	require.Error(t, validateEnvWindowSize("abc"))
	require.NoError(t, validateEnvUnitInterval("0.25"))
	require.Error(t, validateEnvUnitInterval("1.25"))
	require.NoError(t, validateEnvNonNegative("0"))
	require.Error(t, validateEnvNonNegative("-2"))
	require.NoError(t, validateEnvPositive("432"))
	require.Error(t, validateEnvPositive("0"))
}
