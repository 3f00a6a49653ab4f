package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// isolateConfig points HOME at an empty directory and resets viper.
func isolateConfig(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	viper.Reset()
	t.Cleanup(viper.Reset)
	return home
}

func writeUserConfig(t *testing.T, home, content string) {
	t.Helper()
	dir := filepath.Join(home, ".config", appDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))
}

func TestLoadDefaults(t *testing.T) {
	isolateConfig(t)

	settings, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultWindowSize, settings.Pitch.WindowSize)
	assert.InDelta(t, 0.0, settings.Pitch.Overlap, 1e-12)
	assert.InDelta(t, DefaultPowerThreshold, settings.Pitch.PowerThreshold, 1e-12)
	assert.InDelta(t, DefaultClarityThreshold, settings.Pitch.ClarityThreshold, 1e-12)
	assert.InDelta(t, DefaultPeakCutoff, settings.Pitch.PeakCutoff, 1e-12)
	assert.InDelta(t, DefaultA4, settings.Tuning.A4, 1e-12)
	assert.Equal(t, -1, settings.Audio.Channel)
	assert.True(t, settings.Output.Console.Enabled)
	assert.Equal(t, "text", settings.Output.Console.Format)
	assert.False(t, settings.Output.MQTT.Enabled)
	assert.Same(t, settings, GetSettings())
}

func TestLoadConfigFileAndEnvOverride(t *testing.T) {
	home := isolateConfig(t)
	writeUserConfig(t, home, `
pitch:
  windowsize: 1024
  overlap: 0.5
tuning:
  a4: 442
output:
  console:
    format: json
`)
	t.Setenv("PITCHTRACK_PITCH_CLARITYTHRESHOLD", "0.6")

	settings, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1024, settings.Pitch.WindowSize)
	assert.InDelta(t, 0.5, settings.Pitch.Overlap, 1e-12)
	assert.InDelta(t, 442.0, settings.Tuning.A4, 1e-12)
	assert.Equal(t, "json", settings.Output.Console.Format)
	assert.InDelta(t, 0.6, settings.Pitch.ClarityThreshold, 1e-12)
	// untouched keys keep their defaults
	assert.InDelta(t, DefaultPeakCutoff, settings.Pitch.PeakCutoff, 1e-12)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	home := isolateConfig(t)
	writeUserConfig(t, home, `
pitch:
  windowsize: 511
tuning:
  a4: -1
`)

	_, err := Load()
	require.Error(t, err)

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 2)
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	isolateConfig(t)
	t.Setenv("PITCHTRACK_PITCH_OVERLAP", "1.5")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PITCHTRACK_PITCH_OVERLAP")
}

func TestSaveYAMLConfigRoundTrip(t *testing.T) {
	isolateConfig(t)
	settings, err := Load()
	require.NoError(t, err)

	settings.Tuning.A4 = 432
	settings.Output.MQTT.Password = ""
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SaveYAMLConfig(path, settings))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Settings
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.InDelta(t, 432.0, decoded.Tuning.A4, 1e-12)
	assert.Equal(t, settings.Pitch, decoded.Pitch)
	assert.NotContains(t, string(data), "password")
}

func TestWriteDefaultConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path, false))

	embedded, err := DefaultConfig()
	require.NoError(t, err)
	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, embedded, written)

	require.Error(t, WriteDefaultConfig(path, false), "existing file must not be replaced")
	require.NoError(t, WriteDefaultConfig(path, true))
}

func TestEmbeddedConfigMatchesDefaults(t *testing.T) {
	t.Parallel()

	data, err := DefaultConfig()
	require.NoError(t, err)

	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytesReader(data)))

	assert.Equal(t, DefaultWindowSize, v.GetInt("pitch.windowsize"))
	assert.InDelta(t, DefaultClarityThreshold, v.GetFloat64("pitch.claritythreshold"), 1e-12)
	assert.InDelta(t, DefaultA4, v.GetFloat64("tuning.a4"), 1e-12)
	assert.Equal(t, -1, v.GetInt("audio.channel"))
}
