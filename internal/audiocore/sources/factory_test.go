package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/pitchtrack/internal/audiocore"
	"github.com/tphakala/pitchtrack/internal/conf"
)

func TestCreateSource(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Audio.Source = "USB"
	settings.Audio.Channel = audiocore.DownmixAll

	live := CreateSource(settings)
	assert.Equal(t, "malgo", live.ID())
	assert.Equal(t, "USB", live.Name())

	settings.InputFile = "/tmp/take1.wav"
	file := CreateSource(settings)
	assert.Equal(t, "file:/tmp/take1.wav", file.ID())
	assert.Equal(t, "take1.wav", file.Name())
}
