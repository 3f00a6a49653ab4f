// Package sources provides audio source implementations
package sources

import (
	"github.com/tphakala/pitchtrack/internal/audiocore"
	"github.com/tphakala/pitchtrack/internal/audiocore/sources/malgo"
	"github.com/tphakala/pitchtrack/internal/audiocore/sources/wavfile"
	"github.com/tphakala/pitchtrack/internal/conf"
)

// CreateSource returns a WAV file source when settings.InputFile is set and a
// capture device source otherwise.
func CreateSource(settings *conf.Settings) audiocore.Source {
	if settings.InputFile != "" {
		return wavfile.New(settings.InputFile, settings.Audio.Channel, settings.Audio.BufferFrames)
	}
	return malgo.New(malgo.Config{
		DeviceName:   settings.Audio.Source,
		SampleRate:   settings.Audio.SampleRate,
		Channels:     settings.Audio.Channels,
		Channel:      settings.Audio.Channel,
		BufferFrames: settings.Audio.BufferFrames,
	})
}

// ListAvailableDevices returns a list of available audio capture devices
func ListAvailableDevices() ([]malgo.DeviceInfo, error) {
	return malgo.ListDevices()
}
