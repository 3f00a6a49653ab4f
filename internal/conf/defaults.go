// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Default pitch analysis values
const (
	DefaultWindowSize       = 512
	DefaultPowerThreshold   = 1.0
	DefaultClarityThreshold = 0.3
	DefaultPeakCutoff       = 0.9
	DefaultA4               = 440.0
	DefaultQueueSize        = 64
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("pitch.windowsize", DefaultWindowSize)
	viper.SetDefault("pitch.overlap", 0.0)
	viper.SetDefault("pitch.powerthreshold", DefaultPowerThreshold)
	viper.SetDefault("pitch.claritythreshold", DefaultClarityThreshold)
	viper.SetDefault("pitch.peakcutoff", DefaultPeakCutoff)

	viper.SetDefault("tuning.a4", DefaultA4)

	viper.SetDefault("audio.source", "default")
	viper.SetDefault("audio.samplerate", 0)
	viper.SetDefault("audio.channels", 0)
	viper.SetDefault("audio.channel", -1)
	viper.SetDefault("audio.bufferframes", 0)

	viper.SetDefault("output.console.enabled", true)
	viper.SetDefault("output.console.format", "text")
	viper.SetDefault("output.console.queuesize", DefaultQueueSize)

	viper.SetDefault("output.mqtt.enabled", false)
	viper.SetDefault("output.mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("output.mqtt.topic", "pitchtrack/notes")
	viper.SetDefault("output.mqtt.clientid", "pitchtrack")
	viper.SetDefault("output.mqtt.username", "")
	viper.SetDefault("output.mqtt.password", "")
	viper.SetDefault("output.mqtt.retain", false)
	viper.SetDefault("output.mqtt.queuesize", DefaultQueueSize)

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.listen", "0.0.0.0:8090")
	viper.SetDefault("telemetry.sentrydsn", "")

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file", "")
}
