package realtime

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/pitchtrack/internal/analysis"
	"github.com/tphakala/pitchtrack/internal/conf"
)

// Command creates a new command for real-time audio analysis.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "realtime",
		Short: "Analyze audio in realtime mode",
		Long:  "Capture audio from an input device and print a note event for every window with a clear pitch.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return analysis.RealtimeAnalysis(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the realtime command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Audio.Source, "source", viper.GetString("audio.source"), "Audio capture device name or ID (\"default\" for the system default)")
	cmd.Flags().IntVar(&settings.Audio.SampleRate, "samplerate", viper.GetInt("audio.samplerate"), "Requested capture sample rate, 0 for the device rate")
	cmd.Flags().IntVar(&settings.Audio.Channels, "channels", viper.GetInt("audio.channels"), "Requested capture channel count, 0 for the device count")
	cmd.Flags().IntVar(&settings.Audio.Channel, "channel", viper.GetInt("audio.channel"), "Channel to analyse, -1 to downmix all channels")
	cmd.Flags().BoolVar(&settings.Telemetry.Enabled, "telemetry", viper.GetBool("telemetry.enabled"), "Enable Prometheus telemetry endpoint")
	cmd.Flags().StringVar(&settings.Telemetry.Listen, "listen", viper.GetString("telemetry.listen"), "Listen address and port of telemetry endpoint")
	cmd.Flags().BoolVar(&settings.Output.MQTT.Enabled, "mqtt", viper.GetBool("output.mqtt.enabled"), "Publish note events to MQTT")
	cmd.Flags().StringVar(&settings.Output.MQTT.Broker, "broker", viper.GetString("output.mqtt.broker"), "MQTT broker URL")
	cmd.Flags().StringVar(&settings.Output.MQTT.Topic, "topic", viper.GetString("output.mqtt.topic"), "MQTT topic for note events")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
