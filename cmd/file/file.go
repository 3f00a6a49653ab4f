package file

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/pitchtrack/internal/analysis"
	"github.com/tphakala/pitchtrack/internal/conf"
)

// Command creates a new file command for analyzing a single audio file.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file [input.wav]",
		Short: "Analyze an audio file",
		Long:  "Run a PCM WAV file through the pitch pipeline and print its note events.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.InputFile = args[0]
			return analysis.FileAnalysis(settings)
		},
	}

	setupFlags(cmd, settings)

	return cmd
}

// setupFlags configures flags specific to the file command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.Flags().IntVar(&settings.Audio.Channel, "channel", viper.GetInt("audio.channel"), "Channel to analyse, -1 to downmix all channels")
	cmd.Flags().IntVar(&settings.Audio.BufferFrames, "chunk", viper.GetInt("audio.bufferframes"), "Frames read per chunk, 0 for the default")
}
