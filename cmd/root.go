// Package cmd wires the pitchtrack command line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/pitchtrack/cmd/config"
	"github.com/tphakala/pitchtrack/cmd/devices"
	"github.com/tphakala/pitchtrack/cmd/file"
	"github.com/tphakala/pitchtrack/cmd/realtime"
	"github.com/tphakala/pitchtrack/internal/buildinfo"
	"github.com/tphakala/pitchtrack/internal/conf"
	"github.com/tphakala/pitchtrack/internal/logger"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pitchtrack",
		Short:         "Real-time musical pitch detection",
		Long:          "pitchtrack estimates the fundamental frequency of monophonic audio and reports the nearest equal tempered note.",
		Version:       buildinfo.Current().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		// flag definitions are static, a failure here is a programming error
		panic(err)
	}

	configCmd := config.Command(settings)
	devicesCmd := devices.Command()

	rootCmd.AddCommand(
		realtime.Command(settings),
		file.Command(settings),
		devicesCmd,
		configCmd,
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// config and devices do not analyse audio, skip validation
		if cmd.Name() != configCmd.Name() && cmd.Parent() != configCmd && cmd.Name() != devicesCmd.Name() {
			if err := conf.ValidateSettings(settings); err != nil {
				return err
			}
		}
		return initialize(settings)
	}

	return rootCmd
}

// initialize replaces the fallback logger with one built from settings.
func initialize(settings *conf.Settings) error {
	level := settings.Log.Level
	if settings.Debug {
		level = "debug"
	}

	cfg := &logger.LoggingConfig{
		DefaultLevel: level,
		Console:      &logger.ConsoleOutput{Enabled: true, Level: level},
		ModuleLevels: settings.Log.Modules,
	}
	if settings.Log.File != "" {
		cfg.FileOutput = &logger.FileOutput{Enabled: true, Path: settings.Log.File, Level: level}
	}

	cl, err := logger.NewCentralLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.SetGlobal(cl)
	return nil
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	flags.IntVarP(&settings.Pitch.WindowSize, "window", "w", viper.GetInt("pitch.windowsize"), "Samples per analysis window")
	flags.Float64Var(&settings.Pitch.Overlap, "overlap", viper.GetFloat64("pitch.overlap"), "Fraction of a window shared with the next one, 0.0 to below 1.0")
	flags.Float64Var(&settings.Pitch.PowerThreshold, "power", viper.GetFloat64("pitch.powerthreshold"), "Minimum window energy to attempt an estimate")
	flags.Float64VarP(&settings.Pitch.ClarityThreshold, "clarity", "c", viper.GetFloat64("pitch.claritythreshold"), "Minimum clarity between 0.0 and 1.0 to report a note")
	flags.Float64Var(&settings.Pitch.PeakCutoff, "cutoff", viper.GetFloat64("pitch.peakcutoff"), "Key maximum cutoff relative to the highest peak")
	flags.Float64Var(&settings.Tuning.A4, "a4", viper.GetFloat64("tuning.a4"), "Reference frequency of A4 in Hz")
	flags.StringVarP(&settings.Output.Console.Format, "format", "f", viper.GetString("output.console.format"), "Console event format: text, json")
	flags.StringVar(&settings.Log.Level, "loglevel", viper.GetString("log.level"), "Log level: trace, debug, info, warn, error")
	flags.StringVar(&settings.Log.File, "logfile", viper.GetString("log.file"), "Also write JSON logs to this file")

	if err := viper.BindPFlags(flags); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
