package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/pitchtrack/internal/conf"
)

// Command creates the config command group.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(initCommand(), saveCommand(settings))
	return cmd
}

func initCommand() *cobra.Command {
	var path string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := resolvePath(path)
			if err != nil {
				return err
			}
			if err := conf.WriteDefaultConfig(target, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", target)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "Configuration file path, defaults to the user config directory")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func saveCommand(settings *conf.Settings) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Write the effective settings, including flags, as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := conf.ValidateSettings(settings); err != nil {
				return err
			}
			target, err := resolvePath(path)
			if err != nil {
				return err
			}
			if err := conf.SaveYAMLConfig(target, settings); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved configuration to %s\n", target)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "Configuration file path, defaults to the user config directory")
	return cmd
}

func resolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return conf.DefaultConfigFilePath()
}
