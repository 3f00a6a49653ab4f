// env.go - environment variable configuration and validation
package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. PITCHTRACK_PITCH_WINDOWSIZE.
const EnvPrefix = "PITCHTRACK"

// envBinding holds metadata for environment variable bindings
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns environment variable bindings that get early validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "PITCHTRACK_DEBUG", validateEnvBool},
		{"pitch.windowsize", "PITCHTRACK_PITCH_WINDOWSIZE", validateEnvWindowSize},
		{"pitch.overlap", "PITCHTRACK_PITCH_OVERLAP", validateEnvUnitInterval},
		{"pitch.claritythreshold", "PITCHTRACK_PITCH_CLARITYTHRESHOLD", validateEnvUnitInterval},
		{"pitch.peakcutoff", "PITCHTRACK_PITCH_PEAKCUTOFF", validateEnvUnitInterval},
		{"pitch.powerthreshold", "PITCHTRACK_PITCH_POWERTHRESHOLD", validateEnvNonNegative},
		{"tuning.a4", "PITCHTRACK_TUNING_A4", validateEnvPositive},
		{"audio.source", "PITCHTRACK_AUDIO_SOURCE", nil},
		{"output.mqtt.broker", "PITCHTRACK_OUTPUT_MQTT_BROKER", nil},
		{"output.mqtt.password", "PITCHTRACK_OUTPUT_MQTT_PASSWORD", nil},
	}
}

// bindEnvVars sets up environment variable bindings with validation
func bindEnvVars() error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be true or false")
	}
	return nil
}

func validateEnvWindowSize(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("must be an integer")
	}
	if n < MinWindowSize || n%2 != 0 {
		return fmt.Errorf("must be an even number of at least %d", MinWindowSize)
	}
	return nil
}

func validateEnvUnitInterval(value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if f < 0 || f > 1 {
		return fmt.Errorf("must be between 0 and 1")
	}
	return nil
}

func validateEnvNonNegative(value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if f < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

func validateEnvPositive(value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if f <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

// configureEnvironmentVariables sets up environment variable support for Viper
func configureEnvironmentVariables() error {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	return bindEnvVars()
}
