// conf/validate.go

package conf

import (
	"fmt"
	"math"
	"net"
	"net/url"
	"strings"
)

// MinWindowSize is the smallest analysis window accepted
const MinWindowSize = 32

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	ve.Errors = append(ve.Errors, validatePitchSettings(&settings.Pitch)...)

	if err := validateTuningSettings(&settings.Tuning); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	ve.Errors = append(ve.Errors, validateAudioSettings(&settings.Audio)...)
	ve.Errors = append(ve.Errors, validateOutputSettings(&settings.Output)...)

	if err := validateTelemetrySettings(&settings.Telemetry); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateLogSettings(&settings.Log); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validatePitchSettings(settings *PitchSettings) []string {
	var errs []string

	if settings.WindowSize < MinWindowSize || settings.WindowSize%2 != 0 {
		errs = append(errs, fmt.Sprintf("pitch.windowsize must be an even number of at least %d, got %d", MinWindowSize, settings.WindowSize))
	}
	if settings.Overlap < 0 || settings.Overlap >= 1 {
		errs = append(errs, fmt.Sprintf("pitch.overlap must be in [0, 1), got %g", settings.Overlap))
	}
	if settings.PowerThreshold < 0 || math.IsNaN(settings.PowerThreshold) {
		errs = append(errs, fmt.Sprintf("pitch.powerthreshold must not be negative, got %g", settings.PowerThreshold))
	}
	if settings.ClarityThreshold < 0 || settings.ClarityThreshold > 1 {
		errs = append(errs, fmt.Sprintf("pitch.claritythreshold must be between 0 and 1, got %g", settings.ClarityThreshold))
	}
	if settings.PeakCutoff <= 0 || settings.PeakCutoff > 1 {
		errs = append(errs, fmt.Sprintf("pitch.peakcutoff must be in (0, 1], got %g", settings.PeakCutoff))
	}

	return errs
}

func validateTuningSettings(settings *TuningSettings) error {
	if settings.A4 <= 0 || math.IsNaN(settings.A4) || math.IsInf(settings.A4, 0) {
		return fmt.Errorf("tuning.a4 must be a positive frequency, got %g", settings.A4)
	}
	return nil
}

func validateAudioSettings(settings *AudioSettings) []string {
	var errs []string

	if settings.SampleRate < 0 {
		errs = append(errs, fmt.Sprintf("audio.samplerate must not be negative, got %d", settings.SampleRate))
	}
	if settings.Channels < 0 {
		errs = append(errs, fmt.Sprintf("audio.channels must not be negative, got %d", settings.Channels))
	}
	if settings.Channel < -1 {
		errs = append(errs, fmt.Sprintf("audio.channel must be -1 (downmix) or a channel index, got %d", settings.Channel))
	}
	if settings.Channels > 0 && settings.Channel >= settings.Channels {
		errs = append(errs, fmt.Sprintf("audio.channel %d is out of range for %d channels", settings.Channel, settings.Channels))
	}
	if settings.BufferFrames < 0 {
		errs = append(errs, fmt.Sprintf("audio.bufferframes must not be negative, got %d", settings.BufferFrames))
	}

	return errs
}

func validateOutputSettings(settings *OutputSettings) []string {
	var errs []string

	switch strings.ToLower(settings.Console.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("output.console.format must be text or json, got %q", settings.Console.Format))
	}
	if settings.Console.Enabled && settings.Console.QueueSize <= 0 {
		errs = append(errs, "output.console.queuesize must be positive")
	}

	if settings.MQTT.Enabled {
		if settings.MQTT.Broker == "" {
			errs = append(errs, "output.mqtt.broker is required when MQTT output is enabled")
		} else if u, err := url.Parse(settings.MQTT.Broker); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("output.mqtt.broker must be a URL such as tcp://host:1883, got %q", settings.MQTT.Broker))
		}
		if settings.MQTT.Topic == "" {
			errs = append(errs, "output.mqtt.topic is required when MQTT output is enabled")
		}
		if settings.MQTT.QueueSize <= 0 {
			errs = append(errs, "output.mqtt.queuesize must be positive")
		}
	}

	return errs
}

func validateTelemetrySettings(settings *TelemetrySettings) error {
	if settings.SentryDSN != "" {
		u, err := url.Parse(settings.SentryDSN)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return fmt.Errorf("telemetry.sentrydsn must be an http(s) URL, got %q", settings.SentryDSN)
		}
	}
	if !settings.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(settings.Listen); err != nil {
		return fmt.Errorf("telemetry.listen must be host:port, got %q: %w", settings.Listen, err)
	}
	return nil
}

func validateLogSettings(settings *LogSettings) error {
	if !validLogLevel(settings.Level) {
		return fmt.Errorf("log.level must be one of trace, debug, info, warn, error; got %q", settings.Level)
	}
	for module, level := range settings.Modules {
		if level == "" || !validLogLevel(level) {
			return fmt.Errorf("log.modules.%s must be one of trace, debug, info, warn, error; got %q", module, level)
		}
	}
	return nil
}

func validLogLevel(level string) bool {
	switch strings.ToLower(level) {
	case "", "trace", "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}
