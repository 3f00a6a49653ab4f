// config.go: settings struct for pitchtrack and functions to load and save it.
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/pitchtrack/internal/errors"
)

//go:embed config.yaml
var configFiles embed.FS

// PitchSettings contains settings for the pitch estimator and window assembly.
type PitchSettings struct {
	WindowSize       int     // samples per analysis window, padding is half of this
	Overlap          float64 // fraction of a window retained between consecutive windows, 0 = disjoint
	PowerThreshold   float64 // minimum window energy (sum of squared samples)
	ClarityThreshold float64 // minimum NSDF peak height to accept an estimate
	PeakCutoff       float64 // key maximum selection cutoff relative to the global maximum
}

// TuningSettings contains the equal temperament reference.
type TuningSettings struct {
	A4 float64 // frequency of A4 in Hz
}

// AudioSettings contains capture source settings.
type AudioSettings struct {
	Source       string // capture device name or ID, "" or "default" selects the system default
	SampleRate   int    // requested sample rate, 0 uses the device native rate
	Channels     int    // requested channel count, 0 uses the device native count
	Channel      int    // channel to analyse, -1 downmixes all channels
	BufferFrames int    // capture period size in frames, 0 lets the backend decide
}

// ConsoleOutputSettings configures the console event writer.
type ConsoleOutputSettings struct {
	Enabled   bool
	Format    string // "text" or "json"
	QueueSize int    // events buffered before dropping
}

// MQTTOutputSettings configures MQTT publication of note events.
type MQTTOutputSettings struct {
	Enabled   bool
	Broker    string // e.g. tcp://localhost:1883
	Topic     string
	ClientID  string
	Username  string
	Password  string `yaml:"password,omitempty"`
	Retain    bool
	QueueSize int
}

// OutputSettings groups event sinks.
type OutputSettings struct {
	Console ConsoleOutputSettings
	MQTT    MQTTOutputSettings
}

// TelemetrySettings controls the Prometheus metrics endpoint.
type TelemetrySettings struct {
	Enabled   bool
	Listen    string // listen address, e.g. 0.0.0.0:8090
	SentryDSN string `yaml:"sentrydsn,omitempty"` // optional Sentry project DSN for error reports
}

// LogSettings controls application logging.
type LogSettings struct {
	Level   string            // trace, debug, info, warn or error
	File    string            // optional JSON log file path
	Modules map[string]string `yaml:"modules,omitempty"` // per-module level overrides, e.g. mqtt: debug
}

// Settings contains all configuration options for pitchtrack.
type Settings struct {
	Debug bool // true to enable debug mode

	Pitch     PitchSettings
	Tuning    TuningSettings
	Audio     AudioSettings
	Output    OutputSettings
	Telemetry TelemetrySettings
	Log       LogSettings

	InputFile string `yaml:"-"` // runtime value for the file command
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads defaults, the configuration file and environment variables into Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal").
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
// A missing configuration file is not an error; defaults apply.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := configureEnvironmentVariables(); err != nil {
		return err
	}

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return nil
		}
		return errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "read-config").
			Build()
	}

	return nil
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// DefaultConfig returns the embedded default configuration file contents.
func DefaultConfig() ([]byte, error) {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return nil, fmt.Errorf("error reading embedded config: %w", err)
	}
	return data, nil
}

// WriteDefaultConfig writes the embedded default configuration to configPath.
// An existing file is only replaced when overwrite is true.
func WriteDefaultConfig(configPath string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(configPath); err == nil {
			return errors.Newf("config file already exists: %s", configPath).
				Component("conf").
				Category(errors.CategoryFileIO).
				Build()
		}
	}

	data, err := DefaultConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	return writeFileAtomic(configPath, data)
}

// SaveYAMLConfig writes settings to configPath as YAML.
// It overwrites the existing file, not preserving comments or structure.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	return writeFileAtomic(configPath, yamlData)
}

// writeFileAtomic writes data to a temporary file next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tempFile, err := os.CreateTemp(filepath.Dir(path), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempFileName, path); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}

	return nil
}
