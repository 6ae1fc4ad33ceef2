package config

import (
	"fmt"
	"strings"

	internal "github.com/ZanzyTHEbar/columnar-inspect/cinspect"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Inspect InspectConfig `mapstructure:"inspect"`
	Log     LogConfig     `mapstructure:"log"`
}

// InspectConfig stores inspection related configurations.
type InspectConfig struct {
	// Dataset is the default dataset name looked up in each container file.
	// Empty means every dataset in the file.
	Dataset string `mapstructure:"dataset"`
	// Output selects the report rendering: "text" or "json".
	Output string `mapstructure:"output"`
	// MaxWorkers bounds the batch inspection pool; 0 means unbounded.
	MaxWorkers int `mapstructure:"maxWorkers"`
	// IgnoreFile is the gitignore-style file consulted when scanning
	// directories for container files.
	IgnoreFile string `mapstructure:"ignoreFile"`
}

// LogConfig stores logging configurations.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath(internal.DefaultConfigPath)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Set default values
	viper.SetDefault("inspect.dataset", "")
	viper.SetDefault("inspect.output", "text")
	viper.SetDefault("inspect.maxWorkers", 0)
	viper.SetDefault("inspect.ignoreFile", internal.DefaultIgnoreFileName)
	viper.SetDefault("log.level", "info")

	viper.SetEnvPrefix(strings.ToUpper(internal.DefaultAppName))
	viper.AutomaticEnv()                                   // Read in environment variables that match
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // inspect.maxWorkers becomes CINSPECT_INSPECT_MAXWORKERS

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; defaults will be used.
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &AppConfig, nil
}
