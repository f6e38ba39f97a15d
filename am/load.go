package am

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/medf/errors"
)

var globalConfig *Config
var viperInstance *viper.Viper

// Load reads the layered configuration once per process.
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	config, err := LoadWithViper(initViper())
	if err != nil {
		return nil, err
	}

	globalConfig = config
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() *viper.Viper {
	return initViper()
}

// LoadWithViper loads and validates configuration from a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadFromFile loads configuration from exactly one file on top of the
// defaults. User and project files are not consulted; MEDF_* variables
// still apply.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	bindEnv(v)
	SetDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	resetSources()
	for _, key := range v.AllKeys() {
		if v.InConfig(key) {
			recordSource(key, SourceExplicit, configPath)
		}
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", configPath)
	}

	viperInstance = v
	globalConfig = config
	return config, nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viperInstance = nil
	resetSources()
}

func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()
	bindEnv(v)
	SetDefaults(v)
	resetSources()
	mergeConfigFiles(v)

	viperInstance = v
	return v
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// UserConfigPath returns ~/.medf/config.toml, or "" without a home directory.
func UserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigName)
}

// FindProjectConfig walks up from the working directory looking for
// medf.toml and returns the first match, or "".
func FindProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		candidate := filepath.Join(dir, ProjectConfigName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// mergeConfigFiles merges config files into v's config layer, lowest
// precedence first. Environment variables sit above this layer.
func mergeConfigFiles(v *viper.Viper) {
	layers := []struct {
		path   string
		source ConfigSource
	}{
		{UserConfigPath(), SourceUser},
		{FindProjectConfig(), SourceProject},
	}

	for _, layer := range layers {
		if layer.path == "" {
			continue
		}
		if _, err := os.Stat(layer.path); err != nil {
			continue
		}

		fileViper := viper.New()
		fileViper.SetConfigFile(layer.path)
		fileViper.SetConfigType("toml")
		if err := fileViper.ReadInConfig(); err != nil {
			// Reported by config show rather than failing every command.
			skipFile(layer.path, err)
			continue
		}

		if err := v.MergeConfigMap(fileViper.AllSettings()); err != nil {
			skipFile(layer.path, err)
			continue
		}
		for _, key := range fileViper.AllKeys() {
			recordSource(key, layer.source, layer.path)
		}
	}
}

// Get returns a configuration value using dot notation
func Get(key string) any {
	return initViper().Get(key)
}

// GetString returns a configuration value as string using dot notation
func GetString(key string) string {
	return initViper().GetString(key)
}
