package am

import (
	"os"
	"sort"
	"strings"

	"github.com/teranos/medf/errors"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceUser        ConfigSource = "user"        // ~/.medf/config.toml
	SourceProject     ConfigSource = "project"     // nearest medf.toml
	SourceExplicit    ConfigSource = "explicit"    // --config FILE
	SourceEnvironment ConfigSource = "environment" // MEDF_* env vars
)

// SourceInfo tracks where a configuration value originated
type SourceInfo struct {
	Source ConfigSource
	Path   string // file path or environment variable name
}

// SkippedFile is a config file that exists but could not be read.
type SkippedFile struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ConfigSources maps dotted keys to the file layer that last set them.
var ConfigSources = map[string]SourceInfo{}

var skippedFiles []SkippedFile

func recordSource(key string, source ConfigSource, path string) {
	ConfigSources[key] = SourceInfo{Source: source, Path: path}
}

func skipFile(path string, err error) {
	skippedFiles = append(skippedFiles, SkippedFile{Path: path, Error: err.Error()})
}

func resetSources() {
	ConfigSources = map[string]SourceInfo{}
	skippedFiles = nil
}

// SettingInfo contains metadata about a configuration setting
type SettingInfo struct {
	Key        string       `json:"key"`
	Value      any          `json:"value"`
	Source     ConfigSource `json:"source"`
	SourcePath string       `json:"source_path,omitempty"`
}

// ConfigIntrospection describes the effective configuration
type ConfigIntrospection struct {
	Settings []SettingInfo `json:"settings"`
	Skipped  []SkippedFile `json:"skipped,omitempty"`
}

// Introspect returns every effective setting with the layer it came from,
// sorted by key.
func Introspect() (*ConfigIntrospection, error) {
	if _, err := Load(); err != nil {
		return nil, errors.Wrap(err, "failed to load config for introspection")
	}
	v := GetViper()

	keys := v.AllKeys()
	sort.Strings(keys)

	out := &ConfigIntrospection{
		Settings: make([]SettingInfo, 0, len(keys)),
		Skipped:  skippedFiles,
	}
	for _, key := range keys {
		info := SourceInfo{Source: SourceDefault}
		if si, ok := ConfigSources[key]; ok {
			info = si
		}
		if envKey := EnvName(key); os.Getenv(envKey) != "" {
			info = SourceInfo{Source: SourceEnvironment, Path: envKey}
		}

		out.Settings = append(out.Settings, SettingInfo{
			Key:        key,
			Value:      v.Get(key),
			Source:     info.Source,
			SourcePath: info.Path,
		})
	}
	return out, nil
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
