// Package am holds medf's layered configuration: built-in defaults, the
// user file, the nearest project file, then MEDF_* environment variables.
package am

// Config represents the medf configuration
type Config struct {
	Document DocumentConfig `mapstructure:"document" toml:"document" yaml:"document" json:"document"`
	Signing  SigningConfig  `mapstructure:"signing" toml:"signing" yaml:"signing" json:"signing"`
	Verify   VerifyConfig   `mapstructure:"verify" toml:"verify" yaml:"verify" json:"verify"`
	Schema   SchemaConfig   `mapstructure:"schema" toml:"schema" yaml:"schema" json:"schema"`
	Output   OutputConfig   `mapstructure:"output" toml:"output" yaml:"output" json:"output"`
}

// DocumentConfig supplies defaults for new documents (init, convert)
type DocumentConfig struct {
	Issuer       string `mapstructure:"issuer" toml:"issuer" yaml:"issuer" json:"issuer"`
	DocumentType string `mapstructure:"document_type" toml:"document_type" yaml:"document_type" json:"document_type"` // empty = omitted
	Language     string `mapstructure:"language" toml:"language" yaml:"language" json:"language"`                     // BCP 47, empty = omitted
	Role         string `mapstructure:"role" toml:"role" yaml:"role" json:"role"`                                     // role of template blocks
	Format       string `mapstructure:"format" toml:"format" yaml:"format" json:"format"`                             // block format tag
}

// SigningConfig configures medf sign
type SigningConfig struct {
	KeyPath string `mapstructure:"key_path" toml:"key_path" yaml:"key_path" json:"key_path"` // used when --key is not given
}

// VerifyConfig configures medf verify
type VerifyConfig struct {
	DigestWidth     int  `mapstructure:"digest_width" toml:"digest_width" yaml:"digest_width" json:"digest_width"`                     // displayed digest length, 0 = full
	CheckSignature  bool `mapstructure:"check_signature" toml:"check_signature" yaml:"check_signature" json:"check_signature"`         // false = report signatures as unverified
	WatchDebounceMS int  `mapstructure:"watch_debounce_ms" toml:"watch_debounce_ms" yaml:"watch_debounce_ms" json:"watch_debounce_ms"` // --watch settle time
}

// SchemaConfig configures medf validate
type SchemaConfig struct {
	Path string `mapstructure:"path" toml:"path" yaml:"path" json:"path"` // empty = built-in schema
}

// OutputConfig configures terminal output
type OutputConfig struct {
	JSON  bool `mapstructure:"json" toml:"json" yaml:"json" json:"json"`
	Color bool `mapstructure:"color" toml:"color" yaml:"color" json:"color"`
}

// File system constants
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)

// Config file names
const (
	ProjectConfigName = "medf.toml"
	UserConfigDir     = ".medf"
	UserConfigName    = "config.toml"
	EnvPrefix         = "MEDF"
)
