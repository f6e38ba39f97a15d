package am

import (
	"github.com/spf13/viper"
)

// Default values referenced outside the package
const (
	DefaultIssuer          = "example"
	DefaultRole            = "body"
	DefaultFormat          = "markdown"
	DefaultDigestWidth     = 12
	DefaultWatchDebounceMS = 300
)

// SetDefaults configures default values for all configuration options.
// Every key needs a default so AutomaticEnv can resolve it during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("document.issuer", DefaultIssuer)
	v.SetDefault("document.document_type", "")
	v.SetDefault("document.language", "")
	v.SetDefault("document.role", DefaultRole)
	v.SetDefault("document.format", DefaultFormat)

	v.SetDefault("signing.key_path", "")

	v.SetDefault("verify.digest_width", DefaultDigestWidth)
	v.SetDefault("verify.check_signature", true)
	v.SetDefault("verify.watch_debounce_ms", DefaultWatchDebounceMS)

	v.SetDefault("schema.path", "")

	v.SetDefault("output.json", false)
	v.SetDefault("output.color", true)
}
