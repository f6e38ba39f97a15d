package am

import "github.com/teranos/medf/errors"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// 0 = print digests in full
	if c.Verify.DigestWidth < 0 || c.Verify.DigestWidth > 64 {
		return errors.Newf("verify.digest_width must be between 0 and 64, got %d", c.Verify.DigestWidth)
	}

	if c.Verify.WatchDebounceMS < 0 {
		return errors.Newf("verify.watch_debounce_ms must be >= 0, got %d", c.Verify.WatchDebounceMS)
	}

	if c.Document.Format == "" {
		return errors.New("document.format cannot be empty")
	}
	if c.Document.Role == "" {
		return errors.New("document.role cannot be empty")
	}

	return nil
}
