package medf

import "time"

// TemplateOptions seeds a new document.
type TemplateOptions struct {
	ID       string
	Issuer   string
	Version  string
	Role     string
	Format   string
	Snapshot time.Time
}

// Template returns a minimal unhashed document with a single example block.
func Template(opts TemplateOptions) *Document {
	if opts.ID == "" {
		opts.ID = "example-doc"
	}
	if opts.Issuer == "" {
		opts.Issuer = "example"
	}
	if opts.Version == "" {
		opts.Version = CurrentVersion
	}
	if opts.Role == "" {
		opts.Role = "body"
	}
	if opts.Format == "" {
		opts.Format = "markdown"
	}
	if opts.Snapshot.IsZero() {
		opts.Snapshot = time.Now()
	}

	return &Document{
		Version:  opts.Version,
		ID:       opts.ID,
		Snapshot: FormatTimestamp(opts.Snapshot),
		Issuer:   opts.Issuer,
		Blocks: []Block{
			{
				ID:     "example",
				Role:   opts.Role,
				Format: opts.Format,
				Text:   "Hello MEDF",
			},
		},
	}
}

// FormatTimestamp renders t as an RFC 3339 UTC timestamp.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
