package commands

import (
	"github.com/teranos/medf/errors"
	"github.com/teranos/medf/logger"
	"github.com/teranos/medf/medf"
)

// loadDocument reads a document and checks that its medf_version is one
// this build can hash.
func loadDocument(path string) (*medf.Document, error) {
	doc, err := medf.Load(path)
	if err != nil {
		return nil, err
	}
	if err := medf.CheckVersion(doc.Version); err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	logger.DocumentLogger(path, doc.ID).Debugw("Document loaded",
		logger.FieldVersion, doc.Version,
		logger.FieldCount, len(doc.Blocks))
	return doc, nil
}

// digestWidth is the configured display width for digests.
func digestWidth() int {
	if cfg == nil {
		return 0
	}
	return cfg.Verify.DigestWidth
}

// jsonDefault is the configured default for --json.
func jsonDefault() bool {
	return cfg != nil && cfg.Output.JSON
}
