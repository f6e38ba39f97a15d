// Package medf defines the MeDF document model: documents made of
// independently hashable blocks, the hash and signature annotations the
// integrity pipeline writes onto them, and their strict JSON persistence.
package medf

// Document is a MeDF document as persisted on disk.
//
// Field order here is the order fields are written back. Optional fields are
// written when Has reports them. Which fields take part in the document hash
// is decided by the hashtree package, never by reflection over this struct.
type Document struct {
	Version      string         `json:"medf_version"`            // Format version tag, e.g. "0.2.1"
	DocumentType string         `json:"document_type,omitempty"` // Optional classification (public_notice, report, ...)
	ID           string         `json:"id"`                      // Document identifier
	Snapshot     string         `json:"snapshot"`                // ISO-8601 issuance/snapshot timestamp
	Issuer       any            `json:"issuer,omitempty"`        // String or structured authority descriptor
	Language     string         `json:"language,omitempty"`      // Optional BCP 47 language tag
	Blocks       []Block        `json:"blocks"`                  // Ordered content blocks
	References   []Reference    `json:"references,omitempty"`    // Optional URI descriptors
	Extensions   map[string]any `json:"extensions,omitempty"`    // Producer-defined extension map
	Index        any            `json:"index,omitempty"`         // Derived navigation index, never hashed
	DocHash      *Hash          `json:"doc_hash,omitempty"`      // Derived by hashtree.Pack
	Signature    *Signature     `json:"signature,omitempty"`     // Written by signing.Sign

	present map[string]bool // optional keys read with an empty value
}

// Block is a named, independently hashable unit of content.
type Block struct {
	ID     string `json:"block_id"`             // Unique within the document; diff join key
	Role   string `json:"role"`                 // Free-form tag, e.g. "body"
	Format string `json:"format"`               // Content format tag, e.g. "markdown"
	Text   string `json:"text"`                 // Raw text content
	Hash   *Hash  `json:"block_hash,omitempty"` // Absent until hashed
}

// Reference is a URI descriptor attached to a document.
type Reference struct {
	URI   string `json:"uri"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`

	present map[string]bool
}

// Signature is a detached signature over the document hash's hex value.
type Signature struct {
	Algorithm string `json:"algorithm"`  // e.g. "ed25519"
	Value     string `json:"value"`      // Encoded signature bytes
	PublicKey string `json:"public_key"` // Encoded public key of the signer
	SignedAt  string `json:"signed_at"`  // RFC 3339 signing time
}

// Block returns the block with the given identifier, or nil.
func (d *Document) Block(id string) *Block {
	for i := range d.Blocks {
		if d.Blocks[i].ID == id {
			return &d.Blocks[i]
		}
	}
	return nil
}

// BlockIDs returns block identifiers in document order.
func (d *Document) BlockIDs() []string {
	ids := make([]string, len(d.Blocks))
	for i, b := range d.Blocks {
		ids[i] = b.ID
	}
	return ids
}

// IsHashed reports whether the document carries a document hash.
func (d *Document) IsHashed() bool {
	return d.DocHash != nil && d.DocHash.Value != ""
}

// IsSigned reports whether the document carries a signature.
func (d *Document) IsSigned() bool {
	return d.Signature != nil
}
