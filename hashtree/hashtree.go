// Package hashtree derives the two-level hash of a MeDF document: one hash
// per block over the block's stable fields, then one document hash over the
// document's stable fields including the block hashes.
//
// Both inputs are built from explicit allow-lists. A field added to the
// document model later does not start (or stop) affecting any hash until it
// is added here deliberately.
package hashtree

import (
	"github.com/teranos/medf/digest"
	"github.com/teranos/medf/errors"
	"github.com/teranos/medf/logger"
	"github.com/teranos/medf/medf"
)

// BlockInput returns the exact value a block hash is computed over:
// block_id, role, format and text. The stored block_hash never participates.
func BlockInput(b *medf.Block) map[string]any {
	return map[string]any{
		"block_id": b.ID,
		"role":     b.Role,
		"format":   b.Format,
		"text":     b.Text,
	}
}

// DocumentInput returns the exact value the document hash is computed over.
//
// doc_hash, signature and index are never included. Optional fields join the
// input exactly when the document carries the key, including keys persisted
// with an empty value such as "references": [] or "issuer": null.
func DocumentInput(doc *medf.Document) map[string]any {
	blocks := make([]any, len(doc.Blocks))
	for i := range doc.Blocks {
		b := &doc.Blocks[i]
		entry := BlockInput(b)
		if b.Hash != nil {
			entry["block_hash"] = b.Hash.CanonicalValue()
		}
		blocks[i] = entry
	}

	input := map[string]any{
		"medf_version": doc.Version,
		"id":           doc.ID,
		"snapshot":     doc.Snapshot,
		"blocks":       blocks,
	}
	if doc.Has(medf.KeyDocumentType) {
		input[medf.KeyDocumentType] = doc.DocumentType
	}
	if doc.Has(medf.KeyIssuer) {
		input[medf.KeyIssuer] = doc.Issuer
	}
	if doc.Has(medf.KeyLanguage) {
		input[medf.KeyLanguage] = doc.Language
	}
	if doc.Has(medf.KeyReferences) {
		input[medf.KeyReferences] = referencesInput(doc.References)
	}
	if doc.Has(medf.KeyExtensions) {
		if doc.Extensions == nil {
			input[medf.KeyExtensions] = nil
		} else {
			input[medf.KeyExtensions] = doc.Extensions
		}
	}
	return input
}

// referencesInput mirrors the persisted references; a key read as null
// stays null.
func referencesInput(refs []medf.Reference) any {
	if refs == nil {
		return nil
	}
	out := make([]any, len(refs))
	for i := range refs {
		r := &refs[i]
		ref := map[string]any{"uri": r.URI}
		if r.Has(medf.KeyReferenceType) {
			ref[medf.KeyReferenceType] = r.Type
		}
		if r.Has(medf.KeyReferenceTitle) {
			ref[medf.KeyReferenceTitle] = r.Title
		}
		out[i] = ref
	}
	return out
}

// HashBlock computes a block's hash without modifying it.
func HashBlock(b *medf.Block) (string, error) {
	value, err := digest.Of(BlockInput(b))
	if err != nil {
		return "", errors.Wrapf(err, "failed to hash block %s", b.ID)
	}
	return value, nil
}

// HashDocument computes the document hash from the block hashes currently
// stored on the document. It does not recompute block hashes; call Pack for
// that.
func HashDocument(doc *medf.Document) (string, error) {
	value, err := digest.Of(DocumentInput(doc))
	if err != nil {
		return "", errors.Wrapf(err, "failed to hash document %s", doc.ID)
	}
	return value, nil
}

// Pack writes a fresh block hash onto every block and then the document hash.
//
// Block hashes are part of the document-hash input, so the order is fixed.
// Existing block hashes keep their persisted form; new ones are written in
// the compact bare-string form. On error the document is left unmodified.
func Pack(doc *medf.Document) error {
	blockHashes := make([]string, len(doc.Blocks))
	for i := range doc.Blocks {
		value, err := HashBlock(&doc.Blocks[i])
		if err != nil {
			return err
		}
		blockHashes[i] = value
	}

	// Compute the document hash on a shallow copy so a failure cannot leave
	// half-written block hashes behind.
	staged := *doc
	staged.Blocks = make([]medf.Block, len(doc.Blocks))
	copy(staged.Blocks, doc.Blocks)
	for i := range staged.Blocks {
		staged.Blocks[i].Hash = rehash(staged.Blocks[i].Hash, blockHashes[i])
	}

	docValue, err := HashDocument(&staged)
	if err != nil {
		return err
	}

	doc.Blocks = staged.Blocks
	if doc.DocHash != nil && doc.DocHash.Value == docValue && doc.DocHash.Algorithm == digest.Algorithm {
		logger.Debugw("Document hash unchanged", logger.FieldDocument, doc.ID)
	} else {
		doc.DocHash = medf.NewHash(digest.Algorithm, docValue)
	}

	logger.Debugw("Packed document",
		logger.FieldDocument, doc.ID,
		logger.FieldCount, len(doc.Blocks),
		logger.FieldDigest, docValue)
	return nil
}

func rehash(prev *medf.Hash, value string) *medf.Hash {
	if prev != nil && !prev.Compact() {
		return medf.NewHash(digest.Algorithm, value)
	}
	return medf.NewCompactHash(value)
}
