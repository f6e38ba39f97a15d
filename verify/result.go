package verify

import (
	"fmt"

	"github.com/teranos/medf/digest"
)

// Outcome classifies a verification run.
type Outcome string

const (
	OutcomeOK                   Outcome = "ok"
	OutcomeBlockHashMismatch    Outcome = "block-hash-mismatch"
	OutcomeDocumentHashMismatch Outcome = "document-hash-mismatch"
	OutcomeMissingHash          Outcome = "missing-hash"
	OutcomeSignatureInvalid     Outcome = "signature-invalid"
)

// SignatureStatus reports what was learned about the signature.
type SignatureStatus string

const (
	SignatureAbsent            SignatureStatus = "absent"
	SignaturePresentValid      SignatureStatus = "present-valid"
	SignaturePresentInvalid    SignatureStatus = "present-invalid"
	SignaturePresentUnverified SignatureStatus = "present-unverified"
)

// TrustDecision is always "not evaluated" in one of its two forms. Proving
// that bytes are unchanged says nothing about whether the signer or the
// content should be trusted.
type TrustDecision string

const (
	TrustNotEvaluated  TrustDecision = "not-evaluated"
	TrustNotApplicable TrustDecision = "not-applicable"
)

// Result is the outcome of verifying one document. It is data, not an
// error: a failed verification is an expected answer.
type Result struct {
	Outcome       Outcome         `json:"outcome"`
	DocumentID    string          `json:"document_id,omitempty"`
	BlockID       string          `json:"block_id,omitempty"`
	Expected      string          `json:"expected,omitempty"`
	Actual        string          `json:"actual,omitempty"`
	Signature     SignatureStatus `json:"signature,omitempty"`
	TrustDecision TrustDecision   `json:"trust_decision,omitempty"`
	Detail        string          `json:"detail,omitempty"`
	Warnings      []string        `json:"warnings,omitempty"`

	// counters for Explain
	blocksChecked int
	blocksSkipped int
}

// OK reports whether every check passed.
func (r Result) OK() bool {
	return r.Outcome == OutcomeOK
}

// Explain returns human-readable lines describing each step the verifier
// took. Digests are printed in full; callers truncate for display.
func (r Result) Explain() []string {
	var lines []string

	switch r.Outcome {
	case OutcomeBlockHashMismatch:
		lines = append(lines, fmt.Sprintf("block %q: stored hash does not match its content", r.BlockID))
		lines = append(lines, r.digestLines()...)
		return append(lines, "remaining blocks were not checked")
	}

	lines = append(lines, fmt.Sprintf("blocks: %d checked, %d without a stored hash", r.blocksChecked, r.blocksSkipped))

	switch r.Outcome {
	case OutcomeMissingHash:
		lines = append(lines, "doc_hash: absent, run 'medf pack' to hash the document")
		return lines
	case OutcomeDocumentHashMismatch:
		lines = append(lines, "doc_hash: stored hash does not match the document")
		return append(lines, r.digestLines()...)
	}

	lines = append(lines, "doc_hash: matches ("+digest.Algorithm+")")

	switch r.Signature {
	case SignatureAbsent:
		lines = append(lines, "signature: none")
	case SignaturePresentValid:
		lines = append(lines, "signature: valid for the stored public key")
	case SignaturePresentUnverified:
		lines = append(lines, "signature: present but not checked")
	case SignaturePresentInvalid:
		lines = append(lines, "signature: does not verify against doc_hash and public key")
	}
	if r.Detail != "" {
		lines = append(lines, "  "+r.Detail)
	}
	for _, w := range r.Warnings {
		lines = append(lines, "warning: "+w)
	}

	lines = append(lines, "trust: "+string(r.TrustDecision)+" (integrity only, not authority or correctness)")
	return lines
}

func (r Result) digestLines() []string {
	lines := []string{"  expected (stored): " + r.Expected}
	if r.Actual != "" {
		lines = append(lines, "  actual (recomputed): "+r.Actual)
	}
	if r.Detail != "" {
		lines = append(lines, "  "+r.Detail)
	}
	return lines
}
