// Package verify checks a MeDF document's block hashes, document hash and
// signature, in that order, stopping at the first failure.
//
// Signature verification is an injected capability. A Verifier built
// without one still checks hashes and reports a present signature as
// unverified rather than skipping it silently.
package verify

import (
	"fmt"

	"github.com/teranos/medf/digest"
	"github.com/teranos/medf/hashtree"
	"github.com/teranos/medf/logger"
	"github.com/teranos/medf/medf"
	"github.com/teranos/medf/signing"
)

// Verifier runs the verification state machine.
type Verifier struct {
	signatures signing.Verifier
	skipSig    bool
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithSignatureVerifier installs the signature capability. A nil verifier
// leaves the capability unavailable.
func WithSignatureVerifier(sv signing.Verifier) Option {
	return func(v *Verifier) {
		v.signatures = sv
	}
}

// WithoutSignatureCheck reports any signature as present-unverified even
// when a capability is installed.
func WithoutSignatureCheck() Option {
	return func(v *Verifier) {
		v.skipSig = true
	}
}

// New creates a Verifier.
func New(opts ...Option) *Verifier {
	v := &Verifier{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify checks doc and returns the classification. It never modifies doc.
func (v *Verifier) Verify(doc *medf.Document) Result {
	res := Result{DocumentID: doc.ID}

	if !v.checkBlocks(doc, &res) {
		return res
	}
	if !v.checkDocument(doc, &res) {
		return res
	}
	v.checkSignature(doc, &res)

	logger.Debugw("Verified document",
		logger.FieldDocument, doc.ID,
		logger.FieldOutcome, res.Outcome,
		logger.FieldSignature, res.Signature)
	return res
}

// checkBlocks walks blocks in document order and stops at the first
// mismatch.
func (v *Verifier) checkBlocks(doc *medf.Document, res *Result) bool {
	for i := range doc.Blocks {
		b := &doc.Blocks[i]
		if b.Hash == nil || b.Hash.Value == "" {
			res.blocksSkipped++
			continue
		}
		res.blocksChecked++

		if err := digest.Check(b.Hash.Algorithm); err != nil {
			v.fail(doc, res, OutcomeBlockHashMismatch, err.Error())
			res.BlockID = b.ID
			res.Expected = b.Hash.Value
			return false
		}

		actual, err := hashtree.HashBlock(b)
		if err != nil {
			v.fail(doc, res, OutcomeBlockHashMismatch, err.Error())
			res.BlockID = b.ID
			res.Expected = b.Hash.Value
			return false
		}
		if actual != b.Hash.Value {
			v.fail(doc, res, OutcomeBlockHashMismatch, "")
			res.BlockID = b.ID
			res.Expected = b.Hash.Value
			res.Actual = actual
			logger.Debugw("Block hash mismatch",
				logger.FieldBlockID, b.ID,
				logger.FieldExpected, b.Hash.Value,
				logger.FieldActual, actual)
			return false
		}
	}
	return true
}

func (v *Verifier) checkDocument(doc *medf.Document, res *Result) bool {
	if !doc.IsHashed() {
		v.fail(doc, res, OutcomeMissingHash, "document has no doc_hash")
		return false
	}

	if err := digest.Check(doc.DocHash.Algorithm); err != nil {
		v.fail(doc, res, OutcomeDocumentHashMismatch, err.Error())
		res.Expected = doc.DocHash.Value
		return false
	}

	actual, err := hashtree.HashDocument(doc)
	if err != nil {
		v.fail(doc, res, OutcomeDocumentHashMismatch, err.Error())
		res.Expected = doc.DocHash.Value
		return false
	}
	if actual != doc.DocHash.Value {
		v.fail(doc, res, OutcomeDocumentHashMismatch, "")
		res.Expected = doc.DocHash.Value
		res.Actual = actual
		return false
	}
	return true
}

func (v *Verifier) checkSignature(doc *medf.Document, res *Result) {
	res.Outcome = OutcomeOK
	res.TrustDecision = TrustNotEvaluated

	sig := doc.Signature
	if sig == nil {
		res.Signature = SignatureAbsent
		res.TrustDecision = TrustNotApplicable
		return
	}

	switch {
	case v.skipSig:
		res.Signature = SignaturePresentUnverified
		res.Warnings = append(res.Warnings, "signature check disabled")
		return
	case v.signatures == nil:
		res.Signature = SignaturePresentUnverified
		res.Warnings = append(res.Warnings, "no signature verification capability available")
		return
	case sig.Algorithm != v.signatures.Algorithm():
		res.Signature = SignaturePresentUnverified
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("signature algorithm %q is not supported (have %q)", sig.Algorithm, v.signatures.Algorithm()))
		return
	}

	if err := v.signatures.Verify(sig.PublicKey, sig.Value, signing.Message(doc.DocHash)); err != nil {
		res.Outcome = OutcomeSignatureInvalid
		res.Signature = SignaturePresentInvalid
		res.Detail = err.Error()
		logger.Debugw("Signature invalid",
			logger.FieldDocument, doc.ID,
			logger.FieldPublicKey, sig.PublicKey,
			logger.FieldError, err)
		return
	}
	res.Signature = SignaturePresentValid
}

// fail records a failed hash check. The signature was never checked, so a
// present one is reported as unverified.
func (v *Verifier) fail(doc *medf.Document, res *Result, outcome Outcome, detail string) {
	res.Outcome = outcome
	res.Detail = detail
	res.TrustDecision = TrustNotEvaluated
	if doc.IsSigned() {
		res.Signature = SignaturePresentUnverified
	} else {
		res.Signature = SignatureAbsent
	}
}
