package commands

import (
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/medf/display"
	"github.com/teranos/medf/errors"
	"github.com/teranos/medf/logger"
	"github.com/teranos/medf/signing"
	"github.com/teranos/medf/verify"
	"github.com/teranos/medf/watch"
)

// VerifyCmd checks a document's hashes and signature.
var VerifyCmd = &cobra.Command{
	Use:   "verify FILE",
	Short: "Verify block hashes, the document hash and the signature",
	Long: `Recompute every stored block hash in document order, then the document
hash, then check the signature against doc_hash and the stored public key.
Verification stops at the first mismatch.

A passing result says the bytes are unchanged since they were packed and
signed. The trust decision is always "not evaluated": medf does not judge
whether the issuer or the content should be believed.

Exit status is 1 when verification fails and 2 when the file cannot be
read or parsed. With --json a file that cannot be loaded is reported as
{"file": ..., "error": ...}.

Documents are read strictly. A top-level key outside the MeDF model (for
example "issued_at") is a load error, not a verification failure, since no
hash could cover it. Move producer-specific fields under "extensions".

Examples:
  medf verify doc.json
  medf verify doc.json --explain     # Show every step
  medf verify doc.json --json        # Machine-readable result
  medf verify doc.json --watch       # Re-verify on every save`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

var (
	verifyExplain     bool
	verifyFull        bool
	verifyNoSignature bool
	verifyWatch       bool
)

func init() {
	VerifyCmd.Flags().BoolP("json", "j", false, "Output the result as JSON")
	VerifyCmd.Flags().BoolVarP(&verifyExplain, "explain", "e", false, "Explain each verification step")
	VerifyCmd.Flags().BoolVar(&verifyFull, "full", false, "Print digests in full")
	VerifyCmd.Flags().BoolVar(&verifyNoSignature, "no-signature", false, "Report signatures as unverified instead of checking them")
	VerifyCmd.Flags().BoolVarP(&verifyWatch, "watch", "w", false, "Verify again whenever the file changes")
}

// verifyOutput is the --json shape: the result plus the file it describes.
type verifyOutput struct {
	File string `json:"file"`
	verify.Result
}

// verifyErrorOutput is the --json shape when the file cannot be loaded.
type verifyErrorOutput struct {
	File  string   `json:"file"`
	Error string   `json:"error"`
	Hints []string `json:"hints,omitempty"`
}

func newVerifier() *verify.Verifier {
	opts := []verify.Option{verify.WithSignatureVerifier(signing.Ed25519Verifier{})}
	if verifyNoSignature || !cfg.Verify.CheckSignature {
		opts = append(opts, verify.WithoutSignatureCheck())
	}
	return verify.New(opts...)
}

func runVerify(cmd *cobra.Command, args []string) error {
	path := args[0]
	asJSON := display.ShouldOutputJSON(cmd, jsonDefault())
	verifier := newVerifier()

	if !verifyWatch {
		return verifyOnce(cmd.OutOrStdout(), verifier, path, asJSON)
	}

	out := cmd.OutOrStdout()
	report := func(path string) {
		if err := verifyOnce(out, verifier, path, asJSON); err != nil && ExitCode(err) == ExitOperational {
			printError(cmd.ErrOrStderr(), err)
		}
	}
	report(path)

	debounce := time.Duration(cfg.Verify.WatchDebounceMS) * time.Millisecond
	w, err := watch.New(path, debounce, report)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Infow("Watching for changes", logger.FieldFile, path)
	return w.Run(ctx)
}

// verifyOnce verifies path and prints the result. A failed verification is
// returned as an error marked ErrVerificationFailed.
func verifyOnce(out io.Writer, verifier *verify.Verifier, path string, asJSON bool) error {
	doc, err := loadDocument(path)
	if err != nil {
		if asJSON {
			report := verifyErrorOutput{File: path, Error: err.Error(), Hints: errors.GetAllHints(err)}
			if jsonErr := display.OutputJSON(out, report); jsonErr != nil {
				logger.Warnw("Failed to write JSON error report", logger.FieldError, jsonErr)
			}
		}
		return err
	}

	res := verifier.Verify(doc)

	log := logger.DocumentLogger(path, doc.ID)
	if res.OK() {
		log.Infow("Verification passed",
			logger.FieldOutcome, res.Outcome,
			logger.FieldSignature, res.Signature)
	} else {
		log.Warnw("Verification failed",
			logger.FieldOutcome, res.Outcome,
			logger.FieldBlockID, res.BlockID,
			logger.FieldExpected, res.Expected,
			logger.FieldActual, res.Actual)
	}

	if asJSON {
		if err := display.OutputJSON(out, verifyOutput{File: path, Result: res}); err != nil {
			return err
		}
	} else {
		printVerifyResult(out, path, res)
	}

	if !res.OK() {
		return failed("%s: %s", path, res.Outcome)
	}
	return nil
}

func printVerifyResult(out io.Writer, path string, res verify.Result) {
	width := digestWidth()

	if res.OK() {
		display.OK(out, "%s: %s", path, res.Outcome)
	} else {
		display.NG(out, "%s: %s", path, res.Outcome)
	}

	if verifyExplain {
		for _, line := range res.Explain() {
			display.Detail(out, "%s", line)
		}
	} else {
		if res.BlockID != "" {
			display.Field(out, "block", res.BlockID)
		}
		if res.Expected != "" {
			display.Field(out, "expected", display.Digest(res.Expected, width, verifyFull))
		}
		if res.Actual != "" {
			display.Field(out, "actual", display.Digest(res.Actual, width, verifyFull))
		}
		if res.Detail != "" {
			display.Field(out, "detail", res.Detail)
		}
		if res.Signature != "" {
			display.Field(out, "signature", res.Signature)
		}
		if res.TrustDecision != "" {
			display.Field(out, "trust", res.TrustDecision)
		}
		for _, w := range res.Warnings {
			display.Warn(out, "%s", w)
		}
	}
}
