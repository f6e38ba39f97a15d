package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/medf/display"
	"github.com/teranos/medf/errors"
	"github.com/teranos/medf/logger"
	"github.com/teranos/medf/medf"
	"github.com/teranos/medf/signing"
)

// SignCmd signs a packed document.
var SignCmd = &cobra.Command{
	Use:   "sign FILE",
	Short: "Sign the document hash",
	Long: `Sign the doc_hash of FILE with an ed25519 private key and store the
signature, public key (did:key) and signing time in the document.

The document must be packed first. A document without doc_hash is left
unmodified. The key path comes from --key or signing.key_path.

Examples:
  medf sign doc.json --key issuer.pem
  MEDF_SIGNING_KEY_PATH=issuer.pem medf sign doc.json`,
	Args: cobra.ExactArgs(1),
	RunE: runSign,
}

var signKey string

func init() {
	SignCmd.Flags().StringVarP(&signKey, "key", "k", "", "Private key file (PEM, hex or base64)")
}

func runSign(cmd *cobra.Command, args []string) error {
	path := args[0]

	keyPath := signKey
	if keyPath == "" {
		keyPath = cfg.Signing.KeyPath
	}
	if keyPath == "" {
		return errors.WithHint(
			errors.Wrap(errors.ErrKey, "no signing key given"),
			"pass --key FILE or set signing.key_path; 'medf keygen --out FILE' creates one")
	}

	signer, err := signing.LoadKey(keyPath)
	if err != nil {
		return err
	}

	doc, err := loadDocument(path)
	if err != nil {
		return err
	}
	if err := signing.Sign(doc, signer, time.Now()); err != nil {
		return err
	}
	if err := medf.Save(path, doc); err != nil {
		return err
	}

	logger.DocumentLogger(path, doc.ID).Infow("Document signed",
		logger.FieldAlgorithm, doc.Signature.Algorithm,
		logger.FieldPublicKey, doc.Signature.PublicKey)

	out := cmd.OutOrStdout()
	display.OK(out, "signed %s", path)
	display.Field(out, "algorithm", doc.Signature.Algorithm)
	display.Field(out, "public_key", doc.Signature.PublicKey)
	display.Field(out, "signed_at", doc.Signature.SignedAt)
	return nil
}
