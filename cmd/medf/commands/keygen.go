package commands

import (
	"crypto/rand"

	"github.com/spf13/cobra"

	"github.com/teranos/medf/display"
	"github.com/teranos/medf/logger"
	"github.com/teranos/medf/signing"
)

// KeygenCmd generates a signing key.
var KeygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an ed25519 signing key",
	Long: `Generate an ed25519 private key, write it as PKCS#8 PEM with mode 0600,
and print the matching public key as a did:key. Existing files are never
overwritten.

Examples:
  medf keygen --out issuer.pem`,
	Args: cobra.NoArgs,
	RunE: runKeygen,
}

var keygenOut string

func init() {
	KeygenCmd.Flags().StringVarP(&keygenOut, "out", "o", "", "Private key file to create")
	KeygenCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	_ = KeygenCmd.MarkFlagRequired("out")
}

type keygenOutput struct {
	File      string `json:"file"`
	PublicKey string `json:"public_key"`
}

func runKeygen(cmd *cobra.Command, args []string) error {
	signer, err := signing.GenerateKey(rand.Reader)
	if err != nil {
		return err
	}
	if err := signing.WriteKey(keygenOut, signer); err != nil {
		return err
	}

	logger.Infow("Key generated", logger.FieldPath, keygenOut, logger.FieldPublicKey, signer.PublicKey())

	out := cmd.OutOrStdout()
	if display.ShouldOutputJSON(cmd, jsonDefault()) {
		return display.OutputJSON(out, keygenOutput{File: keygenOut, PublicKey: signer.PublicKey()})
	}
	display.OK(out, "wrote %s", keygenOut)
	display.Field(out, "public_key", signer.PublicKey())
	return nil
}
