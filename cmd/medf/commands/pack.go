package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/medf/display"
	"github.com/teranos/medf/hashtree"
	"github.com/teranos/medf/logger"
	"github.com/teranos/medf/medf"
)

// PackCmd hashes a document in place.
var PackCmd = &cobra.Command{
	Use:   "pack FILE",
	Short: "Compute block hashes and the document hash",
	Long: `Compute every block hash, then the document hash over them, and
rewrite FILE. Stored hashes are recomputed from content, so packing an
edited document makes it verify again. Any existing signature no longer
matches afterwards; run 'medf sign' again.

Examples:
  medf pack doc.json
  medf pack doc.json --json      # Print the new hashes as JSON`,
	Args: cobra.ExactArgs(1),
	RunE: runPack,
}

func init() {
	PackCmd.Flags().BoolP("json", "j", false, "Output the computed hashes as JSON")
	PackCmd.Flags().Bool("full", false, "Print digests in full")
}

type packOutput struct {
	File       string            `json:"file"`
	DocumentID string            `json:"document_id"`
	DocHash    string            `json:"doc_hash"`
	Blocks     map[string]string `json:"blocks"`
}

func runPack(cmd *cobra.Command, args []string) error {
	path := args[0]
	doc, err := loadDocument(path)
	if err != nil {
		return err
	}
	wasSigned := doc.IsSigned()

	if err := hashtree.Pack(doc); err != nil {
		return err
	}
	if err := medf.Save(path, doc); err != nil {
		return err
	}

	log := logger.DocumentLogger(path, doc.ID)
	log.Infow("Document packed",
		logger.FieldDigest, doc.DocHash.Value,
		logger.FieldCount, len(doc.Blocks))

	out := cmd.OutOrStdout()
	if display.ShouldOutputJSON(cmd, jsonDefault()) {
		blocks := make(map[string]string, len(doc.Blocks))
		for _, b := range doc.Blocks {
			blocks[b.ID] = b.Hash.Value
		}
		return display.OutputJSON(out, packOutput{
			File:       path,
			DocumentID: doc.ID,
			DocHash:    doc.DocHash.Value,
			Blocks:     blocks,
		})
	}

	full, _ := cmd.Flags().GetBool("full")
	display.OK(out, "packed %s", path)
	display.Field(out, "blocks", len(doc.Blocks))
	display.Field(out, "doc_hash", display.Digest(doc.DocHash.Value, digestWidth(), full))
	if wasSigned {
		log.Warnw("Existing signature no longer covers the document hash")
		display.Warn(out, "existing signature no longer matches; run 'medf sign' again")
	}
	return nil
}
