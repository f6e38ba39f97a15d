package commands

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/teranos/medf/display"
	"github.com/teranos/medf/errors"
	"github.com/teranos/medf/hashtree"
	"github.com/teranos/medf/importer"
	"github.com/teranos/medf/logger"
	"github.com/teranos/medf/medf"
)

// ReferenceTypeSource is the type given to --reference URIs.
const ReferenceTypeSource = "source"

// ConvertCmd imports a Markdown file as a MeDF document.
var ConvertCmd = &cobra.Command{
	Use:   "convert IN.md OUT",
	Short: "Convert Markdown into a MeDF document",
	Long: `Split a Markdown file into one block per ATX heading and write a MeDF
document. Text before the first heading becomes the "intro" block. Block
ids are slugs of the heading titles unless a heading carries an explicit
"{:id=custom-id}" anchor. A derived navigation index is attached; it is
never hashed.

Examples:
  medf convert notice.md notice.json --issuer city-hall --type public_notice
  medf convert guide.md guide.json --language ja --reference https://example.org/src --pack`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

var (
	convertID         string
	convertIssuer     string
	convertType       string
	convertLanguage   string
	convertSnapshot   string
	convertFormat     string
	convertReferences []string
	convertPack       bool
	convertForce      bool
)

func init() {
	ConvertCmd.Flags().StringVar(&convertID, "id", "", "Document id (default: random UUID)")
	ConvertCmd.Flags().StringVar(&convertIssuer, "issuer", "", "Issuer (default from config)")
	ConvertCmd.Flags().StringVar(&convertType, "type", "", "Document type, e.g. public_notice or report (default from config)")
	ConvertCmd.Flags().StringVar(&convertLanguage, "language", "", "BCP 47 language tag (default from config)")
	ConvertCmd.Flags().StringVar(&convertSnapshot, "snapshot", "", "Snapshot timestamp, RFC 3339 (default: now)")
	ConvertCmd.Flags().StringVar(&convertFormat, "format", "", "Block format tag (default from config)")
	ConvertCmd.Flags().StringSliceVar(&convertReferences, "reference", nil, "Source URI (repeatable)")
	ConvertCmd.Flags().BoolVar(&convertPack, "pack", false, "Hash the document after conversion")
	ConvertCmd.Flags().BoolVar(&convertForce, "force", false, "Overwrite an existing output file")
}

func runConvert(cmd *cobra.Command, args []string) error {
	in, outPath := args[0], args[1]

	if !convertForce {
		if _, err := os.Stat(outPath); err == nil {
			return errors.WithHint(
				errors.Newf("%s already exists", outPath),
				"use --force to overwrite it")
		}
	}

	source, err := os.ReadFile(in)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", in)
	}

	doc, err := buildDocument(string(source))
	if err != nil {
		return err
	}

	if convertPack {
		if err := hashtree.Pack(doc); err != nil {
			return err
		}
	}
	if err := medf.Save(outPath, doc); err != nil {
		return err
	}

	logger.DocumentLogger(outPath, doc.ID).Infow("Markdown converted",
		logger.FieldPath, in,
		logger.FieldCount, len(doc.Blocks))

	out := cmd.OutOrStdout()
	display.OK(out, "converted %s -> %s", in, outPath)
	display.Field(out, "id", doc.ID)
	display.Field(out, "blocks", len(doc.Blocks))
	if doc.IsHashed() {
		display.Field(out, "doc_hash", display.Digest(doc.DocHash.Value, digestWidth(), false))
	}
	return nil
}

// buildDocument assembles a document from markdown and the convert flags,
// falling back to the [document] config section.
func buildDocument(markdown string) (*medf.Document, error) {
	snapshot := time.Now()
	if convertSnapshot != "" {
		t, err := time.Parse(time.RFC3339, convertSnapshot)
		if err != nil {
			return nil, errors.WithHint(
				errors.Wrapf(err, "invalid --snapshot %q", convertSnapshot),
				"use RFC 3339, e.g. 2026-02-04T10:00:00Z")
		}
		snapshot = t
	}

	language := firstNonEmpty(convertLanguage, cfg.Document.Language)
	if language != "" {
		normalized, err := importer.NormalizeLanguage(language)
		if err != nil {
			return nil, err
		}
		language = normalized
	}

	id := convertID
	if id == "" {
		id = uuid.NewString()
	}

	sections := importer.Split(markdown)
	if len(sections) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidDocument, "markdown has no content")
	}
	title, summary := importer.Metadata(markdown, sections)

	doc := &medf.Document{
		Version:      medf.CurrentVersion,
		DocumentType: firstNonEmpty(convertType, cfg.Document.DocumentType),
		ID:           id,
		Snapshot:     medf.FormatTimestamp(snapshot),
		Issuer:       firstNonEmpty(convertIssuer, cfg.Document.Issuer),
		Language:     language,
		Blocks:       importer.Blocks(sections, firstNonEmpty(convertFormat, cfg.Document.Format)),
		Index:        importer.Index(title, summary, sections),
	}
	for _, uri := range convertReferences {
		doc.References = append(doc.References, medf.Reference{URI: uri, Type: ReferenceTypeSource})
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
