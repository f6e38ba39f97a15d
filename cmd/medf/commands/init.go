package commands

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/medf/display"
	"github.com/teranos/medf/errors"
	"github.com/teranos/medf/logger"
	"github.com/teranos/medf/medf"
)

// InitCmd writes a template document.
var InitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a template document",
	Long: `Create a minimal unhashed document with one example block.

Without --out the document is printed to stdout. Defaults for issuer,
role, format, document type and language come from the [document] config
section.

Examples:
  medf init                      # Print a template
  medf init --out doc.json       # Write it to a file
  medf init --id notice-42 --issuer city-hall --out notice.json`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var (
	initOut    string
	initID     string
	initIssuer string
	initForce  bool
)

func init() {
	InitCmd.Flags().StringVarP(&initOut, "out", "o", "", "Write the document to this file instead of stdout")
	InitCmd.Flags().StringVar(&initID, "id", "", "Document id (default \"example-doc\")")
	InitCmd.Flags().StringVar(&initIssuer, "issuer", "", "Issuer (default from config)")
	InitCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file")
}

func runInit(cmd *cobra.Command, args []string) error {
	issuer := initIssuer
	if issuer == "" {
		issuer = cfg.Document.Issuer
	}

	doc := medf.Template(medf.TemplateOptions{
		ID:       initID,
		Issuer:   issuer,
		Role:     cfg.Document.Role,
		Format:   cfg.Document.Format,
		Snapshot: time.Now(),
	})
	doc.DocumentType = cfg.Document.DocumentType
	doc.Language = cfg.Document.Language

	if initOut == "" {
		data, err := medf.Encode(doc)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	if !initForce {
		if _, err := os.Stat(initOut); err == nil {
			return errors.WithHint(
				errors.Newf("%s already exists", initOut),
				"use --force to overwrite it")
		}
	}
	if err := medf.Save(initOut, doc); err != nil {
		return err
	}

	logger.DocumentLogger(initOut, doc.ID).Infow("Template written")
	display.OK(cmd.OutOrStdout(), "wrote %s (%s)", initOut, doc.ID)
	return nil
}
