package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/medf/display"
	"github.com/teranos/medf/errors"
	"github.com/teranos/medf/logger"
	"github.com/teranos/medf/medf"
	"github.com/teranos/medf/schema"
)

// ValidateCmd checks document structure against the MeDF JSON Schema.
var ValidateCmd = &cobra.Command{
	Use:   "validate FILE...",
	Short: "Validate documents against the MeDF schema",
	Long: `Validate each FILE against the MeDF JSON Schema (built in, or --schema /
schema.path), then check block_id uniqueness and the medf_version range.
The first violation is reported with its JSON pointer.

Validation is structural only; use 'medf verify' to check hashes.

Examples:
  medf validate doc.json
  medf validate docs/*.json --schema custom.schema.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

var validateSchema string

func init() {
	ValidateCmd.Flags().BoolP("json", "j", false, "Output results as JSON")
	ValidateCmd.Flags().StringVarP(&validateSchema, "schema", "s", "", "JSON Schema file (default: built-in schema)")
}

type validateOutput struct {
	File string `json:"file"`
	schema.Result
}

func runValidate(cmd *cobra.Command, args []string) error {
	validator, err := loadValidator()
	if err != nil {
		return err
	}

	results := make([]validateOutput, 0, len(args))
	invalid := 0
	for _, path := range args {
		res, err := validateFile(validator, path)
		if err != nil {
			return err
		}
		if !res.Valid {
			invalid++
			logger.Warnw("Document invalid",
				logger.FieldFile, path,
				logger.FieldPath, res.Path,
				logger.FieldError, res.Message)
		}
		results = append(results, validateOutput{File: path, Result: *res})
	}

	out := cmd.OutOrStdout()
	if display.ShouldOutputJSON(cmd, jsonDefault()) {
		if err := display.OutputJSON(out, results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Valid {
				display.OK(out, "%s", r.File)
				continue
			}
			display.NG(out, "%s", r.File)
			display.Field(out, "path", r.Path)
			display.Field(out, "error", r.Message)
		}
	}

	if invalid > 0 {
		return failed("%d of %d documents invalid", invalid, len(args))
	}
	return nil
}

func loadValidator() (*schema.Validator, error) {
	path := validateSchema
	if path == "" {
		path = cfg.Schema.Path
	}
	if path == "" {
		return schema.NewValidator()
	}
	return schema.NewValidatorFromFile(path)
}

// validateFile runs the schema check, then the model checks the schema
// cannot express. Unreadable files are operational errors; undecodable
// JSON is reported as invalid.
func validateFile(validator *schema.Validator, path string) (*schema.Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	res, err := validator.Validate(raw)
	if err != nil {
		if errors.IsInvalidDocumentError(err) {
			return &schema.Result{Valid: false, Path: "/", Message: err.Error()}, nil
		}
		return nil, err
	}
	if !res.Valid {
		return res, nil
	}

	doc, err := medf.Parse(raw)
	if err != nil {
		at := "/"
		if errors.Is(err, errors.ErrDuplicateBlockID) {
			at = "/blocks"
		}
		return &schema.Result{Valid: false, Path: at, Message: err.Error()}, nil
	}
	if err := medf.CheckVersion(doc.Version); err != nil {
		return &schema.Result{Valid: false, Path: "/medf_version", Message: err.Error()}, nil
	}
	return res, nil
}
