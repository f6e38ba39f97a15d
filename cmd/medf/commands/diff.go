package commands

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/medf/diff"
	"github.com/teranos/medf/display"
	"github.com/teranos/medf/logger"
)

// DiffCmd compares two documents block by block.
var DiffCmd = &cobra.Command{
	Use:   "diff OLD NEW",
	Short: "Compare two documents by block hash",
	Long: `Join the blocks of OLD and NEW on block_id and classify each id as
changed, unchanged, added or removed. Only stored hashes are compared, so
pack both documents first. A block without a stored hash on either side is
never reported as changed.

Examples:
  medf diff v1.json v2.json
  medf diff v1.json v2.json --json
  medf diff v1.json v2.json --exit-code   # Exit 1 when anything differs`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

var (
	diffFull     bool
	diffExitCode bool
)

func init() {
	DiffCmd.Flags().BoolP("json", "j", false, "Output the diff as JSON")
	DiffCmd.Flags().BoolVar(&diffFull, "full", false, "Print digests in full")
	DiffCmd.Flags().BoolVar(&diffExitCode, "exit-code", false, "Exit with status 1 when the documents differ")
}

type diffOutput struct {
	Old string `json:"old"`
	New string `json:"new"`
	*diff.Result
}

func runDiff(cmd *cobra.Command, args []string) error {
	oldDoc, err := loadDocument(args[0])
	if err != nil {
		return err
	}
	newDoc, err := loadDocument(args[1])
	if err != nil {
		return err
	}

	res := diff.Compare(oldDoc, newDoc)
	logger.Infow("Documents compared",
		logger.FieldOperation, "diff",
		"changed", len(res.Changed),
		"added", len(res.Added),
		"removed", len(res.Removed),
		"unchanged", len(res.Unchanged))

	out := cmd.OutOrStdout()
	if display.ShouldOutputJSON(cmd, jsonDefault()) {
		if err := display.OutputJSON(out, diffOutput{Old: args[0], New: args[1], Result: res}); err != nil {
			return err
		}
	} else {
		printDiff(out, res)
	}

	if diffExitCode && !res.Empty() {
		return failed("%s and %s differ", args[0], args[1])
	}
	return nil
}

func printDiff(out io.Writer, res *diff.Result) {
	width := digestWidth()
	for _, c := range res.Changed {
		fmt.Fprintf(out, "%s %s  %s -> %s\n", pterm.Yellow("~"), c.BlockID,
			display.Digest(c.Before, width, diffFull),
			display.Digest(c.After, width, diffFull))
	}
	for _, id := range res.Added {
		fmt.Fprintf(out, "%s %s\n", pterm.Green("+"), id)
	}
	for _, id := range res.Removed {
		fmt.Fprintf(out, "%s %s\n", pterm.Red("-"), id)
	}
	for _, id := range res.Unchanged {
		fmt.Fprintf(out, "%s %s\n", pterm.Gray("="), id)
	}
	fmt.Fprintf(out, "%d changed, %d added, %d removed, %d unchanged\n",
		len(res.Changed), len(res.Added), len(res.Removed), len(res.Unchanged))
}
