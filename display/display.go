// Package display renders command results for terminals and for machines.
package display

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/medf/digest"
	"github.com/teranos/medf/errors"
)

// ShouldOutputJSON reports whether cmd should print JSON. An explicit --json
// flag wins; otherwise the configured default applies.
func ShouldOutputJSON(cmd *cobra.Command, configured bool) bool {
	if cmd == nil {
		return configured
	}
	if f := cmd.Flags().Lookup("json"); f != nil && f.Changed {
		on, _ := cmd.Flags().GetBool("json")
		return on
	}
	return configured
}

// MarshalJSON renders v with two-space indentation and without HTML
// escaping, so document text survives unaltered.
func MarshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// OutputJSON writes v to w as a single JSON value followed by a newline.
func OutputJSON(w io.Writer, v any) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal JSON")
	}
	_, err = w.Write(data)
	return err
}

// Digest shortens a digest to width characters for display unless full is
// set or width is 0.
func Digest(value string, width int, full bool) string {
	if full || width <= 0 {
		return value
	}
	return digest.Short(value, width)
}

// OK writes a green "[OK]" status line.
func OK(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", pterm.Green("[OK]"), fmt.Sprintf(format, args...))
}

// NG writes a red "[NG]" status line.
func NG(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", pterm.Red("[NG]"), fmt.Sprintf(format, args...))
}

// Warn writes a yellow warning line.
func Warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", pterm.Yellow("[!!]"), fmt.Sprintf(format, args...))
}

// Detail writes an indented, dimmed line.
func Detail(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", pterm.Gray(fmt.Sprintf(format, args...)))
}

// Field writes an indented "label: value" line.
func Field(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "  %s %v\n", pterm.LightCyan(label+":"), value)
}
