package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/medf/display"
	"github.com/teranos/medf/version"
)

// VersionCmd represents the version command
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show medf version information",
	Long:  `Display version, build time, commit hash, platform and the MeDF format versions this binary reads and writes.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get()
		out := cmd.OutOrStdout()

		if display.ShouldOutputJSON(cmd, jsonDefault()) {
			return display.OutputJSON(out, info)
		}

		fmt.Fprintln(out, info.String())
		fmt.Fprintf(out, "Platform: %s\n", info.Platform)
		fmt.Fprintf(out, "Go: %s\n", info.GoVersion)
		fmt.Fprintf(out, "Reads medf_version: %s\n", info.SupportedVersions)
		return nil
	},
}

func init() {
	VersionCmd.Flags().BoolP("json", "j", false, "Output version info as JSON")
}
