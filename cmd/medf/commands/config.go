package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/medf/am"
	"github.com/teranos/medf/display"
	"github.com/teranos/medf/errors"
)

// ConfigCmd groups configuration subcommands.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change medf configuration",
	Long: `Show and change medf configuration.

Files are read from ~/.medf/config.toml and the nearest medf.toml above
the working directory; MEDF_* environment variables override both, e.g.
MEDF_VERIFY_DIGEST_WIDTH=0.

Examples:
  medf config show                   # Effective configuration as TOML
  medf config show --sources         # Where every value came from
  medf config get verify.digest_width
  medf config set document.issuer city-hall`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print one configuration value",
	Long:  "Print one configuration value using dot notation (e.g. verify.digest_width)",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a value in the project medf.toml",
	Long: `Set a value in the nearest medf.toml, or create medf.toml in the working
directory. The previous file is kept as medf.toml.back1 (up to three
backups). Values that would make the configuration invalid are refused.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var (
	configFormat  string
	configSources bool
)

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	configShowCmd.Flags().BoolVar(&configSources, "sources", false, "Show the source of every value")

	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configGetCmd)
	ConfigCmd.AddCommand(configSetCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if configSources {
		info, err := am.Introspect()
		if err != nil {
			return err
		}
		if configFormat == "json" {
			return display.OutputJSON(out, info)
		}
		for _, s := range info.Settings {
			origin := string(s.Source)
			if s.SourcePath != "" {
				origin += " " + s.SourcePath
			}
			fmt.Fprintf(out, "%s = %v  %s\n", s.Key, s.Value, pterm.Gray("("+origin+")"))
		}
		for _, f := range info.Skipped {
			display.Warn(out, "skipped %s: %s", f.Path, f.Error)
		}
		return nil
	}

	switch configFormat {
	case "json":
		return display.OutputJSON(out, cfg)

	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Fprintf(out, "# medf configuration\n%s", data)

	case "toml":
		data, err := am.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "# medf configuration\n%s", data)

	default:
		return errors.Newf("unsupported format: %s (supported: toml, json, yaml)", configFormat)
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if !am.GetViper().IsSet(key) {
		return errors.WithHint(
			errors.Newf("configuration key %q not found", key),
			"run 'medf config show' to list keys")
	}
	fmt.Fprintln(cmd.OutOrStdout(), am.Get(key))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	target, err := am.ProjectConfigTarget()
	if err != nil {
		return err
	}
	if err := am.SetValue(target, key, value); err != nil {
		return err
	}

	display.OK(cmd.OutOrStdout(), "%s = %s in %s", key, value, target)
	return nil
}
