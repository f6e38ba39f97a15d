package commands

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/medf/am"
	"github.com/teranos/medf/errors"
	"github.com/teranos/medf/logger"
)

// Exit codes returned by Main.
const (
	ExitOK          = 0
	ExitFailed      = 1 // verification or validation failure
	ExitOperational = 2 // encoding, key, I/O or usage error
)

// ErrVerificationFailed marks errors that mean "the document was checked and
// is not intact". The result has already been printed when it is returned.
var ErrVerificationFailed = errors.New("verification failed")

var (
	verbosity  int
	configPath string
	noColor    bool
	logJSON    bool

	// cfg is the effective configuration, loaded before any command runs.
	cfg *am.Config

	// pendingAlias is the legacy name the current invocation used, if any.
	pendingAlias string
)

// RootCmd is the medf command.
var RootCmd = &cobra.Command{
	Use:   "medf",
	Short: "Integrity tooling for MeDF documents",
	Long: `medf - integrity tooling for MeDF documents

A MeDF document is JSON made of named blocks. medf hashes every block,
hashes the document over its block hashes, signs the document hash and
verifies all of it again later. It proves the bytes are unchanged; it does
not decide whether the issuer or the content should be trusted.

Configuration sources (in order of precedence):
  1. Command line flags
  2. Environment variables (MEDF_* prefix)
  3. Project config (nearest medf.toml, searched upward)
  4. User config (~/.medf/config.toml)
  5. Default values

Examples:
  medf init --out doc.json        # Write a template document
  medf pack doc.json              # Hash blocks and the document
  medf sign doc.json --key k.pem  # Sign the document hash
  medf verify doc.json --explain  # Check every hash and the signature
  medf diff old.json new.json     # Compare block hashes`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	RootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Use this config file instead of the user and project files")
	RootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	RootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON lines")

	RootCmd.AddCommand(InitCmd)
	RootCmd.AddCommand(PackCmd)
	RootCmd.AddCommand(SignCmd)
	RootCmd.AddCommand(VerifyCmd)
	RootCmd.AddCommand(DiffCmd)
	RootCmd.AddCommand(KeygenCmd)
	RootCmd.AddCommand(ValidateCmd)
	RootCmd.AddCommand(ConvertCmd)
	RootCmd.AddCommand(ConfigCmd)
	RootCmd.AddCommand(VersionCmd)
}

// setup initializes logging and configuration before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	if err := logger.Initialize(logJSON, verbosity); err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}

	var err error
	if configPath != "" {
		cfg, err = am.LoadFromFile(configPath)
	} else {
		cfg, err = am.Load()
	}
	if err != nil {
		return errors.WithHint(
			errors.Wrap(err, "failed to load configuration"),
			"run 'medf config show --sources' to see which files are read")
	}

	if noColor || !cfg.Output.Color {
		pterm.DisableColor()
	}

	if pendingAlias != "" {
		logger.Warnw("Deprecated command name",
			logger.FieldAlias, pendingAlias,
			logger.FieldCommand, cmd.Name())
	}

	logger.Debugw("Configuration loaded", logger.FieldCommand, cmd.CommandPath())
	return nil
}

// Main runs medf with args and returns the process exit code.
func Main(args []string, stdout, stderr io.Writer) int {
	args, pendingAlias = ResolveAlias(args)
	logger.Output = stderr

	RootCmd.SetArgs(args)
	RootCmd.SetOut(stdout)
	RootCmd.SetErr(stderr)

	err := RootCmd.Execute()
	logger.Cleanup()

	code := ExitCode(err)
	if code == ExitOperational {
		printError(stderr, err)
	}
	return code
}

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrVerificationFailed):
		return ExitFailed
	default:
		return ExitOperational
	}
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", pterm.Red("Error:"), err)
	for _, hint := range errors.GetAllHints(err) {
		fmt.Fprintf(w, "  %s %s\n", pterm.Yellow("hint:"), hint)
	}
}

// failed marks err as a verification or validation failure (exit 1).
func failed(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrVerificationFailed)
}
