package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/benjaminschreck/docfill/pkg/docfill"
)

var (
	// Set at build time with -ldflags.
	version = "dev"
	commit  = "none"
	date    = "unknown"

	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docfill",
		Short: "Fills text, HTML, Markdown, DOCX and XLSX templates with data.",
		Long: `docfill fills document templates with data from JSON, YAML or CBOR models.

Templates contain placeholders such as ${*customer.name}. Commands like
${For ...}, ${If ...} and ${Import ...} repeat, drop or pull in parts of
the document.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate(`{{.Use}} version {{.Version}}` + "\n")

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Configuration file (default is ./docfill.yaml or $HOME/.config/docfill/docfill.yaml)")
	flags.String("log-level", "", `Log level ("debug", "info", "warn", "error", "off")`)
	flags.String("log-format", "", `Log format ("text" or "json")`)
	flags.Bool("strict", false, "Fail on placeholders no command handles")
	flags.Int("max-steps", 0, "Maximum placeholders processed per fill")
	flags.Int("max-import-depth", 0, "Maximum nesting of imported templates")
	flags.String("prefix", "", `Placeholder prefix (default "${")`)
	flags.String("suffix", "", `Placeholder suffix (default "}")`)

	cmd.AddCommand(newFillCmd(), newInspectCmd(), newServeCmd())
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads the configuration for cmd and installs the global logger.
func setup(cmd *cobra.Command) (*docfill.Config, *docfill.Logger, error) {
	config, err := loadConfig(cfgFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	logger := docfill.NewLoggerWithFormat(cmd.ErrOrStderr(), docfill.ParseLogLevel(config.LogLevel), config.LogFormat)
	docfill.SetProcessLogger(logger)
	return config, logger, nil
}
