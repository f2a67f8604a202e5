package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/inkwell-labs/doctran/internal/config"
	"github.com/inkwell-labs/doctran/internal/logging"
	"github.com/inkwell-labs/doctran/internal/pipeline"
)

var (
	cfgFile string //nolint:gochecknoglobals // cobra flag variable
	verbose bool   //nolint:gochecknoglobals // cobra flag variable
	quiet   bool   //nolint:gochecknoglobals // cobra flag variable
)

// ModelsFactory builds the model collaborators a translate run drives, from
// the resolved settings. The production factory (modelsFromSettings) has no
// concrete backend to construct, since this module ships collaborator
// interfaces only; tests inject a factory that returns fakes instead.
type ModelsFactory func(*config.Settings) (pipeline.Models, error)

// NewRootCmd builds the doctran command tree. newModels is the factory the
// translate subcommand uses to obtain its model collaborators; production
// callers pass modelsFromSettings, tests pass a fake-backed factory.
func NewRootCmd(newModels ModelsFactory) *cobra.Command {
	root := &cobra.Command{
		Use:   "doctran",
		Short: "doctran translates .docx documents while preserving OOXML formatting",
		Long: `doctran translates the text runs inside a .docx package from one
language to another, preserving every formatting boundary, numbering,
table, and embedded object untouched.

  doctran translate input.docx -o output.docx --source-lang en --target-lang zh`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if quiet {
				settings.Quiet = true
			}
			if verbose {
				settings.Verbose = true
			}

			level := settings.LogLevel
			if settings.IsQuiet() {
				level = "error"
			} else if settings.IsVerbose() {
				level = "debug"
			}
			log, err := logging.New(logging.Config{
				Level:           level,
				Output:          os.Stderr,
				ReportCaller:    false,
				ReportTimestamp: true,
			})
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}

			SetCommandContext(cmd, &CommandContext{Settings: settings, Logger: log})
			return nil
		},
	}

	// Flag names match config.Settings' mapstructure keys exactly (viper's
	// BindPFlags binds by flag name) and are normalized from dashes to
	// underscores so --source-lang still works on the command line.
	root.PersistentFlags().SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "-", "_"))
	})

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug-level logging")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "error-only logging")
	root.PersistentFlags().String("source_lang", "", "source language (en or zh)")
	root.PersistentFlags().String("target_lang", "", "target language (en or zh)")
	root.PersistentFlags().Bool("enable_review", true, "run agent-assisted hard-failure repair rounds")
	root.PersistentFlags().Bool("enable_decision", true, "infer document context via the agent model")
	root.PersistentFlags().Int("max_tus", 0, "translate at most N translation units (0 = no limit)")
	root.PersistentFlags().Int("checkpoint_interval", 20, "write a checkpoint every N translated TUs (0 disables)")
	root.PersistentFlags().String("glossary_path", "", "glossary markdown file (term -> translation bullets)")
	root.PersistentFlags().String("style_guide_path", "", "style guide HTML or markdown file")
	root.PersistentFlags().Bool("show_progress", true, "show a progress indicator while translating")
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")

	root.AddCommand(newTranslateCmd(newModels))
	root.AddCommand(newVersionCmd())
	return root
}
