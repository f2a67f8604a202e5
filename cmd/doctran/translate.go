package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/inkwell-labs/doctran/internal/config"
	"github.com/inkwell-labs/doctran/internal/display"
	"github.com/inkwell-labs/doctran/internal/pipeline"
	"github.com/inkwell-labs/doctran/internal/pipelineerr"
	"github.com/inkwell-labs/doctran/internal/progress"
)

// ErrNoModelBackend is returned by the production ModelsFactory. doctran
// ships the model collaborator interfaces (internal/modelclient) but no
// concrete GGUF/llama.cpp-style runtime; a real deployment must vendor a
// backend and pass its own ModelsFactory to NewRootCmd via a fork of main.go.
var ErrNoModelBackend = errors.New("doctran: no translate model backend configured")

func modelsFromSettings(*config.Settings) (pipeline.Models, error) {
	return pipeline.Models{}, ErrNoModelBackend
}

func newTranslateCmd(newModels ModelsFactory) *cobra.Command {
	var (
		outPath        string
		checkpointPath string
	)

	cmd := &cobra.Command{
		Use:   "translate <docx>",
		Short: "translate a .docx document's text while preserving its formatting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := GetCommandContext(cmd)
			if cc == nil {
				return errors.New("doctran: command context not initialized")
			}
			settings, log := cc.Settings, cc.Logger

			inPath := args[0]
			f, err := os.Open(inPath)
			if err != nil {
				return fmt.Errorf("opening %s: %w", inPath, err)
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return fmt.Errorf("stat %s: %w", inPath, err)
			}

			if outPath == "" {
				ext := filepath.Ext(inPath)
				outPath = strings.TrimSuffix(inPath, ext) + "_翻译" + ext
			}
			if checkpointPath == "" {
				ext := filepath.Ext(outPath)
				checkpointPath = strings.TrimSuffix(outPath, ext) + "_进度" + ext
			}

			glossary, styleGuide, err := pipeline.LoadGlossaryAndStyleGuide(settings, os.ReadFile)
			if err != nil {
				return err
			}

			models, err := newModels(settings)
			if err != nil {
				return pipelineerr.New(pipelineerr.ModelLoad, "constructing model collaborators", err)
			}

			out, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("creating %s: %w", outPath, err)
			}
			defer out.Close()

			log.Info("starting translation",
				"input", inPath, "output", outPath,
				"source_lang", settings.SourceLang, "target_lang", settings.TargetLang)

			prog := progress.New(progress.Options{
				Output:         os.Stderr,
				Width:          progress.DefaultProgressWidth,
				ShowPercentage: true,
				Enabled:        settings.ShowProgress && !settings.IsQuiet(),
			})

			res, err := pipeline.TranslateFile(
				cmd.Context(), f, info.Size(), out,
				checkpointPath, settings, models, glossary, styleGuide, log, prog,
			)
			if err != nil {
				prog.Fail(err)
				return err
			}

			log.Info("translation complete",
				"total_tus", res.Summary.TotalTUs,
				"translated", res.Summary.TranslatedTUs,
				"still_bad", len(res.Summary.StillBad))

			summaryMD := res.Summary.ToMarkdown()
			if !settings.IsQuiet() && term.IsTerminal(int(os.Stdout.Fd())) {
				if err := display.NewTerminalDisplay().Display(cmd.Context(), summaryMD); err != nil {
					log.Warn("rendering summary failed, printing raw markdown", "error", err)
					fmt.Fprintln(cmd.OutOrStdout(), summaryMD)
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), summaryMD)
			}

			if len(res.Summary.StillBad) > 0 {
				return pipelineerr.New(pipelineerr.QualityIssue,
					fmt.Sprintf("%d translation unit(s) still carry a hard issue after repair", len(res.Summary.StillBad)), nil)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output .docx path (default: <input stem>_翻译.docx)")
	cmd.Flags().StringVar(&checkpointPath, "checkpoint", "", "checkpoint package path (default: <output stem>_进度.docx; --checkpoint_interval 0 disables checkpointing)")
	return cmd
}
