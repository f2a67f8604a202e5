// Package pipeline wires extraction, freezing, translation, review, and
// projection into the single TranslateFile entry point the CLI calls.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/inkwell-labs/doctran/internal/checkpoint"
	"github.com/inkwell-labs/doctran/internal/config"
	"github.com/inkwell-labs/doctran/internal/docxio"
	"github.com/inkwell-labs/doctran/internal/extract"
	"github.com/inkwell-labs/doctran/internal/hierarchy"
	"github.com/inkwell-labs/doctran/internal/ir"
	"github.com/inkwell-labs/doctran/internal/legalref"
	"github.com/inkwell-labs/doctran/internal/logging"
	"github.com/inkwell-labs/doctran/internal/modelclient"
	"github.com/inkwell-labs/doctran/internal/pipelineerr"
	"github.com/inkwell-labs/doctran/internal/progress"
	"github.com/inkwell-labs/doctran/internal/project"
	"github.com/inkwell-labs/doctran/internal/report"
	"github.com/inkwell-labs/doctran/internal/review"
	"github.com/inkwell-labs/doctran/internal/translate"
)

// Models bundles the model collaborators TranslateFile drives. Agent may be
// nil to disable agent-assisted repair. TranslateFile does not use Embedder.
type Models struct {
	Translate modelclient.TranslateModel
	Agent     modelclient.AgentModel
	Embedder  modelclient.Embedder
}

// Result is everything TranslateFile produces beyond the rewritten .docx
// bytes already written to its output writer.
type Result struct {
	Summary        report.Summary
	ModifiedParts  []string
	CheckpointPath string
}

// TranslateFile opens a .docx from r, translates every translation unit
// from settings.SourceLang to settings.TargetLang, writes the rewritten
// package to w, and returns the run's hard-failure summary. prog may be nil
// to disable progress reporting (progress.NewNoOp() is equivalent).
func TranslateFile(
	ctx context.Context,
	r io.ReaderAt, size int64,
	w io.Writer,
	checkpointPath string,
	settings *config.Settings,
	models Models,
	glossary map[string]string,
	styleGuide string,
	log *logging.Logger,
	prog progress.Progress,
) (Result, error) {
	if prog == nil {
		prog = progress.NewNoOp()
	}

	pkg, err := docxio.Open(r, size)
	if err != nil {
		return Result{}, err
	}

	tus, docs, err := extractAll(pkg)
	if err != nil {
		return Result{}, err
	}
	if settings.MaxTUs > 0 && len(tus) > settings.MaxTUs {
		tus = tus[:settings.MaxTUs]
	}

	var cp *checkpoint.Writer
	if settings.CheckpointInterval > 0 && checkpointPath != "" {
		cp, err = checkpoint.New(checkpointPath, pkg)
		if err != nil {
			log.Warn("checkpoint init failed, continuing without checkpoints", "error", err)
			cp = nil
		}
	}

	docCtx := inferDocumentContext(ctx, settings, models.Agent, tus)
	docCtx.Glossary = glossary
	docCtx.StyleGuide = styleGuide

	prog.Start(fmt.Sprintf("translating %d translation units", len(tus)))
	total := len(tus)
	done := 0
	driver := &translate.Driver{
		Translate:         models.Translate,
		Agent:             models.Agent,
		Log:               log,
		SourceLang:        settings.SourceLang,
		TargetLang:        settings.TargetLang,
		DecisionMinChars:  settings.DecisionMinChars,
		HardFailureRounds: settings.HardFailureRounds,
		GlossaryCapPerTU:  settings.GlossaryCapPerTU,
		OnTUDone: func(tu *ir.TU) {
			done++
			if total > 0 {
				prog.Update(float64(done)/float64(total), fmt.Sprintf("TU %d/%d", done, total))
			}
			if cp != nil && checkpoint.ShouldCheckpoint(tu.ID, settings.CheckpointInterval) {
				if err := cp.Write(pkg); err != nil {
					log.Warn("checkpoint write failed", "error", err)
				}
			}
		},
	}
	driver.TranslateUnits(ctx, tus, docCtx)
	prog.Complete(fmt.Sprintf("translated %d translation units", total))

	// Driver.translateOne freezes each TU's atoms itself; the legal-reference
	// remap must run on the resulting placeholder map before projection
	// unfreezes it, so it happens here rather than before translation.
	for _, tu := range tus {
		legalref.RemapPlaceholders(tu.Placeholders, settings.SourceLang, settings.TargetLang)
	}

	var rounds []review.RoundReport
	if settings.EnableReview && models.Agent != nil {
		reviewer := &review.Reviewer{
			Agent:      models.Agent,
			Log:        log,
			TargetLang: settings.TargetLang,
			MaxRounds:  settings.HardFailureRounds,
		}
		rounds = reviewer.RunHardFailureRounds(ctx, tus)
	}

	if err := projectAll(tus, docs, pkg); err != nil {
		return Result{}, err
	}

	if err := pkg.Write(w); err != nil {
		return Result{}, err
	}

	summary := report.BuildSummary(tus, settings.TargetLang, rounds)
	res := Result{Summary: summary, ModifiedParts: pkg.ModifiedParts()}
	if cp != nil {
		if err := cp.Write(pkg); err != nil {
			log.Warn("final checkpoint write failed", "error", err)
		} else {
			res.CheckpointPath = cp.Path
		}
	}
	return res, nil
}

// extractAll walks every XML part for translation units, assigning ids
// that stay unique across the whole package, and returns the parsed
// Document per part so the projector can write through it later.
func extractAll(pkg *docxio.Package) ([]*ir.TU, map[string]*extract.Document, error) {
	var tus []*ir.TU
	docs := make(map[string]*extract.Document)
	nextID := 1

	styles := hierarchy.NewStyleTable(nil)
	tracker := hierarchy.NewSectionTracker()

	for _, name := range pkg.PartNames() {
		part := pkg.Part(name)
		if part == nil {
			continue
		}
		doc, err := extract.Parse(part.Body)
		if err != nil {
			return nil, nil, err
		}
		docs[name] = doc

		result, next, err := extract.Walk(doc, name, nextID)
		if err != nil {
			return nil, nil, err
		}
		nextID = next

		for i := range result.TUs {
			tu := result.TUs[i]
			tu.Context = hierarchy.Resolve(tracker, styles, "", tu.PlainText(), false, "", 0)
			tus = append(tus, &tu)
		}
	}
	return tus, docs, nil
}

// projectAll allocates each TU's final translation back onto its source
// nodes, writes the mutated tokens through the TU's owning Document, and
// installs the re-serialized body on the owning Part.
func projectAll(tus []*ir.TU, docs map[string]*extract.Document, pkg *docxio.Package) error {
	touched := map[string]bool{}
	for _, tu := range tus {
		if tu.Final == "" {
			continue
		}
		writes, err := project.Project(tu)
		if err != nil {
			return err
		}
		doc, ok := docs[tu.Part]
		if !ok {
			return pipelineerr.New(pipelineerr.Protocol, "projecting TU onto unknown part", nil).
				WithPart(tu.Part).WithTU(tu.ID)
		}
		for _, nw := range writes {
			doc.SetText(nw.Node.Handle, nw.Text)
		}
		touched[tu.Part] = true
	}

	for name := range touched {
		doc := docs[name]
		body, err := doc.Serialize()
		if err != nil {
			return err
		}
		pkg.Part(name).SetBody(body)
	}
	return nil
}

// inferDocumentContext runs the optional agent-inferred document summary
// pass and merges in configured style guide and glossary text.
func inferDocumentContext(
	ctx context.Context,
	settings *config.Settings,
	agent modelclient.AgentModel,
	tus []*ir.TU,
) translate.DocumentContext {
	docCtx := translate.DocumentContext{TargetStyle: settings.TargetStyle}

	if settings.EnableDecision && agent != nil {
		summary, err := review.InferDocumentContext(ctx, agent, tus, 8)
		if err == nil {
			docCtx.Domain = summary.Domain
			docCtx.DocType = summary.DocType
			docCtx.Summary = summary.Summary
		}
	}
	return docCtx
}

// LoadGlossaryAndStyleGuide reads the glossary and style guide files named
// in settings, tolerating either being unset.
func LoadGlossaryAndStyleGuide(settings *config.Settings, readFile func(string) ([]byte, error)) (map[string]string, string, error) {
	var glossary map[string]string
	var styleGuide string

	if settings.GlossaryPath != "" {
		data, err := readFile(settings.GlossaryPath)
		if err != nil {
			return nil, "", fmt.Errorf("pipeline: reading glossary: %w", err)
		}
		g, err := report.LoadGlossaryMarkdown(data, settings.GlossaryCapPerTU*100)
		if err != nil {
			return nil, "", fmt.Errorf("pipeline: parsing glossary: %w", err)
		}
		glossary = g
	}

	if settings.EnableStyleGuide && settings.StyleGuidePath != "" {
		data, err := readFile(settings.StyleGuidePath)
		if err != nil {
			return nil, "", fmt.Errorf("pipeline: reading style guide: %w", err)
		}
		styleGuide = report.LoadStyleGuideHTML(data)
	}

	return glossary, styleGuide, nil
}
