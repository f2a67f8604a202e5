// Package modelclient defines the narrow collaborator interfaces the
// translation driver, review/repair, and document-context bootstrap call
// into. It ships no concrete local-inference-engine implementation: model
// loading and chat templating for GGUF/llama.cpp-style runtimes is outside
// this module's scope, by design.
package modelclient

import "context"

// RequestContext carries everything a translate call may use to condition
// its output, assembled once per TU (and reused per chunk within it).
type RequestContext struct {
	Domain           string
	DocType          string
	Summary          string
	TargetStyle      string
	StyleGuide       string
	GlossaryLines    []string
	StructureHint    string
	NeighborPrev     string
	NeighborNext     string
	AgentInstruction string
	RequiredNumbers  map[string]int
}

// TranslateModel is the primary, high-throughput per-chunk translator.
type TranslateModel interface {
	CountTokens(text string) int
	Translate(ctx context.Context, text, sourceLang, targetLang string, maxNewTokens int, reqCtx RequestContext) (string, error)
}

// AgentModel is the larger general-purpose collaborator used for
// document-context inference, instruction synthesis, review, and repair.
type AgentModel interface {
	CountTokens(text string) int
	Generate(ctx context.Context, prompt string, maxNewTokens int) (string, error)
}

// Embedder is the optional embedding collaborator backing internal/embed.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// ChatTemplate names a translate model's prompt-assembly variant. Concrete
// TranslateModel implementations may branch on this to format context
// blocks the way a given backend's chat template expects.
type ChatTemplate string

const (
	TemplateDefault ChatTemplate = "default"
	TemplateHunyuan ChatTemplate = "hunyuan"
	TemplateGemma   ChatTemplate = "gemma"
)
