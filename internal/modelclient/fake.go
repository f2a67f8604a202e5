package modelclient

import (
	"context"
	"strings"
)

// FakeTranslate is an in-memory TranslateModel test double used across the
// pipeline's own tests. Translate returns text unchanged (or via Respond,
// if set) and CountTokens approximates token count as rune count / 3.
type FakeTranslate struct {
	Respond func(text, sourceLang, targetLang string) string
}

func (f *FakeTranslate) CountTokens(text string) int {
	n := len([]rune(text)) / 3
	if n < 1 && text != "" {
		n = 1
	}
	return n
}

func (f *FakeTranslate) Translate(_ context.Context, text, sourceLang, targetLang string, _ int, _ RequestContext) (string, error) {
	if f.Respond != nil {
		return f.Respond(text, sourceLang, targetLang), nil
	}
	return text, nil
}

// FakeAgent is an in-memory AgentModel test double.
type FakeAgent struct {
	Respond func(prompt string) string
}

func (f *FakeAgent) CountTokens(text string) int {
	n := len([]rune(text)) / 3
	if n < 1 && text != "" {
		n = 1
	}
	return n
}

func (f *FakeAgent) Generate(_ context.Context, prompt string, _ int) (string, error) {
	if f.Respond != nil {
		return f.Respond(prompt), nil
	}
	if strings.Contains(prompt, "instruction") {
		return `{"instruction":"keep numbers and sentinels intact"}`, nil
	}
	return `{"ok":true,"score":1,"rewrite":"","flags":[]}`, nil
}
