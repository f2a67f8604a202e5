// Package legalref deterministically remaps frozen legal-reference
// placeholder values between English and Chinese canonical forms, applied
// once per document after source/target language is known. Every rule
// copies the numeric id substring byte-for-byte so digit multisets used by
// the number-preservation invariant are always satisfied by construction.
package legalref

import "regexp"

type kind int

const (
	kindSection kind = iota
	kindClause
	kindParagraph
	kindSchedule
)

var enPattern = regexp.MustCompile(`(?i)^(Section|Article|Clause|Paragraph|Schedule|Sec\.|Art\.|Cl\.|Para\.|Sched\.)\s*(\d+(?:\.\d+)*)((?:\([a-zA-Z]\))?(?:\([ivxlcdm]+\))?)$`)

var zhPattern = regexp.MustCompile(`^(第|附表|附件)\s*(\d+(?:\.\d+)*)\s*([条款项段节章编]?)$`)

func normalizeEnKind(word string) kind {
	switch {
	case matchesAny(word, "section", "sec."):
		return kindSection
	case matchesAny(word, "article"):
		return kindSection // ambiguous article/section both map to 条
	case matchesAny(word, "clause", "cl."):
		return kindClause
	case matchesAny(word, "paragraph", "para."):
		return kindParagraph
	case matchesAny(word, "schedule", "sched."):
		return kindSchedule
	}
	return kindSection
}

func matchesAny(word string, opts ...string) bool {
	lw := toLower(word)
	for _, o := range opts {
		if lw == o {
			return true
		}
	}
	return false
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c - 'A' + 'a'
		}
	}
	return string(b)
}

func zhSuffix(k kind) string {
	switch k {
	case kindClause:
		return "款"
	case kindParagraph:
		return "段"
	case kindSchedule:
		return ""
	default:
		return "条"
	}
}

// ToZh maps an English legal reference string to its Chinese canonical
// form, or returns ok=false if s does not match.
func ToZh(s string) (string, bool) {
	m := enPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	k := normalizeEnKind(m[1])
	num := m[2]
	suffix := m[3]
	if k == kindSchedule {
		return "附表" + num + suffix, true
	}
	return "第" + num + zhSuffix(k) + suffix, true
}

// ToEn maps a Chinese legal reference string to its English canonical form.
func ToEn(s string) (string, bool) {
	m := zhPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	prefix := m[1]
	num := m[2]
	suffix := m[3]
	if prefix == "附表" || prefix == "附件" {
		return "Schedule " + num, true
	}
	switch suffix {
	case "款":
		return "Clause " + num, true
	case "段":
		return "Paragraph " + num, true
	case "项", "节", "章", "编":
		return "Section " + num, true
	default:
		return "Section " + num, true
	}
}

// RemapPlaceholders rewrites every legal-reference value in a TU's
// placeholder map from source language to target language in place,
// leaving non-legal-reference entries untouched.
func RemapPlaceholders(placeholders map[string]string, sourceLang, targetLang string) {
	if sourceLang == targetLang {
		return
	}
	for tok, val := range placeholders {
		switch {
		case sourceLang == "en" && targetLang == "zh":
			if mapped, ok := ToZh(val); ok {
				placeholders[tok] = mapped
			}
		case sourceLang == "zh" && targetLang == "en":
			if mapped, ok := ToEn(val); ok {
				placeholders[tok] = mapped
			}
		}
	}
}
