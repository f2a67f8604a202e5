// Package embed provides an optional embedding-retrieval collaborator: a
// per-document, in-memory cosine-similarity index over translated units
// that returns similar already-translated excerpts. The pipeline does not
// call it. The index is in-memory only; it is never persisted.
package embed

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
)

var sentSplitRe = regexp.MustCompile(`(?:[.!?;:。！？；：])\s+`)
var wsRe = regexp.MustCompile(`\s+`)

func normalizeForEmbedding(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\r", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.TrimSpace(wsRe.ReplaceAllString(text, " "))
}

// splitForEmbedding breaks text into sentence-bounded chunks, joining
// sentences while a chunk stays within maxChars runes. A single sentence
// longer than maxChars, or text with no sentence boundary, is returned as
// one chunk without cutting.
func splitForEmbedding(text string, maxChars int) []string {
	norm := normalizeForEmbedding(text)
	if norm == "" {
		return nil
	}
	if maxChars <= 0 || len([]rune(norm)) <= maxChars {
		return []string{norm}
	}
	var parts []string
	for _, p := range sentSplitRe.Split(norm, -1) {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return []string{truncateRunes(norm, maxChars)}
	}
	var out []string
	cur := ""
	for _, p := range parts {
		if cur == "" {
			cur = p
			continue
		}
		if len([]rune(cur))+1+len([]rune(p)) <= maxChars {
			cur = cur + " " + p
			continue
		}
		out = append(out, cur)
		cur = p
	}
	if cur != "" {
		out = append(out, cur)
	}
	if len(out) == 0 {
		return []string{truncateRunes(norm, maxChars)}
	}
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// VectorNorm returns vec's Euclidean norm, 0 for an empty vector.
func VectorNorm(vec []float64) float64 {
	if len(vec) == 0 {
		return 0
	}
	var sum float64
	for _, x := range vec {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// CosineSimilarity returns the cosine similarity between a and b, reusing
// precomputed norms when given (pass 0 to compute on the fly). Returns 0 for
// mismatched lengths, empty vectors, or a zero-norm operand.
func CosineSimilarity(a, b []float64, normA, normB float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	na := normA
	if na == 0 {
		na = VectorNorm(a)
	}
	nb := normB
	if nb == 0 {
		nb = VectorNorm(b)
	}
	if na <= 0 || nb <= 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot / (na * nb)
}

// EmbedFunc embeds a single chunk of text.
type EmbedFunc func(ctx context.Context, text string) ([]float64, error)

// EmbedWithChunking splits text into sentence-bounded chunks of at most
// maxChunkChars runes (a longer single sentence stays one chunk, see
// splitForEmbedding), embeds each independently, and returns the
// length-weighted mean vector and its norm. Chunks whose embed call fails
// are skipped rather than aborting the whole call.
func EmbedWithChunking(ctx context.Context, embed EmbedFunc, text string, maxChunkChars int) ([]float64, float64) {
	chunks := splitForEmbedding(text, maxChunkChars)
	if len(chunks) == 0 {
		return nil, 0
	}
	var vecs [][]float64
	var weights []float64
	for _, ch := range chunks {
		v, err := embed(ctx, ch)
		if err != nil || len(v) == 0 {
			continue
		}
		vecs = append(vecs, v)
		w := float64(len([]rune(ch)))
		if w < 1 {
			w = 1
		}
		weights = append(weights, w)
	}
	if len(vecs) == 0 {
		return nil, 0
	}
	dim := len(vecs[0])
	acc := make([]float64, dim)
	var totalW float64
	for _, w := range weights {
		totalW += w
	}
	if totalW == 0 {
		totalW = 1
	}
	for i, v := range vecs {
		if len(v) != dim {
			continue
		}
		for j, x := range v {
			acc[j] += x * weights[i]
		}
	}
	for i := range acc {
		acc[i] /= totalW
	}
	return acc, VectorNorm(acc)
}

// Excerpt is one indexed translation unit's embedding and identifying
// context, used to bias retrieval toward excerpts from the same section.
type Excerpt struct {
	TUID        int
	PartName    string
	ScopeType   string
	SectionPath []string
	Text        string
	Vec         []float64
	Norm        float64
}

func sectionKey(path []string) string { return strings.Join(path, "\x1f") }

// Index is a per-document, in-memory nearest-neighbor index over Excerpts.
type Index struct {
	items  []Excerpt
	byTUID map[int]Excerpt
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{byTUID: make(map[int]Excerpt)}
}

// Add inserts an excerpt, replacing any prior entry with the same TUID.
func (idx *Index) Add(item Excerpt) {
	if _, ok := idx.byTUID[item.TUID]; ok {
		for i := range idx.items {
			if idx.items[i].TUID == item.TUID {
				idx.items[i] = item
				break
			}
		}
	} else {
		idx.items = append(idx.items, item)
	}
	idx.byTUID[item.TUID] = item
}

// Len reports how many excerpts are indexed.
func (idx *Index) Len() int { return len(idx.items) }

// scored is one query result candidate before truncation to top-K.
type scored struct {
	item Excerpt
	sim  float64
}

// Query returns the topK excerpts most similar to queryVec, excluding any
// TU id in excludeIDs, with a small similarity bonus for excerpts sharing
// preferSection's exact section path (nil to disable the bias).
func (idx *Index) Query(queryVec []float64, queryNorm float64, topK int, excludeIDs map[int]bool, preferSection []string) []Excerpt {
	if len(queryVec) == 0 || topK <= 0 {
		return nil
	}
	preferKey := ""
	hasPrefer := preferSection != nil
	if hasPrefer {
		preferKey = sectionKey(preferSection)
	}
	var candidates []scored
	for _, it := range idx.items {
		if excludeIDs != nil && excludeIDs[it.TUID] {
			continue
		}
		sim := CosineSimilarity(queryVec, it.Vec, queryNorm, it.Norm)
		if hasPrefer && sectionKey(it.SectionPath) == preferKey {
			sim += 0.02
		}
		candidates = append(candidates, scored{item: it, sim: sim})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].sim > candidates[j].sim })
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	out := make([]Excerpt, len(candidates))
	for i, c := range candidates {
		out[i] = c.item
	}
	return out
}
