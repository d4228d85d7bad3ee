package ragchat

import (
	"fmt"
	"math"
	"sort"
)

// Entry pairs a chunk of document text with its embedding vector. Entries
// are never mutated after insertion.
type Entry struct {
	Text   string
	Vector []float32
}

// Scored is one search result: a chunk and its similarity to the query.
type Scored struct {
	Text  string
	Score float32
}

// ScoreFunc computes a similarity score between two equal-length vectors;
// higher means more similar.
type ScoreFunc func(a, b []float32) float32

// Cosine is the default ScoreFunc: dot product over the product of
// magnitudes. Returns 0 for zero-magnitude input.
func Cosine(a, b []float32) float32 {
	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

// DotProduct scores by raw dot product. Equivalent to Cosine when vectors
// are L2-normalized.
func DotProduct(a, b []float32) float32 {
	var dot float32
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot
}

// NegEuclidean scores by negated Euclidean distance so that higher still
// means closer.
func NegEuclidean(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return float32(-math.Sqrt(sum))
}

// Index is an in-memory vector index over embedded chunks. It is built once
// by an ingestion and read-only afterwards; concurrent Search calls need no
// locking. Replacement, not mutation, is how the service updates it.
type Index struct {
	entries []Entry
	dim     int
	score   ScoreFunc
	model   string
}

// IndexOption configures a new Index.
type IndexOption func(*Index)

// WithScoreFunc swaps the similarity function used by Search.
func WithScoreFunc(f ScoreFunc) IndexOption {
	return func(ix *Index) { ix.score = f }
}

// WithModelInfo records the embedding configuration the index was built
// with. Informational; vectors from a different configuration must never be
// inserted.
func WithModelInfo(info string) IndexOption {
	return func(ix *Index) { ix.model = info }
}

// NewIndex creates an empty index scoring with cosine similarity unless
// overridden.
func NewIndex(opts ...IndexOption) *Index {
	ix := &Index{score: Cosine}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Insert appends entries. All vectors in one index must share a length; the
// first insert fixes the dimension. The batch is all-or-nothing: a rejected
// entry leaves the index exactly as it was.
func (ix *Index) Insert(entries ...Entry) error {
	dim := ix.dim
	for _, e := range entries {
		if len(e.Vector) == 0 {
			return fmt.Errorf("%w: empty vector", ErrDimensionMismatch)
		}
		if dim == 0 {
			dim = len(e.Vector)
		}
		if len(e.Vector) != dim {
			return fmt.Errorf("%w: got %d, index holds %d", ErrDimensionMismatch, len(e.Vector), dim)
		}
	}
	ix.dim = dim
	ix.entries = append(ix.entries, entries...)
	return nil
}

// Search returns up to k entries ranked by descending similarity to query.
// Ties keep insertion order. An empty or dimension-incompatible index yields
// an empty result, never an error.
func (ix *Index) Search(query []float32, k int) []Scored {
	if ix == nil || len(ix.entries) == 0 || k < 1 || len(query) != ix.dim {
		return nil
	}
	order := make([]int, len(ix.entries))
	scores := make([]float32, len(ix.entries))
	for i := range ix.entries {
		order[i] = i
		scores[i] = ix.score(query, ix.entries[i].Vector)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	if k > len(order) {
		k = len(order)
	}
	results := make([]Scored, k)
	for i := 0; i < k; i++ {
		results[i] = Scored{Text: ix.entries[order[i]].Text, Score: scores[order[i]]}
	}
	return results
}

// Size reports the number of stored entries. Safe on a nil index.
func (ix *Index) Size() int {
	if ix == nil {
		return 0
	}
	return len(ix.entries)
}

// ModelInfo reports the embedding configuration recorded at construction.
func (ix *Index) ModelInfo() string {
	if ix == nil {
		return ""
	}
	return ix.model
}
