package similarity

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"
)

// Engine encodes text into L2-normalized vectors so similarity is a dot product
type Engine struct {
	embedder embedding.Embedder
}

func NewEngine(embedder embedding.Embedder) *Engine {
	return &Engine{embedder: embedder}
}

// Embed encodes a single text
func (e *Engine) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := e.EmbedAll(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedAll encodes texts in order
func (e *Engine) EmbedAll(ctx context.Context, texts []string) ([][]float64, error) {
	raw, err := e.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("error embedding text: %w", err)
	}
	if len(raw) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(raw), len(texts))
	}

	out := make([][]float64, len(raw))
	for i, v := range raw {
		if len(v) == 0 {
			return nil, fmt.Errorf("embedder returned an empty vector for text %d", i)
		}
		out[i] = Normalize(v)
	}
	return out, nil
}

// Similarity scores two texts
func (e *Engine) Similarity(ctx context.Context, a, b string) (float64, error) {
	vectors, err := e.EmbedAll(ctx, []string{a, b})
	if err != nil {
		return 0, err
	}
	return Dot(vectors[0], vectors[1]), nil
}

// Corpus is the greeting name set with its embeddings, built once at startup.
// It is read-only after construction.
type Corpus struct {
	names   []string
	vectors [][]float64
}

// BuildCorpus embeds names in one batch
func BuildCorpus(ctx context.Context, engine *Engine, names []string) (*Corpus, error) {
	if len(names) == 0 {
		return &Corpus{}, nil
	}
	vectors, err := engine.EmbedAll(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("error embedding corpus: %w", err)
	}
	return &Corpus{
		names:   append([]string(nil), names...),
		vectors: vectors,
	}, nil
}

func (c *Corpus) Len() int {
	return len(c.names)
}

func (c *Corpus) Name(i int) string {
	return c.names[i]
}

// Scores returns the similarity of v to every corpus entry, in corpus order
func (c *Corpus) Scores(v []float64) []float64 {
	scores := make([]float64, len(c.vectors))
	for i, cv := range c.vectors {
		scores[i] = Dot(cv, v)
	}
	return scores
}

// Best returns the index and score of the most similar entry.
// Ties go to the lowest index. An empty corpus returns -1.
func (c *Corpus) Best(v []float64) (int, float64) {
	best, bestScore := -1, 0.0
	for i, score := range c.Scores(v) {
		if best == -1 || score > bestScore {
			best, bestScore = i, score
		}
	}
	return best, bestScore
}
