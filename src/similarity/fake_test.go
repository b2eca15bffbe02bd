package similarity

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/embedding"
)

// mapEmbedder returns fixed vectors and counts how many texts it was asked to encode
type mapEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float64
	calls   int
	texts   int
}

func (m *mapEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.texts += len(texts)
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, ok := m.vectors[t]
		if !ok {
			return nil, fmt.Errorf("no vector for %q", t)
		}
		out[i] = v
	}
	return out, nil
}
