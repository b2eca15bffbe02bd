package similarity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"linebot_responder/src/logger"
	"linebot_responder/src/storage"

	"github.com/cloudwego/eino/components/embedding"
)

// CachedEmbedder stores vectors in Redis so the corpus is not re-encoded on every restart.
// Cache failures are logged and never fail the embedding call.
type CachedEmbedder struct {
	next  embedding.Embedder
	cache *storage.RedisStorage
	model string
	ttl   time.Duration
}

var _ embedding.Embedder = (*CachedEmbedder)(nil)

func NewCachedEmbedder(next embedding.Embedder, cache *storage.RedisStorage, model string, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{next: next, cache: cache, model: model, ttl: ttl}
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.model + ":" + hex.EncodeToString(sum[:])
}

func (c *CachedEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		var v []float64
		err := c.cache.Get(ctx, c.key(text), &v)
		switch {
		case err == nil && len(v) > 0:
			vectors[i] = v
			continue
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			logger.Warn().Err(err).Msg("embedding cache read failed")
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	fresh, err := c.next.EmbedStrings(ctx, missing, opts...)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missing) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(missing), len(fresh))
	}

	for j, v := range fresh {
		vectors[missingIdx[j]] = v
		if err := c.cache.Set(ctx, c.key(missing[j]), v, c.ttl); err != nil {
			logger.Warn().Err(err).Msg("embedding cache write failed")
		}
	}

	logger.Debug().
		Int("requested", len(texts)).
		Int("cache_misses", len(missing)).
		Msg("embeddings resolved")

	return vectors, nil
}
