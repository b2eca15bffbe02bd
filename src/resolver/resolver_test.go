package resolver

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"linebot_responder/src/greeting"
	"linebot_responder/src/metrics"
	"linebot_responder/src/model"
	"linebot_responder/src/similarity"
	"linebot_responder/src/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	hello      = "สวัสดี"
	helloReply = "สวัสดีครับ"
	unrelated  = "วัวกินหญ้ากี่โมง"
)

type fakeEmbedder map[string][]float64

func (f fakeEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, ok := f[t]
		if !ok {
			return nil, fmt.Errorf("no vector for %q", t)
		}
		out[i] = v
	}
	return out, nil
}

type fakeStore struct {
	replies map[string]string
	err     error
	lookups []string
}

func (s *fakeStore) FetchReplyByName(_ context.Context, name string) (string, error) {
	s.lookups = append(s.lookups, name)
	if s.err != nil {
		return "", s.err
	}
	reply, ok := s.replies[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", greeting.ErrReplyNotFound, name)
	}
	return reply, nil
}

type fakeGenerator struct {
	prompts []string
}

func (g *fakeGenerator) Reply(_ context.Context, text string) string {
	g.prompts = append(g.prompts, text)
	return "generated:" + text
}

// vectors places the greeting, a near paraphrase and an unrelated question
var vectors = fakeEmbedder{
	hello:      {1, 0.1, 0},
	helloReply: {0.9, 0.2, 0.1},
	unrelated:  {0, 0.2, 1},
	"hi":       {0.1, 1, 0},
}

type fixture struct {
	resolver *Resolver
	store    *fakeStore
	gen      *fakeGenerator
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T, names []string, threshold float64) *fixture {
	t.Helper()
	f := &fixture{
		store:   &fakeStore{replies: map[string]string{hello: helloReply, "hi": "hello there"}},
		gen:     &fakeGenerator{},
		metrics: metrics.New(),
	}
	r, err := New(context.Background(), similarity.NewEngine(vectors), names, f.store, f.gen,
		Options{Threshold: threshold, Metrics: f.metrics})
	require.NoError(t, err)
	f.resolver = r
	return f
}

func TestResolveSimilarGreetingReturnsStoredReply(t *testing.T) {
	f := newFixture(t, []string{hello}, DefaultThreshold)

	reply, err := f.resolver.Resolve(context.Background(), helloReply)
	require.NoError(t, err)

	assert.Equal(t, helloReply, reply)
	assert.Equal(t, []string{hello}, f.store.lookups)
	assert.Empty(t, f.gen.prompts)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ResolverDecisions.WithLabelValues(metrics.RouteMatch)))
}

func TestResolveExactNameReturnsStoredReply(t *testing.T) {
	f := newFixture(t, []string{"hi", hello}, DefaultThreshold)

	for _, name := range []string{"hi", hello} {
		m, err := f.resolver.Explain(context.Background(), name)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, m.Score, 1e-9)
		assert.Equal(t, name, m.Name)

		reply, err := f.resolver.Resolve(context.Background(), name)
		require.NoError(t, err)
		assert.Equal(t, f.store.replies[name], reply)
	}
}

func TestResolveUnrelatedDelegatesToFallback(t *testing.T) {
	f := newFixture(t, []string{hello}, DefaultThreshold)

	m, err := f.resolver.Explain(context.Background(), unrelated)
	require.NoError(t, err)
	assert.LessOrEqual(t, m.Score, DefaultThreshold)

	reply, err := f.resolver.Resolve(context.Background(), unrelated)
	require.NoError(t, err)

	assert.Equal(t, (&fakeGenerator{}).Reply(context.Background(), unrelated), reply)
	assert.Equal(t, []string{unrelated}, f.gen.prompts)
	assert.Empty(t, f.store.lookups)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ResolverDecisions.WithLabelValues(metrics.RouteFallback)))
}

func TestResolveScoreEqualToThresholdFallsBack(t *testing.T) {
	engine := similarity.NewEngine(vectors)
	a, err := engine.Embed(context.Background(), hello)
	require.NoError(t, err)
	b, err := engine.Embed(context.Background(), helloReply)
	require.NoError(t, err)
	exact := similarity.Dot(a, b)

	f := newFixture(t, []string{hello}, exact)

	reply, err := f.resolver.Resolve(context.Background(), helloReply)
	require.NoError(t, err)
	assert.Equal(t, "generated:"+helloReply, reply)
}

func TestResolveTieGoesToFirstCorpusEntry(t *testing.T) {
	f := &fixture{
		store: &fakeStore{replies: map[string]string{"first": "one", "second": "two"}},
		gen:   &fakeGenerator{},
	}
	emb := fakeEmbedder{"first": {1, 0}, "second": {2, 0}, "q": {3, 0}}
	r, err := New(context.Background(), similarity.NewEngine(emb), []string{"first", "second"}, f.store, f.gen,
		Options{Threshold: DefaultThreshold})
	require.NoError(t, err)

	reply, err := r.Resolve(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "one", reply)
}

func TestResolveMissingReplyFallsBack(t *testing.T) {
	f := newFixture(t, []string{hello}, DefaultThreshold)
	delete(f.store.replies, hello)

	reply, err := f.resolver.Resolve(context.Background(), hello)
	require.NoError(t, err)

	assert.Equal(t, "generated:"+hello, reply)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ResolverDecisions.WithLabelValues(metrics.RouteMissing)))
}

func TestResolveStoreErrorIsReturned(t *testing.T) {
	f := newFixture(t, []string{hello}, DefaultThreshold)
	f.store.err = errors.New("connection reset")

	_, err := f.resolver.Resolve(context.Background(), hello)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Empty(t, f.gen.prompts)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ResolverDecisions.WithLabelValues(metrics.RouteError)))
}

func TestResolveEmbeddingErrorIsReturned(t *testing.T) {
	f := newFixture(t, []string{hello}, DefaultThreshold)

	_, err := f.resolver.Resolve(context.Background(), "not in the fake")
	require.Error(t, err)
}

func TestResolveIsIdempotent(t *testing.T) {
	f := newFixture(t, []string{hello, "hi"}, DefaultThreshold)

	for _, text := range []string{helloReply, unrelated} {
		first, err := f.resolver.Resolve(context.Background(), text)
		require.NoError(t, err)
		second, err := f.resolver.Resolve(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestNewRejectsEmptyCorpus(t *testing.T) {
	_, err := New(context.Background(), similarity.NewEngine(vectors), nil, &fakeStore{}, &fakeGenerator{},
		Options{Threshold: DefaultThreshold})
	assert.ErrorIs(t, err, ErrEmptyCorpus)
}

func TestNewFailsWhenCorpusCannotBeEmbedded(t *testing.T) {
	_, err := New(context.Background(), similarity.NewEngine(vectors), []string{"unknown"}, &fakeStore{}, &fakeGenerator{},
		Options{Threshold: DefaultThreshold})
	require.Error(t, err)
}

func TestResolveDoesNotCacheInboundMessages(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	cache := storage.NewRedisStorageWithClient(client, model.EmbeddingKeyPrefix)

	cached := similarity.NewCachedEmbedder(vectors, cache, "bge-m3", time.Hour)
	r, err := New(ctx, similarity.NewEngine(vectors), []string{hello, "hi"}, &fakeStore{replies: map[string]string{hello: helloReply}}, &fakeGenerator{},
		Options{Threshold: DefaultThreshold, CorpusEngine: similarity.NewEngine(cached)})
	require.NoError(t, err)

	corpusKeys := mr.Keys()
	require.Len(t, corpusKeys, 2)

	for _, text := range []string{helloReply, unrelated, helloReply} {
		_, err := r.Resolve(ctx, text)
		require.NoError(t, err)
	}
	assert.Equal(t, corpusKeys, mr.Keys())
}
