package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"linebot_responder/src/greeting"
	"linebot_responder/src/logger"
	"linebot_responder/src/metrics"
	"linebot_responder/src/model"
	"linebot_responder/src/similarity"

	"github.com/cloudwego/eino/compose"
)

// ErrEmptyCorpus is a configuration error: there is nothing to match against
var ErrEmptyCorpus = errors.New("greeting corpus is empty")

const (
	DefaultThreshold = 0.5

	nodeMatch   = "match"
	nodeRespond = "respond"
)

// PhraseStore looks up a stored reply by exact greeting name
type PhraseStore interface {
	FetchReplyByName(ctx context.Context, name string) (string, error)
}

// FallbackGenerator answers messages that matched no greeting
type FallbackGenerator interface {
	Reply(ctx context.Context, text string) string
}

type Options struct {
	Threshold float64
	Metrics   *metrics.Metrics
	// CorpusEngine embeds the greeting names at construction. Defaults to the
	// request engine. Inbound messages always go through the request engine.
	CorpusEngine *similarity.Engine
}

// Resolver picks a canned reply or a generated answer for an inbound text.
// All of its state is fixed at construction, so equal inputs give equal outputs.
type Resolver struct {
	engine    *similarity.Engine
	corpus    *similarity.Corpus
	store     PhraseStore
	fallback  FallbackGenerator
	threshold float64
	metrics   *metrics.Metrics
	runnable  compose.Runnable[string, string]
}

// New embeds the corpus once and compiles the resolution graph.
// engine is used for every inbound message.
func New(ctx context.Context, engine *similarity.Engine, names []string, store PhraseStore, fallback FallbackGenerator, opts Options) (*Resolver, error) {
	if len(names) == 0 {
		return nil, ErrEmptyCorpus
	}

	corpusEngine := opts.CorpusEngine
	if corpusEngine == nil {
		corpusEngine = engine
	}
	corpus, err := similarity.BuildCorpus(ctx, corpusEngine, names)
	if err != nil {
		return nil, err
	}

	r := &Resolver{
		engine:    engine,
		corpus:    corpus,
		store:     store,
		fallback:  fallback,
		threshold: opts.Threshold,
		metrics:   opts.Metrics,
	}

	if r.runnable, err = r.compile(ctx); err != nil {
		return nil, err
	}

	logger.Info().
		Int("corpus_size", corpus.Len()).
		Float64("threshold", r.threshold).
		Msg("Response resolver ready")

	return r, nil
}

func (r *Resolver) compile(ctx context.Context) (compose.Runnable[string, string], error) {
	graph := compose.NewGraph[string, string]()

	if err := graph.AddLambdaNode(nodeMatch, compose.InvokableLambda(r.match)); err != nil {
		return nil, fmt.Errorf("error adding %s node: %w", nodeMatch, err)
	}
	if err := graph.AddLambdaNode(nodeRespond, compose.InvokableLambda(r.respond)); err != nil {
		return nil, fmt.Errorf("error adding %s node: %w", nodeRespond, err)
	}

	edges := [][2]string{
		{compose.START, nodeMatch},
		{nodeMatch, nodeRespond},
		{nodeRespond, compose.END},
	}
	for _, e := range edges {
		if err := graph.AddEdge(e[0], e[1]); err != nil {
			return nil, fmt.Errorf("error adding edge %s -> %s: %w", e[0], e[1], err)
		}
	}

	runnable, err := graph.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("error compiling resolver graph: %w", err)
	}
	return runnable, nil
}

// Resolve returns the reply text for an inbound message
func (r *Resolver) Resolve(ctx context.Context, text string) (string, error) {
	start := time.Now()
	defer func() { r.metrics.ObserveResolve(time.Since(start).Seconds()) }()

	reply, err := r.runnable.Invoke(ctx, text)
	if err != nil {
		r.metrics.Decision(metrics.RouteError)
		return "", fmt.Errorf("error resolving message: %w", err)
	}
	return reply, nil
}

// Explain runs only the matching step
func (r *Resolver) Explain(ctx context.Context, text string) (*model.Match, error) {
	return r.match(ctx, text)
}

// CorpusSize reports how many greeting names are matched against
func (r *Resolver) CorpusSize() int {
	return r.corpus.Len()
}

func (r *Resolver) match(ctx context.Context, text string) (*model.Match, error) {
	vec, err := r.engine.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	idx, score := r.corpus.Best(vec)
	if idx < 0 {
		return nil, ErrEmptyCorpus
	}

	return &model.Match{
		Text:      text,
		Name:      r.corpus.Name(idx),
		Index:     idx,
		Score:     score,
		Threshold: r.threshold,
	}, nil
}

func (r *Resolver) respond(ctx context.Context, m *model.Match) (string, error) {
	if !m.Accepted() {
		r.decided(m, metrics.RouteFallback)
		return r.fallback.Reply(ctx, m.Text), nil
	}

	reply, err := r.store.FetchReplyByName(ctx, m.Name)
	switch {
	case err == nil:
		r.decided(m, metrics.RouteMatch)
		return reply, nil
	case errors.Is(err, greeting.ErrReplyNotFound):
		// The corpus snapshot is older than the store; answer anyway.
		r.decided(m, metrics.RouteMissing)
		return r.fallback.Reply(ctx, m.Text), nil
	default:
		return "", err
	}
}

func (r *Resolver) decided(m *model.Match, route string) {
	r.metrics.Decision(route)
	event := logger.Debug()
	if route == metrics.RouteMissing {
		event = logger.Warn()
	}
	event.
		Str("route", route).
		Str("matched_name", m.Name).
		Float64("score", m.Score).
		Float64("threshold", m.Threshold).
		Msg("resolver decision")
}
