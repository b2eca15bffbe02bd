package app

import (
	"context"
	"errors"
	"fmt"

	"linebot_responder/src"
	"linebot_responder/src/greeting"
	"linebot_responder/src/llm/fallback"
	"linebot_responder/src/logger"
	"linebot_responder/src/metrics"
	"linebot_responder/src/model"
	"linebot_responder/src/resolver"
	"linebot_responder/src/server"
	"linebot_responder/src/similarity"
	"linebot_responder/src/storage"
	"linebot_responder/src/webhook"

	"github.com/cloudwego/eino/components/embedding"
)

// App holds every long-lived component. It is built once at startup and
// shared read-only by all requests.
type App struct {
	Config   *src.Config
	Metrics  *metrics.Metrics
	Store    *greeting.Store
	Redis    *storage.RedisStorage // nil when REDIS_URL is unset
	Resolver *resolver.Resolver
	Handler  *webhook.Handler
}

// New connects to Neo4j (and Redis when configured), embeds the greeting corpus
// and builds the webhook handler. Any failure here is fatal for serving.
func New(ctx context.Context, config *src.Config) (*App, error) {
	if err := config.ValidateLine(); err != nil {
		return nil, err
	}
	a := &App{Config: config, Metrics: metrics.New()}

	ok := false
	defer func() {
		if !ok {
			a.Close(context.Background())
		}
	}()

	if err := a.initStores(ctx); err != nil {
		return nil, err
	}
	if err := a.initResolver(ctx); err != nil {
		return nil, err
	}

	replier, err := webhook.NewLineReplier(config.LineConfig.ChannelAccessToken, config.LineConfig.ReplyTimeout)
	if err != nil {
		return nil, err
	}

	var deduper webhook.Deduper
	if a.Redis != nil {
		deduper = webhook.NewRedisDeduper(a.Redis.WithPrefix(model.WebhookEventKeyPrefix), config.RedisConfig.DedupeTTL)
	}

	a.Handler, err = webhook.NewHandler(webhook.Config{
		ChannelSecret: config.LineConfig.ChannelSecret,
		Resolver:      a.Resolver,
		Replier:       replier,
		Deduper:       deduper,
		Apology:       config.FallbackConfig.Apology,
		Metrics:       a.Metrics,
	})
	if err != nil {
		return nil, err
	}

	ok = true
	return a, nil
}

// NewResolverOnly builds what the ask command needs: no LINE credentials are used.
func NewResolverOnly(ctx context.Context, config *src.Config) (*App, error) {
	a := &App{Config: config, Metrics: metrics.New()}
	if err := a.initStores(ctx); err != nil {
		a.Close(context.Background())
		return nil, err
	}
	if err := a.initResolver(ctx); err != nil {
		a.Close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *App) initStores(ctx context.Context) error {
	store, err := greeting.NewStore(ctx, a.Config.Neo4jConfig)
	if err != nil {
		return fmt.Errorf("error connecting to phrase store: %w", err)
	}
	a.Store = store

	if a.Config.RedisConfig.URL == "" {
		logger.Info().Msg("REDIS_URL not set, embedding cache and event dedupe disabled")
		return nil
	}
	redisStore, err := storage.NewRedisStorage(ctx, a.Config.RedisConfig.URL, model.EmbeddingKeyPrefix)
	if err != nil {
		return err
	}
	a.Redis = redisStore
	return nil
}

func (a *App) initResolver(ctx context.Context) error {
	ollama := a.Config.OllamaConfig

	base, err := similarity.NewOllamaEmbedder(ollama.URL, ollama.EmbeddingModel, ollama.EmbeddingTimeout)
	if err != nil {
		return err
	}
	// Only the static corpus goes through the Redis cache; user messages are never stored.
	var corpusEmbedder embedding.Embedder = base
	if a.Redis != nil {
		corpusEmbedder = similarity.NewCachedEmbedder(base, a.Redis, base.Model(), a.Config.RedisConfig.EmbeddingCacheTTL)
	}

	generator, err := fallback.NewGenerator(ollama, a.Config.FallbackConfig, a.Metrics)
	if err != nil {
		return err
	}

	names, err := a.Store.FetchAllGreetingNames(ctx)
	if err != nil {
		return fmt.Errorf("error loading greeting corpus: %w", err)
	}

	a.Resolver, err = resolver.New(ctx, similarity.NewEngine(base), names, a.Store, generator, resolver.Options{
		Threshold:    a.Config.ResolverConfig.SimilarityThreshold,
		Metrics:      a.Metrics,
		CorpusEngine: similarity.NewEngine(corpusEmbedder),
	})
	if err != nil {
		if errors.Is(err, resolver.ErrEmptyCorpus) {
			return fmt.Errorf("%w: seed the :Greeting nodes first", err)
		}
		return fmt.Errorf("error building resolver: %w", err)
	}
	return nil
}

// HealthChecks returns the readiness checks served on /healthz
func (a *App) HealthChecks() map[string]server.Check {
	checks := map[string]server.Check{}
	if a.Store != nil {
		checks["neo4j"] = a.Store.VerifyConnectivity
	}
	if a.Redis != nil {
		checks["redis"] = a.Redis.Ping
	}
	return checks
}

// Close releases the Neo4j pool and the Redis connection
func (a *App) Close(ctx context.Context) {
	if a.Store != nil {
		if err := a.Store.Close(ctx); err != nil {
			logger.Warn().Err(err).Msg("error closing neo4j driver")
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing redis")
		}
	}
}
