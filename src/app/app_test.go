package app

import (
	"context"
	"testing"
	"time"

	"linebot_responder/src"
	"linebot_responder/src/model"
	"linebot_responder/src/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *src.Config {
	return &src.Config{
		Neo4jConfig: model.Neo4jConfig{
			URI:          "neo4j://127.0.0.1:1",
			Username:     "neo4j",
			Password:     "secret",
			QueryTimeout: 200 * time.Millisecond,
		},
		LineConfig: model.LineConfig{
			ChannelSecret:      "channel-secret",
			ChannelAccessToken: "access-token",
		},
		FallbackConfig: model.FallbackConfig{Apology: "ขออภัยครับ"},
	}
}

func TestNewRequiresLineCredentials(t *testing.T) {
	cfg := testConfig()
	cfg.LineConfig.ChannelSecret = ""

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LINE_CHANNEL_SECRET")
}

func TestNewFailsWhenPhraseStoreUnreachable(t *testing.T) {
	_, err := New(context.Background(), testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "phrase store")
}

func TestNewResolverOnlyRejectsBadNeo4jURI(t *testing.T) {
	cfg := testConfig()
	cfg.Neo4jConfig.URI = "bogus://localhost"

	_, err := NewResolverOnly(context.Background(), cfg)
	require.Error(t, err)
}

func TestCloseOnEmptyApp(t *testing.T) {
	assert.NotPanics(t, func() { (&App{}).Close(context.Background()) })
}

func TestHealthChecksFollowConfiguredDependencies(t *testing.T) {
	assert.Empty(t, (&App{}).HealthChecks())

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	a := &App{Redis: storage.NewRedisStorageWithClient(client, model.EmbeddingKeyPrefix)}
	checks := a.HealthChecks()
	require.Contains(t, checks, "redis")
	assert.NoError(t, checks["redis"](context.Background()))
}
