package model

import "time"

// ----------------------------------------------------
// ================ Config ================
// LogConfig holds configuration for the zerolog logger
type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	Format     string `envconfig:"LOG_FORMAT" default:"json"`
	Output     string `envconfig:"LOG_OUTPUT" default:"stdout"`
	FilePath   string `envconfig:"LOG_FILE_PATH" default:"logs/app.log"`
	TimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"rfc3339"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Addr            string        `envconfig:"HTTP_ADDR" default:":5000"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
}

// Neo4jConfig holds connection settings for the phrase store
type Neo4jConfig struct {
	URI          string        `envconfig:"NEO4J_URI" default:"neo4j://localhost:7687"`
	Username     string        `envconfig:"NEO4J_USERNAME" default:"neo4j"`
	Password     string        `envconfig:"NEO4J_PASSWORD" required:"true"`
	Database     string        `envconfig:"NEO4J_DATABASE" default:"neo4j"`
	QueryTimeout time.Duration `envconfig:"NEO4J_QUERY_TIMEOUT" default:"5s"`
}

// LineConfig holds the messaging platform credentials.
// Only the serve command needs them, see Config.ValidateLine.
type LineConfig struct {
	ChannelSecret      string        `envconfig:"LINE_CHANNEL_SECRET"`
	ChannelAccessToken string        `envconfig:"LINE_CHANNEL_ACCESS_TOKEN"`
	ReplyTimeout       time.Duration `envconfig:"LINE_REPLY_TIMEOUT" default:"10s"`
}

// OllamaConfig holds settings for the embedding and generation service
type OllamaConfig struct {
	URL              string        `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	Model            string        `envconfig:"OLLAMA_MODEL" default:"supachai/llama-3-typhoon-v1.5"`
	EmbeddingModel   string        `envconfig:"OLLAMA_EMBEDDING_MODEL" default:"bge-m3"`
	EmbeddingTimeout time.Duration `envconfig:"EMBEDDING_TIMEOUT" default:"30s"`
}

// ResolverConfig holds the similarity decision settings
type ResolverConfig struct {
	SimilarityThreshold float64 `envconfig:"SIMILARITY_THRESHOLD" default:"0.5"`
}

// FallbackConfig holds the generative fallback settings
type FallbackConfig struct {
	Suffix  string        `envconfig:"FALLBACK_SUFFIX" default:"ตอบสั้นๆไม่เกิน 20 คำ ตอบเป็นภาษาไทยเท่านั้น ผู้ตอบคือผู้เชี่ยวชาญการเลี้ยงโค"`
	Marker  string        `envconfig:"FALLBACK_MARKER" default:"Ollama ช่วยตอบ"`
	Apology string        `envconfig:"FALLBACK_APOLOGY" default:"ขออภัยครับ ตอนนี้ยังไม่สามารถตอบคำถามนี้ได้ กรุณาลองใหม่อีกครั้ง"`
	Timeout time.Duration `envconfig:"FALLBACK_TIMEOUT" default:"60s"`
}

// RedisConfig holds the optional cache settings. An empty URL disables Redis.
type RedisConfig struct {
	URL               string        `envconfig:"REDIS_URL"`
	EmbeddingCacheTTL time.Duration `envconfig:"EMBEDDING_CACHE_TTL" default:"168h"`
	DedupeTTL         time.Duration `envconfig:"WEBHOOK_DEDUPE_TTL" default:"24h"`
}
