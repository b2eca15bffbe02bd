package model

// embedding:{model}:{sha256(text)}  // Cached embedding vector (JSON []float64)
// webhook_event:{webhook_event_id}  // Claimed webhook event, set once per delivery

const (
	EmbeddingKeyPrefix    = "embedding:"
	WebhookEventKeyPrefix = "webhook_event:"
)
