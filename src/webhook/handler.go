package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"linebot_responder/src/logger"
	"linebot_responder/src/metrics"

	"github.com/google/uuid"
	linewebhook "github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"github.com/rs/zerolog"
)

const (
	SignatureHeader = "X-Line-Signature"

	defaultMaxBodyBytes = 1 << 20
)

// Stage names, used as the "stage" log field and metric label
const (
	StageReadBody  = "read_body"
	StageSignature = "signature"
	StageParse     = "parse"
	StageExtract   = "extract"
	StageDedupe    = "dedupe"
	StageResolve   = "resolve"
	StageReply     = "reply"
)

// Resolver turns an inbound text into reply text
type Resolver interface {
	Resolve(ctx context.Context, text string) (string, error)
}

type Config struct {
	ChannelSecret string
	Resolver      Resolver
	Replier       Replier
	Deduper       Deduper // optional
	Apology       string
	Metrics       *metrics.Metrics
	MaxBodyBytes  int64
}

// Handler is the webhook endpoint. It always answers 200 OK; failures are
// logged and counted per stage.
type Handler struct {
	secret   string
	resolver Resolver
	replier  Replier
	deduper  Deduper
	apology  string
	metrics  *metrics.Metrics
	maxBody  int64
}

func NewHandler(config Config) (*Handler, error) {
	if config.ChannelSecret == "" {
		return nil, fmt.Errorf("channel secret is required")
	}
	if config.Resolver == nil || config.Replier == nil {
		return nil, fmt.Errorf("resolver and replier are required")
	}
	maxBody := config.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	return &Handler{
		secret:   config.ChannelSecret,
		resolver: config.Resolver,
		replier:  config.Replier,
		deduper:  config.Deduper,
		apology:  config.Apology,
		metrics:  config.Metrics,
		maxBody:  maxBody,
	}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.GetLogger().With().Str("request_id", uuid.NewString()).Logger()

	stage, outcome := h.handle(r.Context(), &log, w, r)
	h.metrics.Webhook(stage, outcome)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "OK")
}

// handle runs every stage and returns the last stage reached with its outcome
func (h *Handler) handle(ctx context.Context, log *zerolog.Logger, w http.ResponseWriter, r *http.Request) (string, string) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		log.Error().Err(err).Str("stage", StageReadBody).Msg("failed to read webhook body")
		return StageReadBody, "error"
	}

	signature := r.Header.Get(SignatureHeader)
	if signature == "" || !linewebhook.ValidateSignature(h.secret, signature, body) {
		log.Warn().Err(ErrInvalidSignature).Str("stage", StageSignature).Int("body_length", len(body)).Msg("rejected webhook")
		return StageSignature, "error"
	}

	var cb linewebhook.CallbackRequest
	if err := json.Unmarshal(body, &cb); err != nil {
		log.Error().Err(err).Str("stage", StageParse).Msg("malformed webhook payload")
		return StageParse, "error"
	}

	msg, err := ExtractMessage(&cb)
	switch {
	case errors.Is(err, ErrNoEvents), errors.Is(err, ErrUnsupportedEvent):
		log.Debug().Err(err).Str("stage", StageExtract).Msg("nothing to answer")
		return StageExtract, "skipped"
	case err != nil:
		log.Warn().Err(err).Str("stage", StageExtract).Msg("invalid message event")
		return StageExtract, "error"
	}

	log.Info().
		Str("event_id", msg.EventID).
		Str("user_id", msg.UserID).
		Int("text_length", len(msg.Text)).
		Msg("message received")

	if h.deduper != nil && msg.EventID != "" {
		claimed, err := h.deduper.Claim(ctx, msg.EventID)
		if err != nil {
			log.Warn().Err(err).Str("stage", StageDedupe).Msg("dedupe unavailable, answering anyway")
		} else if !claimed {
			log.Info().Str("stage", StageDedupe).Str("event_id", msg.EventID).Msg("duplicate event ignored")
			return StageDedupe, "duplicate"
		}
	}

	text, err := h.resolver.Resolve(ctx, msg.Text)
	if err != nil {
		log.Error().Err(err).Str("stage", StageResolve).Msg("resolution failed, sending apology")
		text = h.apology
	}
	if text == "" {
		return StageResolve, "error"
	}

	if err := h.replier.ReplyText(ctx, msg.ReplyToken, text); err != nil {
		log.Error().Err(err).Str("stage", StageReply).Msg("failed to send reply")
		return StageReply, "error"
	}

	log.Info().Int("reply_length", len(text)).Msg("reply sent")
	return StageReply, "ok"
}
