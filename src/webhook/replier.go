package webhook

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// maxTextRunes is the platform's limit for one text message
const maxTextRunes = 5000

// Replier sends one text reply keyed by a reply token
type Replier interface {
	ReplyText(ctx context.Context, replyToken, text string) error
}

// LineReplier sends replies through the LINE Messaging API
type LineReplier struct {
	api *messaging_api.MessagingApiAPI
}

func NewLineReplier(channelAccessToken string, timeout time.Duration) (*LineReplier, error) {
	bot, err := messaging_api.NewMessagingApiAPI(
		channelAccessToken,
		messaging_api.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating messaging API client: %w", err)
	}
	return &LineReplier{api: bot}, nil
}

func (l *LineReplier) ReplyText(ctx context.Context, replyToken, text string) error {
	// WithContext would set the context on the client shared by all requests,
	// so the call is bounded by the HTTP client timeout instead.
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := l.api.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages: []messaging_api.MessageInterface{
			messaging_api.TextMessage{Text: truncate(text, maxTextRunes)},
		},
	})
	if err != nil {
		return fmt.Errorf("error sending reply: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
