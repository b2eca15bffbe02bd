package webhook

import (
	"encoding/json"
	"testing"

	linewebhook "github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, body string) *linewebhook.CallbackRequest {
	t.Helper()
	var cb linewebhook.CallbackRequest
	require.NoError(t, json.Unmarshal([]byte(body), &cb))
	return &cb
}

func TestExtractMessage(t *testing.T) {
	msg, err := ExtractMessage(parse(t, textPayload("01FZ74A0TDDPYRVKNK77XKC3ZR", "วัวกินหญ้ากี่โมง")))
	require.NoError(t, err)

	assert.Equal(t, "วัวกินหญ้ากี่โมง", msg.Text)
	assert.Equal(t, "nHuyWiB7yP5Zw52FIkcQobQuGDXCTA", msg.ReplyToken)
	assert.Equal(t, "01FZ74A0TDDPYRVKNK77XKC3ZR", msg.EventID)
	assert.Equal(t, "U4af4980629", msg.UserID)
}

func TestExtractMessageNoEvents(t *testing.T) {
	_, err := ExtractMessage(parse(t, `{"destination":"U1","events":[]}`))
	assert.ErrorIs(t, err, ErrNoEvents)

	_, err = ExtractMessage(nil)
	assert.ErrorIs(t, err, ErrNoEvents)
}

func TestExtractMessageBlankText(t *testing.T) {
	_, err := ExtractMessage(parse(t, textPayload("evt", "   ")))
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestExtractMessageUnsupported(t *testing.T) {
	_, err := ExtractMessage(parse(t, stickerPayload))
	assert.ErrorIs(t, err, ErrUnsupportedEvent)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "สวัส", truncate("สวัสดี", 4))
	assert.Equal(t, "abc", truncate("abc", 5))
}
