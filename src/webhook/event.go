package webhook

import (
	"errors"
	"fmt"
	"strings"

	"linebot_responder/src/model"

	linewebhook "github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

var (
	ErrInvalidSignature  = errors.New("invalid webhook signature")
	ErrNoEvents          = errors.New("payload has no events")
	ErrUnsupportedEvent  = errors.New("unsupported event")
	ErrEmptyText         = errors.New("message text is empty")
	ErrMissingReplyToken = errors.New("event has no reply token")
)

// ExtractMessage pulls the text and reply token out of the first event.
// Only text message events are answered.
func ExtractMessage(cb *linewebhook.CallbackRequest) (*model.InboundMessage, error) {
	if cb == nil || len(cb.Events) == 0 {
		return nil, ErrNoEvents
	}

	event, ok := asMessageEvent(cb.Events[0])
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedEvent, cb.Events[0])
	}

	text, ok := asTextContent(event.Message)
	if !ok {
		return nil, fmt.Errorf("%w: %T message", ErrUnsupportedEvent, event.Message)
	}
	if strings.TrimSpace(text.Text) == "" {
		return nil, ErrEmptyText
	}
	if event.ReplyToken == "" {
		return nil, ErrMissingReplyToken
	}

	msg := &model.InboundMessage{
		Text:       text.Text,
		ReplyToken: event.ReplyToken,
		EventID:    event.WebhookEventId,
	}
	switch src := event.Source.(type) {
	case linewebhook.UserSource:
		msg.UserID = src.UserId
	case *linewebhook.UserSource:
		msg.UserID = src.UserId
	}
	return msg, nil
}

func asMessageEvent(e linewebhook.EventInterface) (linewebhook.MessageEvent, bool) {
	switch ev := e.(type) {
	case linewebhook.MessageEvent:
		return ev, true
	case *linewebhook.MessageEvent:
		if ev != nil {
			return *ev, true
		}
	}
	return linewebhook.MessageEvent{}, false
}

func asTextContent(m linewebhook.MessageContentInterface) (linewebhook.TextMessageContent, bool) {
	switch c := m.(type) {
	case linewebhook.TextMessageContent:
		return c, true
	case *linewebhook.TextMessageContent:
		if c != nil {
			return *c, true
		}
	}
	return linewebhook.TextMessageContent{}, false
}
