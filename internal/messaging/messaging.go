// Package messaging implements the abstract Messaging Sink of §6: failures
// here are non-fatal to the session, only logged and surfaced in the
// session summary.
package messaging

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Artifact is a document attachment for send_document (e.g. a rendered
// per-ticker report or PDF).
type Artifact struct {
	Name        string
	ContentType string
	Body        []byte
}

// Sink is the abstract Messaging Sink boundary.
type Sink interface {
	SendText(ctx context.Context, channel, message string) error
	SendDocument(ctx context.Context, channel string, artifact Artifact) error
}

// WebhookSink posts to a single webhook URL, the shape every broadcast
// channel (chat webhook, ops channel) in this codebase's ecosystem takes.
type WebhookSink struct {
	http *resty.Client
	url  string
	log  zerolog.Logger
}

func NewWebhookSink(url string, log zerolog.Logger) *WebhookSink {
	return &WebhookSink{
		http: resty.New().SetTimeout(30 * time.Second),
		url:  url,
		log:  log,
	}
}

func (w *WebhookSink) SendText(ctx context.Context, channel, message string) error {
	_, err := w.http.R().SetContext(ctx).
		SetBody(map[string]string{"channel": channel, "text": message}).
		Post(w.url)
	if err != nil {
		w.log.Warn().Err(err).Str("channel", channel).Msg("messaging send_text failed")
		return fmt.Errorf("send_text: %w", err)
	}
	return nil
}

func (w *WebhookSink) SendDocument(ctx context.Context, channel string, artifact Artifact) error {
	_, err := w.http.R().SetContext(ctx).
		SetFileReader("file", artifact.Name, bytes.NewReader(artifact.Body)).
		SetFormData(map[string]string{"channel": channel}).
		Post(w.url)
	if err != nil {
		w.log.Warn().Err(err).Str("channel", channel).Str("artifact", artifact.Name).Msg("messaging send_document failed")
		return fmt.Errorf("send_document: %w", err)
	}
	return nil
}

// NoopSink discards everything; used when messaging is disabled in config
// (MESSAGING_ENABLED=false) or no webhook URL is configured.
type NoopSink struct{}

func (NoopSink) SendText(context.Context, string, string) error           { return nil }
func (NoopSink) SendDocument(context.Context, string, Artifact) error     { return nil }
