// Package line is the LINE transport: webhook signature verification and event
// extraction on the way in, reply and push calls on the way out.
package line

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"github.com/rs/zerolog"

	"github.com/chudorm/dormbot/internal/metrics"
)

// maxCallbackBytes bounds a webhook body.
const maxCallbackBytes = 1 << 20

// ErrSignatureInvalid is returned when X-Line-Signature does not match the body.
var ErrSignatureInvalid = errors.New("line: invalid webhook signature")

// Event is one inbound text message.
type Event struct {
	UserID     string
	Text       string
	ReplyToken string
	// BaseURL is the public origin asset URLs are built from.
	BaseURL string
}

// MessageHandler is called for each text message event.
type MessageHandler func(ctx context.Context, ev Event) error

type WebhookHandler struct {
	channelSecret string
	baseURL       string
	onMessage     MessageHandler
	log           zerolog.Logger
}

// NewWebhookHandler builds the callback handler. When baseURL is empty the
// asset origin is taken from the request host, over https.
func NewWebhookHandler(channelSecret, baseURL string, onMessage MessageHandler, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		channelSecret: channelSecret,
		baseURL:       strings.TrimRight(baseURL, "/"),
		onMessage:     onMessage,
		log:           log.With().Str("component", "webhook").Logger(),
	}
}

// ParseEvents verifies the request signature and extracts text message events.
// Other event and message types are skipped.
func ParseEvents(channelSecret string, r *http.Request) ([]Event, error) {
	cb, err := webhook.ParseRequest(channelSecret, r)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			return nil, ErrSignatureInvalid
		}
		return nil, fmt.Errorf("parsing callback body: %w", err)
	}

	var events []Event
	for _, ev := range cb.Events {
		msg, ok := ev.(webhook.MessageEvent)
		if !ok {
			continue
		}
		text, ok := msg.Message.(webhook.TextMessageContent)
		if !ok {
			continue
		}
		events = append(events, Event{
			UserID:     sourceUserID(msg.Source),
			Text:       text.Text,
			ReplyToken: msg.ReplyToken,
		})
	}
	return events, nil
}

func sourceUserID(src webhook.SourceInterface) string {
	switch s := src.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.UserId
	case webhook.RoomSource:
		return s.UserId
	}
	return ""
}

// HandleCallback processes POST /callback. Only a bad signature or an
// undecodable body is rejected; processing errors are logged and the platform
// still gets 200 so it does not redeliver.
func (h *WebhookHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCallbackBytes))
	if err != nil {
		metrics.WebhookRejected.WithLabelValues("too_large").Inc()
		h.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("rejecting callback")
		http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	events, err := ParseEvents(h.channelSecret, r)
	if err != nil {
		reason := "malformed"
		if errors.Is(err, ErrSignatureInvalid) {
			reason = "signature"
		}
		metrics.WebhookRejected.WithLabelValues(reason).Inc()
		h.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("rejecting callback")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	base := h.baseURL
	if base == "" {
		base = requestOrigin(r)
	}

	for _, ev := range events {
		ev.BaseURL = base
		if err := h.onMessage(r.Context(), ev); err != nil {
			h.log.Error().Err(err).Str("user", ev.UserID).Msg("handling message")
		}
	}

	w.WriteHeader(http.StatusOK)
}

// requestOrigin mirrors how assets were always addressed: https on the
// request's own hostname, port dropped.
func requestOrigin(r *http.Request) string {
	u := url.URL{Host: r.Host}
	return "https://" + u.Hostname()
}
