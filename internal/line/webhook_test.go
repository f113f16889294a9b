package line

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

const testSecret = "channel-secret"

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func callbackRequest(body, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "http://bot.example.test:8443/callback", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Line-Signature", signature)
	return req
}

const textEvent = `{
  "destination": "Ubot",
  "events": [
    {
      "type": "message",
      "mode": "active",
      "timestamp": 1700000000000,
      "webhookEventId": "01HX",
      "deliveryContext": {"isRedelivery": false},
      "source": {"type": "user", "userId": "U123"},
      "replyToken": "reply-token-1",
      "message": {"id": "1", "type": "text", "quoteToken": "q", "text": "新生"}
    },
    {
      "type": "message",
      "mode": "active",
      "timestamp": 1700000000001,
      "webhookEventId": "01HY",
      "deliveryContext": {"isRedelivery": false},
      "source": {"type": "group", "groupId": "G1", "userId": "U456"},
      "replyToken": "reply-token-2",
      "message": {"id": "2", "type": "sticker", "quoteToken": "q", "packageId": "1", "stickerId": "1", "stickerResourceType": "STATIC"}
    },
    {
      "type": "follow",
      "mode": "active",
      "timestamp": 1700000000002,
      "webhookEventId": "01HZ",
      "deliveryContext": {"isRedelivery": false},
      "source": {"type": "user", "userId": "U789"},
      "replyToken": "reply-token-3",
      "follow": {"isUnblocked": false}
    }
  ]
}`

func TestParseEventsKeepsTextMessagesOnly(t *testing.T) {
	events, err := ParseEvents(testSecret, callbackRequest(textEvent, sign(testSecret, []byte(textEvent))))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	ev := events[0]
	if ev.UserID != "U123" || ev.Text != "新生" || ev.ReplyToken != "reply-token-1" {
		t.Errorf("event = %+v", ev)
	}
}

func TestParseEventsBadSignature(t *testing.T) {
	_, err := ParseEvents(testSecret, callbackRequest(textEvent, sign("other-secret", []byte(textEvent))))
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("err = %v, want ErrSignatureInvalid", err)
	}
}

func TestHandleCallback(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		signature  string
		baseURL    string
		wantStatus int
		wantEvents int
		wantBase   string
	}{
		{"valid", textEvent, sign(testSecret, []byte(textEvent)), "", http.StatusOK, 1, "https://bot.example.test"},
		{"configured base", textEvent, sign(testSecret, []byte(textEvent)), "https://cdn.example.test/", http.StatusOK, 1, "https://cdn.example.test"},
		{"bad signature", textEvent, "bm9wZQ==", "", http.StatusBadRequest, 0, ""},
		{"missing signature", textEvent, "", "", http.StatusBadRequest, 0, ""},
		{"malformed body", "{not json", sign(testSecret, []byte("{not json")), "", http.StatusBadRequest, 0, ""},
		{"no events", `{"destination":"Ubot","events":[]}`, sign(testSecret, []byte(`{"destination":"Ubot","events":[]}`)), "", http.StatusOK, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []Event
			h := NewWebhookHandler(testSecret, tt.baseURL, func(_ context.Context, ev Event) error {
				got = append(got, ev)
				return nil
			}, zerolog.Nop())

			w := httptest.NewRecorder()
			h.HandleCallback(w, callbackRequest(tt.body, tt.signature))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if len(got) != tt.wantEvents {
				t.Fatalf("events = %d, want %d", len(got), tt.wantEvents)
			}
			if tt.wantEvents > 0 && got[0].BaseURL != tt.wantBase {
				t.Errorf("base url = %q, want %q", got[0].BaseURL, tt.wantBase)
			}
		})
	}
}

func TestHandleCallbackSurvivesHandlerError(t *testing.T) {
	h := NewWebhookHandler(testSecret, "", func(context.Context, Event) error {
		return errors.New("send failed")
	}, zerolog.Nop())

	w := httptest.NewRecorder()
	h.HandleCallback(w, callbackRequest(textEvent, sign(testSecret, []byte(textEvent))))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestHandleCallbackRejectsOversizedBody(t *testing.T) {
	called := false
	h := NewWebhookHandler(testSecret, "", func(context.Context, Event) error {
		called = true
		return nil
	}, zerolog.Nop())

	body := `{"destination":"Ubot","events":[],"pad":"` + strings.Repeat("x", maxCallbackBytes) + `"}`
	w := httptest.NewRecorder()
	h.HandleCallback(w, callbackRequest(body, sign(testSecret, []byte(body))))

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", w.Code)
	}
	if called {
		t.Error("handler called for an oversized body")
	}
}
