package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/rs/zerolog"

	"github.com/chudorm/dormbot/internal/line"
	"github.com/chudorm/dormbot/internal/metrics"
	"github.com/chudorm/dormbot/internal/scenario"
	"github.com/chudorm/dormbot/internal/session"
	"github.com/chudorm/dormbot/internal/store"
)

// Messenger is the outbound side of the platform.
type Messenger interface {
	Reply(ctx context.Context, replyToken string, msgs []messaging_api.MessageInterface) error
	Push(ctx context.Context, userID string, msgs []messaging_api.MessageInterface) error
}

// DeliveryError is a failed push or reply call.
type DeliveryError struct {
	Kind    string // "push" or "reply"
	UserID  string
	Trigger string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s to %s for %q: %v", e.Kind, e.UserID, e.Trigger, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

type Handler struct {
	table    *scenario.Table
	out      Messenger
	failures store.Store
	sessions *session.Manager
	log      zerolog.Logger
}

func NewHandler(table *scenario.Table, out Messenger, failures store.Store, sessions *session.Manager, log zerolog.Logger) *Handler {
	return &Handler{
		table:    table,
		out:      out,
		failures: failures,
		sessions: sessions,
		log:      log.With().Str("component", "bot").Logger(),
	}
}

// HandleMessage answers one inbound text: pushes first, then exactly one
// reply. A failed push does not stop the reply; every failure is logged,
// counted, journaled and returned joined.
func (h *Handler) HandleMessage(ctx context.Context, ev line.Event) error {
	id := h.table.Resolve(ev.Text)
	if id == scenario.Fallback {
		metrics.Fallbacks.Inc()
	}

	resp, err := h.table.Render(id, ev.BaseURL)
	if err != nil {
		h.log.Error().Err(err).Str("user", ev.UserID).Msg("render failed")
		return fmt.Errorf("rendering %q: %w", id, err)
	}
	metrics.ScenariosRendered.WithLabelValues(resp.Trigger).Inc()

	h.log.Debug().
		Str("user", ev.UserID).
		Str("trigger", resp.Trigger).
		Bool("fallback", id == scenario.Fallback).
		Int("pushes", len(resp.Pushes)).
		Msg("dispatching scenario")

	return h.sessions.WithLock(ev.UserID, func() error {
		return h.dispatch(ctx, ev, resp)
	})
}

func (h *Handler) dispatch(ctx context.Context, ev line.Event, resp *scenario.Response) error {
	var errs []error

	if len(resp.Pushes) > 0 {
		if ev.UserID == "" {
			h.log.Warn().Str("trigger", resp.Trigger).Msg("no user id on event, skipping pushes")
		} else if err := h.out.Push(ctx, ev.UserID, resp.Pushes); err != nil {
			errs = append(errs, h.reportFailure(ev, resp.Trigger, "push", len(resp.Pushes), err))
		}
	}

	if err := h.out.Reply(ctx, ev.ReplyToken, []messaging_api.MessageInterface{resp.Reply}); err != nil {
		errs = append(errs, h.reportFailure(ev, resp.Trigger, "reply", 1, err))
	}

	return errors.Join(errs...)
}

func (h *Handler) reportFailure(ev line.Event, trigger, kind string, n int, err error) error {
	metrics.DeliveryFailures.WithLabelValues(kind).Inc()
	h.log.Error().Err(err).
		Str("user", ev.UserID).
		Str("trigger", trigger).
		Str("kind", kind).
		Msg("delivery failed")

	if h.failures != nil {
		rec := store.Failure{UserID: ev.UserID, Trigger: trigger, Kind: kind, Messages: n, Error: err.Error()}
		if jerr := h.failures.RecordFailure(rec); jerr != nil {
			h.log.Error().Err(jerr).Msg("journaling delivery failure")
		}
	}
	return &DeliveryError{Kind: kind, UserID: ev.UserID, Trigger: trigger, Err: err}
}
