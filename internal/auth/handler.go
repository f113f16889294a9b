package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/chudorm/dormbot/internal/store"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// RequireToken rejects requests whose Authorization header is not
// "Bearer <token>".
func RequireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="dormbot"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Handler serves the operator view of the failure journal.
type Handler struct {
	store store.Store
	log   zerolog.Logger
}

func NewHandler(s store.Store, log zerolog.Logger) *Handler {
	return &Handler{store: s, log: log.With().Str("component", "admin").Logger()}
}

// HandleFailedDeliveries writes the newest journaled failures as JSON.
// ?limit=N bounds the list (default 50, at most 500).
func (h *Handler) HandleFailedDeliveries(w http.ResponseWriter, r *http.Request) {
	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxLimit)
	}

	failures, err := h.store.ListFailures(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("listing delivery failures")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if failures == nil {
		failures = []store.Failure{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(failures); err != nil {
		h.log.Warn().Err(err).Msg("writing delivery failures")
	}
}
