package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/chudorm/dormbot/internal/store"
)

type fakeStore struct {
	failures  []store.Failure
	err       error
	lastLimit int
}

func (f *fakeStore) RecordFailure(store.Failure) error { return nil }
func (f *fakeStore) Close() error                      { return nil }

func (f *fakeStore) ListFailures(limit int) ([]store.Failure, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit > 0 && limit < len(f.failures) {
		return f.failures[:limit], nil
	}
	return f.failures, nil
}

func TestRequireToken(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name   string
		token  string
		header string
		want   int
	}{
		{"valid", "s3cret", "Bearer s3cret", http.StatusNoContent},
		{"wrong token", "s3cret", "Bearer nope", http.StatusUnauthorized},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"basic scheme", "s3cret", "Basic s3cret", http.StatusUnauthorized},
		{"empty configured token", "", "Bearer ", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/deliveries/failed", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			RequireToken(tt.token)(ok).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandleFailedDeliveries(t *testing.T) {
	fs := &fakeStore{failures: []store.Failure{
		{Seq: 3, UserID: "U1", Trigger: "新生", Kind: "push"},
		{Seq: 2, UserID: "U2", Trigger: "Windows 10", Kind: "reply"},
	}}
	h := NewHandler(fs, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.HandleFailedDeliveries(rec, httptest.NewRequest(http.MethodGet, "/deliveries/failed?limit=1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	var got []store.Failure
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Seq != 3 || got[0].Trigger != "新生" {
		t.Errorf("got %+v", got)
	}
}

func TestHandleFailedDeliveriesLimits(t *testing.T) {
	tests := []struct {
		query     string
		wantCode  int
		wantLimit int
	}{
		{"", http.StatusOK, defaultLimit},
		{"?limit=10000", http.StatusOK, maxLimit},
		{"?limit=0", http.StatusBadRequest, 0},
		{"?limit=abc", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		fs := &fakeStore{}
		rec := httptest.NewRecorder()
		NewHandler(fs, zerolog.Nop()).HandleFailedDeliveries(rec, httptest.NewRequest(http.MethodGet, "/deliveries/failed"+tt.query, nil))
		if rec.Code != tt.wantCode || fs.lastLimit != tt.wantLimit {
			t.Errorf("%q: status %d limit %d, want %d %d", tt.query, rec.Code, fs.lastLimit, tt.wantCode, tt.wantLimit)
		}
	}
}

func TestHandleFailedDeliveriesEmptyAndError(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(&fakeStore{}, zerolog.Nop()).HandleFailedDeliveries(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("empty body = %q", body)
	}

	rec = httptest.NewRecorder()
	NewHandler(&fakeStore{err: errors.New("db closed")}, zerolog.Nop()).HandleFailedDeliveries(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
