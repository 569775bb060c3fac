package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) AccessToken(ctx context.Context) (string, error) {
	return s.token, s.err
}

func TestRecordSuccess(t *testing.T) {
	var gotAuth string
	var gotBody Entry

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	r := New(srv.URL, staticTokens{token: "tok"}, zerolog.Nop())
	ok := r.Record(context.Background(), Entry{
		DateKey:      "2024-05-02",
		Mode:         "calm_mind",
		StressBefore: 4,
		StressAfter:  2,
	})
	if !ok {
		t.Fatal("expected success")
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotBody.DateKey != "2024-05-02" || gotBody.StressAfter != 2 {
		t.Errorf("body = %+v", gotBody)
	}
}

func TestRecordFailureModes(t *testing.T) {
	rejecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"ok":false,"error":"too many requests","code":"RATE_LIMITED"}`))
	}))
	defer rejecting.Close()

	entry := Entry{DateKey: "2024-05-02", Mode: "calm_mind", StressBefore: 4, StressAfter: 2}

	tests := []struct {
		name     string
		recorder *Recorder
	}{
		{"no token", New(rejecting.URL, staticTokens{}, zerolog.Nop())},
		{"token source error", New(rejecting.URL, staticTokens{err: errors.New("locked")}, zerolog.Nop())},
		{"server rejects", New(rejecting.URL, staticTokens{token: "tok"}, zerolog.Nop())},
		{"unreachable server", New("http://127.0.0.1:1", staticTokens{token: "tok"}, zerolog.Nop())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.recorder.Record(context.Background(), entry) {
				t.Error("expected false")
			}
		})
	}
}
