// Package recorder ships completed ritual sessions to the backend on a
// best-effort basis. Recording is telemetry, not a user-critical
// transaction: every failure mode is swallowed and the caller simply
// learns whether the write happened.
package recorder

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const recordPath = "/api/v1/ritual/sessions"

// TokenSource yields the current access token, if any.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Entry is one completed ritual.
type Entry struct {
	DateKey      string `json:"date_key"`
	Mode         string `json:"mode"`
	StressBefore int    `json:"stress_before"`
	StressAfter  int    `json:"stress_after"`
}

type Recorder struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	log        zerolog.Logger
}

func New(baseURL string, tokens TokenSource, log zerolog.Logger) *Recorder {
	return &Recorder{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		tokens:     tokens,
		log:        log,
	}
}

// Record posts the entry and reports whether the server accepted it.
// No token, a network error, a rate-limit rejection: all of them just
// return false. The caller proceeds with local-only state either way.
func (r *Recorder) Record(ctx context.Context, entry Entry) bool {
	token, err := r.tokens.AccessToken(ctx)
	if err != nil || token == "" {
		r.log.Debug().Err(err).Msg("no access token, skipping upload")
		return false
	}

	body, err := json.Marshal(entry)
	if err != nil {
		r.log.Debug().Err(err).Msg("marshal entry failed")
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+recordPath, bytes.NewReader(body))
	if err != nil {
		r.log.Debug().Err(err).Msg("build request failed")
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.log.Debug().Err(err).Msg("upload failed")
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		r.log.Debug().Int("status", resp.StatusCode).Msg("upload rejected")
		return false
	}
	return true
}
