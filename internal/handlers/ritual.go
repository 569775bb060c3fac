package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/httpapi"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/middleware"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/models"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/service"
)

var dateKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// nightPayload is the exact body shape of POST /ritual/sessions.
// Pointer fields let validation distinguish "absent" from zero values.
type nightPayload struct {
	DateKey      *string `json:"date_key"`
	Mode         *string `json:"mode"`
	StressBefore *int    `json:"stress_before"`
	StressAfter  *int    `json:"stress_after"`
}

// validateNightPayload enforces the strict schema: exactly the four
// expected keys, date_key in YYYY-MM-DD shape, a known mode, and both
// stress values as integers in [1,5]. Any deviation rejects the whole
// payload with the returned code; nothing is coerced. Callers get
// CodeInvalidJSON only for bodies that are not JSON at all.
func validateNightPayload(data []byte) (nightPayload, string, string) {
	if !json.Valid(data) {
		return nightPayload{}, httpapi.CodeInvalidJSON, "malformed json"
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var payload nightPayload
	if err := dec.Decode(&payload); err != nil {
		return nightPayload{}, httpapi.CodeInvalidPayload, "unexpected or mistyped field"
	}
	// Trailing content after the object is also a schema violation.
	if dec.More() {
		return nightPayload{}, httpapi.CodeInvalidPayload, "unexpected trailing content"
	}

	if payload.DateKey == nil || payload.Mode == nil || payload.StressBefore == nil || payload.StressAfter == nil {
		return nightPayload{}, httpapi.CodeInvalidPayload, "missing required field"
	}
	if !dateKeyPattern.MatchString(*payload.DateKey) {
		return nightPayload{}, httpapi.CodeInvalidPayload, "date_key must be YYYY-MM-DD"
	}
	if !models.RitualMode(*payload.Mode).Valid() {
		return nightPayload{}, httpapi.CodeInvalidPayload, "unknown mode"
	}
	if *payload.StressBefore < 1 || *payload.StressBefore > 5 {
		return nightPayload{}, httpapi.CodeInvalidPayload, "stress_before out of range"
	}
	if *payload.StressAfter < 1 || *payload.StressAfter > 5 {
		return nightPayload{}, httpapi.CodeInvalidPayload, "stress_after out of range"
	}

	return payload, "", ""
}

// RecordNightSession is the write path for completed rituals. The
// admission order is fixed: bearer presence, body shape, schema, token
// authentication, rate limit, upsert. A request with a stale token and
// a broken body learns about the body first, so the route runs its own
// checks instead of sitting behind the auth middleware.
func (h HandlerSet) RecordNightSession(c *gin.Context) {
	if _, ok := middleware.BearerToken(c); !ok {
		httpapi.Error(c, http.StatusUnauthorized, httpapi.CodeMissingAuthorization, "missing bearer token")
		return
	}

	if h.cfg.Security.JWTAccessSecret == "" {
		httpapi.Error(c, http.StatusInternalServerError, httpapi.CodeServerMisconfiguration, "server misconfigured")
		return
	}

	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		httpapi.Error(c, http.StatusBadRequest, httpapi.CodeInvalidJSON, "unreadable body")
		return
	}

	payload, code, reason := validateNightPayload(data)
	if code != "" {
		httpapi.Error(c, http.StatusBadRequest, code, reason)
		return
	}

	user, _, err := middleware.Authenticate(c, h.cfg, h.users, h.sessions)
	if err != nil {
		httpapi.Error(c, http.StatusUnauthorized, httpapi.CodeInvalidSession, err.Error())
		return
	}

	err = h.ritualService.RecordNight(c.Request.Context(), models.NightSession{
		UserID:       user.ID,
		DateKey:      *payload.DateKey,
		Mode:         models.RitualMode(*payload.Mode),
		StressBefore: *payload.StressBefore,
		StressAfter:  *payload.StressAfter,
		CompletedAt:  time.Now(),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRateLimited):
			httpapi.Error(c, http.StatusTooManyRequests, httpapi.CodeRateLimited, "too many requests")
		case errors.Is(err, service.ErrRateLimitUnavailable):
			httpapi.Error(c, http.StatusInternalServerError, httpapi.CodeRateLimitFailed, "rate limit check failed")
		default:
			httpapi.Error(c, http.StatusInternalServerError, httpapi.CodeUpsertFailed, "could not record session")
		}
		return
	}

	httpapi.OK(c, http.StatusOK, nil)
}

type nightSessionResponse struct {
	DateKey      string    `json:"date_key"`
	Mode         string    `json:"mode"`
	StressBefore int       `json:"stress_before"`
	StressAfter  int       `json:"stress_after"`
	CompletedAt  time.Time `json:"completed_at"`
}

func (h HandlerSet) ListNightSessions(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		httpapi.Error(c, http.StatusUnauthorized, httpapi.CodeInvalidSession, "unauthorized")
		return
	}

	from := c.Query("from")
	to := c.Query("to")
	if (from != "" && !dateKeyPattern.MatchString(from)) || (to != "" && !dateKeyPattern.MatchString(to)) {
		httpapi.Error(c, http.StatusBadRequest, httpapi.CodeInvalidPayload, "bounds must be YYYY-MM-DD")
		return
	}

	sessions, err := h.ritualService.History(c.Request.Context(), user.ID, from, to)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", user.ID).Msg("list night sessions failed")
		httpapi.Error(c, http.StatusInternalServerError, httpapi.CodeUpsertFailed, "could not load history")
		return
	}

	resp := make([]nightSessionResponse, 0, len(sessions))
	for _, session := range sessions {
		resp = append(resp, nightSessionResponse{
			DateKey:      session.DateKey,
			Mode:         string(session.Mode),
			StressBefore: session.StressBefore,
			StressAfter:  session.StressAfter,
			CompletedAt:  session.CompletedAt,
		})
	}

	httpapi.OK(c, http.StatusOK, gin.H{"sessions": resp})
}

// NightStreak reports the server-side view of the streak. Devices keep
// their own count; this is for support and analytics.
func (h HandlerSet) NightStreak(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		httpapi.Error(c, http.StatusUnauthorized, httpapi.CodeInvalidSession, "unauthorized")
		return
	}

	streak, err := h.ritualService.CurrentStreak(c.Request.Context(), user.ID, time.Now())
	if err != nil {
		h.log.Error().Err(err).Str("user_id", user.ID).Msg("streak lookup failed")
		httpapi.Error(c, http.StatusInternalServerError, httpapi.CodeUpsertFailed, "could not compute streak")
		return
	}

	httpapi.OK(c, http.StatusOK, gin.H{"streak": streak})
}
