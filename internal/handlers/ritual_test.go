package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/config"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/httpapi"
)

func TestValidateNightPayloadAccepts(t *testing.T) {
	body := []byte(`{"date_key":"2024-05-02","mode":"calm_mind","stress_before":4,"stress_after":2}`)

	payload, code, reason := validateNightPayload(body)
	if code != "" {
		t.Fatalf("rejected valid payload: %s (%s)", code, reason)
	}
	if *payload.DateKey != "2024-05-02" {
		t.Errorf("date_key = %q", *payload.DateKey)
	}
	if *payload.Mode != "calm_mind" {
		t.Errorf("mode = %q", *payload.Mode)
	}
	if *payload.StressBefore != 4 || *payload.StressAfter != 2 {
		t.Errorf("stress = %d/%d", *payload.StressBefore, *payload.StressAfter)
	}
}

func TestValidateNightPayloadRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"not json", `{`, httpapi.CodeInvalidJSON},
		{"empty body", ``, httpapi.CodeInvalidJSON},
		{"extra key", `{"date_key":"2024-05-02","mode":"calm_mind","stress_before":4,"stress_after":2,"extra":1}`, httpapi.CodeInvalidPayload},
		{"missing key", `{"date_key":"2024-05-02","mode":"calm_mind","stress_before":4}`, httpapi.CodeInvalidPayload},
		{"bad date shape", `{"date_key":"2024-5-2","mode":"calm_mind","stress_before":4,"stress_after":2}`, httpapi.CodeInvalidPayload},
		{"unknown mode", `{"date_key":"2024-05-02","mode":"other","stress_before":4,"stress_after":2}`, httpapi.CodeInvalidPayload},
		{"stress too high", `{"date_key":"2024-05-02","mode":"calm_mind","stress_before":6,"stress_after":2}`, httpapi.CodeInvalidPayload},
		{"stress too low", `{"date_key":"2024-05-02","mode":"calm_mind","stress_before":4,"stress_after":0}`, httpapi.CodeInvalidPayload},
		{"non-integer stress", `{"date_key":"2024-05-02","mode":"calm_mind","stress_before":4.5,"stress_after":2}`, httpapi.CodeInvalidPayload},
		{"string stress", `{"date_key":"2024-05-02","mode":"calm_mind","stress_before":"4","stress_after":2}`, httpapi.CodeInvalidPayload},
		{"trailing content", `{"date_key":"2024-05-02","mode":"calm_mind","stress_before":4,"stress_after":2}[]`, httpapi.CodeInvalidJSON},
		{"array body", `[1,2,3]`, httpapi.CodeInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, code, _ := validateNightPayload([]byte(tt.body))
			if code != tt.code {
				t.Errorf("code = %q, want %q", code, tt.code)
			}
		})
	}
}

func recordNight(t *testing.T, h HandlerSet, bearer, body string) (int, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/ritual/sessions", strings.NewReader(body))
	if bearer != "" {
		c.Request.Header.Set("Authorization", "Bearer "+bearer)
	}

	h.RecordNightSession(c)

	var resp struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return w.Code, resp.Code
}

// A stale or garbage token must not mask body problems: the body is
// parsed and validated before the token is authenticated.
func TestRecordNightSessionAdmissionOrder(t *testing.T) {
	h := HandlerSet{cfg: &config.AppConfig{}}
	h.cfg.Security.JWTAccessSecret = "test-secret"

	validBody := `{"date_key":"2024-05-02","mode":"calm_mind","stress_before":4,"stress_after":2}`

	tests := []struct {
		name       string
		bearer     string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"no credentials at all", "", validBody, http.StatusUnauthorized, httpapi.CodeMissingAuthorization},
		{"bad token, malformed body", "garbage", `{`, http.StatusBadRequest, httpapi.CodeInvalidJSON},
		{"bad token, schema violation", "garbage", `{"date_key":"2024-05-02"}`, http.StatusBadRequest, httpapi.CodeInvalidPayload},
		{"bad token, valid body", "garbage", validBody, http.StatusUnauthorized, httpapi.CodeInvalidSession},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := recordNight(t, h, tt.bearer, tt.body)
			if status != tt.wantStatus || code != tt.wantCode {
				t.Errorf("got %d/%s, want %d/%s", status, code, tt.wantStatus, tt.wantCode)
			}
		})
	}
}

func TestRecordNightSessionMisconfigured(t *testing.T) {
	h := HandlerSet{cfg: &config.AppConfig{}}

	status, code := recordNight(t, h, "garbage", `{}`)
	if status != http.StatusInternalServerError || code != httpapi.CodeServerMisconfiguration {
		t.Errorf("got %d/%s, want %d/%s", status, code,
			http.StatusInternalServerError, httpapi.CodeServerMisconfiguration)
	}
}
