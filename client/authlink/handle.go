package authlink

import (
	"context"
	"time"
)

// Session is the backend-issued credential bundle. The SDK never
// constructs one itself; it only receives them from the auth client.
type Session struct {
	AccessToken      string
	RefreshToken     string
	UserID           string
	Email            string
	EmailConfirmedAt *time.Time
}

// VerifyParams carries whichever OTP credentials the link supplied.
type VerifyParams struct {
	Type      string
	TokenHash string
	Token     string
	Email     string
}

// AuthClient is the backend surface the handler drives. Each call
// either yields an established session or an error; the handler never
// retries.
type AuthClient interface {
	ExchangeCode(ctx context.Context, code string) (Session, error)
	SetSession(ctx context.Context, accessToken, refreshToken string) (Session, error)
	VerifyOTP(ctx context.Context, params VerifyParams) (Session, error)
}

// Result is the outcome of handling one incoming URL. Handled is false
// for anything that is not a complete auth link; when Handled is true,
// OK distinguishes an established session from a backend failure.
type Result struct {
	Handled bool
	OK      bool
	Path    string
	Session Session
	Err     string
}

type Handler struct {
	client AuthClient
}

func NewHandler(client AuthClient) *Handler {
	return &Handler{client: client}
}

// Handle parses the URL and runs exactly one protocol against the
// backend. Backend failures become ok-false results; they are never
// propagated as errors and nothing here panics.
func (h *Handler) Handle(ctx context.Context, raw string) Result {
	link, ok := Parse(raw)
	if !ok {
		return Result{}
	}

	intent, ok := link.Intent()
	if !ok {
		// A recognized path with no usable parameters is silently
		// ignored, not reported as an error.
		return Result{}
	}

	path := link.Path

	switch in := intent.(type) {
	case CodeExchange:
		session, err := h.client.ExchangeCode(ctx, in.Code)
		return h.result(path, session, err)

	case TokenPair:
		if in.Recovery {
			path = PathReset
		}
		session, err := h.client.SetSession(ctx, in.AccessToken, in.RefreshToken)
		return h.result(path, session, err)

	case OTPVerify:
		if in.Type == typeRecovery {
			path = PathReset
		}
		session, err := h.client.VerifyOTP(ctx, VerifyParams{
			Type:      in.Type,
			TokenHash: in.TokenHash,
			Token:     in.Token,
			Email:     in.Email,
		})
		return h.result(path, session, err)
	}

	return Result{}
}

func (h *Handler) result(path string, session Session, err error) Result {
	if err != nil {
		return Result{Handled: true, OK: false, Path: path, Err: err.Error()}
	}
	return Result{Handled: true, OK: true, Path: path, Session: session}
}
