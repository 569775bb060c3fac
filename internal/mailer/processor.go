package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/config"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/queue"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/repository"
)

// Processor consumes queued tasks: auth emails and nightly cleanup.
type Processor struct {
	sender   Sender
	sessions *repository.SessionRepository
	cfg      config.MailConfig
	logger   zerolog.Logger
}

type taskPayload struct {
	Type      string `json:"type"`
	Email     string `json:"email"`
	Code      string `json:"code"`
	Token     string `json:"token"`
	TokenHash string `json:"token_hash"`
	OTPType   string `json:"otp_type"`
}

func NewProcessor(sender Sender, sessions *repository.SessionRepository, cfg config.MailConfig, logger zerolog.Logger) *Processor {
	return &Processor{
		sender:   sender,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	var payload taskPayload
	if err := decodePayload(msg.Values, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	switch payload.Type {
	case queue.TaskEmailConfirm:
		link := CallbackLink(p.cfg.LinkScheme, payload.Code)
		return p.sender.Send(ctx, payload.Email, "Confirm your email",
			"Welcome to Nocturne. Confirm your email: "+link)
	case queue.TaskEmailMagicLink:
		link := CallbackLink(p.cfg.LinkScheme, payload.Code)
		return p.sender.Send(ctx, payload.Email, "Your sign-in link",
			"Tap to sign in: "+link)
	case queue.TaskEmailRecovery:
		link := ResetLink(p.cfg.LinkScheme, payload.TokenHash)
		return p.sender.Send(ctx, payload.Email, "Reset your password",
			"Tap to reset your password: "+link)
	case queue.TaskCleanup:
		return p.handleCleanup(ctx)
	default:
		p.logger.Warn().Str("type", payload.Type).Msg("unknown task type")
		return nil
	}
}

func (p *Processor) handleCleanup(ctx context.Context) error {
	deleted, err := p.sessions.DeleteExpired(ctx)
	if err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}
	p.logger.Info().Int64("deleted", deleted).Msg("expired sessions removed")
	return nil
}

func decodePayload(values map[string]interface{}, out *taskPayload) error {
	bytes, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, out)
}

// CallbackLink renders the app link for code-exchange sign-in:
// <scheme>://auth/callback?code=<code>.
func CallbackLink(scheme, code string) string {
	return fmt.Sprintf("%s://auth/callback?code=%s", scheme, url.QueryEscape(code))
}

// ResetLink renders the password-recovery link, which carries the OTP
// hash and the recovery type so clients route it to the reset screen:
// <scheme>://auth/reset?type=recovery&token_hash=<hash>.
func ResetLink(scheme, tokenHash string) string {
	return fmt.Sprintf("%s://auth/reset?type=recovery&token_hash=%s", scheme, url.QueryEscape(tokenHash))
}
