package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/config"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/ids"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/models"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/queue"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/repository"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidCode        = errors.New("invalid or expired code")
	ErrInvalidOTP         = errors.New("invalid or expired token")
	ErrEmailTaken         = errors.New("email already registered")
)

// OTP types accepted by VerifyOTP. They mirror the `type` parameter
// carried in emailed deep links.
const (
	OTPTypeSignup    = "signup"
	OTPTypeMagicLink = "magiclink"
	OTPTypeRecovery  = "recovery"
)

type AuthService struct {
	users    *repository.UserRepository
	sessions *repository.SessionRepository
	cache    *redis.Client
	producer *queue.Producer
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewAuthService(
	users *repository.UserRepository,
	sessions *repository.SessionRepository,
	cache *redis.Client,
	producer *queue.Producer,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		cache:    cache,
		producer: producer,
		cfg:      cfg,
		log:      log,
	}
}

// SessionBundle is what every successful sign-in path returns: the
// credential pair plus the identity it belongs to.
type SessionBundle struct {
	AccessToken      string
	RefreshToken     string
	User             models.User
	DeviceID         string
	EmailConfirmedAt *time.Time
}

type SignUpInput struct {
	Email    string
	Password string
	DeviceID string
}

func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (SessionBundle, error) {
	input.Email = normalizeEmail(input.Email)
	if input.Email == "" || input.Password == "" {
		return SessionBundle{}, fmt.Errorf("email and password required")
	}

	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return SessionBundle{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return SessionBundle{}, err
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return SessionBundle{}, err
	}

	user := models.User{
		ID:           ids.New(),
		Email:        input.Email,
		PasswordHash: passwordHash,
		Status:       models.UserStatusPending,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return SessionBundle{}, err
	}

	if err := s.issueEmailToken(ctx, user, OTPTypeSignup, queue.TaskEmailConfirm); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("issue confirmation email failed")
	}

	deviceID := input.DeviceID
	if deviceID == "" {
		deviceID = ids.New()
	}
	return s.createSession(ctx, user, deviceID, "", "")
}

type LoginInput struct {
	Email     string
	Password  string
	DeviceID  string
	IPAddress string
	UserAgent string
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (SessionBundle, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return SessionBundle{}, ErrInvalidCredentials
		}
		return SessionBundle{}, err
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return SessionBundle{}, ErrInvalidCredentials
	}

	deviceID := input.DeviceID
	if deviceID == "" {
		deviceID = ids.New()
	}
	return s.createSession(ctx, user, deviceID, input.IPAddress, input.UserAgent)
}

// SendMagicLink emails a one-time sign-in link. The response to the
// caller is identical whether or not the address has an account.
func (s *AuthService) SendMagicLink(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}
	return s.issueEmailToken(ctx, user, OTPTypeMagicLink, queue.TaskEmailMagicLink)
}

// SendRecovery emails a password-recovery link (type=recovery, which
// clients must route to the reset screen).
func (s *AuthService) SendRecovery(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}
	return s.issueEmailToken(ctx, user, OTPTypeRecovery, queue.TaskEmailRecovery)
}

// issueEmailToken mints both credentials an emailed link can carry: a
// single-use authorization code (for the ?code= exchange flow) and a
// single-use OTP token (for the token_hash verify flow). The worker
// renders the actual deep link.
func (s *AuthService) issueEmailToken(ctx context.Context, user models.User, otpType string, taskType string) error {
	code, _, err := security.GenerateOpaqueToken(32)
	if err != nil {
		return err
	}
	otp, _, err := security.GenerateOpaqueToken(32)
	if err != nil {
		return err
	}

	if err := s.cache.Set(ctx, authCodeKey(code), user.ID, s.cfg.Security.AuthCodeTTL).Err(); err != nil {
		return fmt.Errorf("store auth code: %w", err)
	}
	if err := s.cache.Set(ctx, otpKey(otpType, security.HashTokenHex(otp)), user.ID, s.cfg.Security.OTPTTL).Err(); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	return s.producer.Enqueue(ctx, taskType, map[string]any{
		"email":      user.Email,
		"code":       code,
		"token":      otp,
		"token_hash": security.HashTokenHex(otp),
		"otp_type":   otpType,
	})
}

// ExchangeCode is the PKCE-style flow: a one-time authorization code
// from a deep link is traded for a session. GETDEL makes reuse of a
// code impossible even across concurrent exchanges.
func (s *AuthService) ExchangeCode(ctx context.Context, code string, deviceID string) (SessionBundle, error) {
	if code == "" {
		return SessionBundle{}, ErrInvalidCode
	}

	userID, err := s.cache.GetDel(ctx, authCodeKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return SessionBundle{}, ErrInvalidCode
		}
		return SessionBundle{}, fmt.Errorf("lookup auth code: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return SessionBundle{}, ErrInvalidCode
	}

	// Arriving via an emailed link proves control of the mailbox.
	if err := s.users.ConfirmEmail(ctx, user.ID); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("confirm email failed")
	} else {
		user, _ = s.users.GetByID(ctx, user.ID)
	}

	if deviceID == "" {
		deviceID = ids.New()
	}
	return s.createSession(ctx, user, deviceID, "", "")
}

type VerifyOTPInput struct {
	Type      string
	TokenHash string
	Token     string
	Email     string
	DeviceID  string
}

// VerifyOTP establishes a session from an emailed one-time token,
// given either the token's hash or the raw token plus the email it was
// sent to.
func (s *AuthService) VerifyOTP(ctx context.Context, input VerifyOTPInput) (SessionBundle, error) {
	if input.Type == "" {
		return SessionBundle{}, ErrInvalidOTP
	}

	hashHex := input.TokenHash
	if hashHex == "" {
		if input.Token == "" || input.Email == "" {
			return SessionBundle{}, ErrInvalidOTP
		}
		hashHex = security.HashTokenHex(input.Token)
	}

	userID, err := s.cache.GetDel(ctx, otpKey(input.Type, hashHex)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return SessionBundle{}, ErrInvalidOTP
		}
		return SessionBundle{}, fmt.Errorf("lookup otp: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return SessionBundle{}, ErrInvalidOTP
	}

	if input.TokenHash == "" && normalizeEmail(input.Email) != user.Email {
		return SessionBundle{}, ErrInvalidOTP
	}

	if input.Type == OTPTypeSignup || input.Type == OTPTypeMagicLink {
		if err := s.users.ConfirmEmail(ctx, user.ID); err != nil {
			s.log.Warn().Err(err).Str("user_id", user.ID).Msg("confirm email failed")
		} else {
			user, _ = s.users.GetByID(ctx, user.ID)
		}
	}

	deviceID := input.DeviceID
	if deviceID == "" {
		deviceID = ids.New()
	}
	return s.createSession(ctx, user, deviceID, "", "")
}

type RefreshInput struct {
	UserID       string
	DeviceID     string
	RefreshToken string
}

func (s *AuthService) Refresh(ctx context.Context, input RefreshInput) (SessionBundle, error) {
	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		return SessionBundle{}, ErrInvalidCredentials
	}

	refreshHash := security.HashToken(input.RefreshToken)
	session, err := s.sessions.FindByRefreshHash(ctx, input.UserID, refreshHash)
	if err != nil {
		return SessionBundle{}, ErrInvalidCredentials
	}

	if session.DeviceID != input.DeviceID {
		return SessionBundle{}, ErrInvalidCredentials
	}

	if session.ExpiresAt.Before(time.Now()) {
		_ = s.sessions.DeleteByID(ctx, session.ID)
		return SessionBundle{}, ErrInvalidCredentials
	}

	return s.createSession(ctx, user, session.DeviceID, session.IPAddress, session.UserAgent)
}

func (s *AuthService) Logout(ctx context.Context, userID string, deviceID string) error {
	return s.sessions.DeleteByDevice(ctx, userID, deviceID)
}

type UpdatePasswordInput struct {
	UserID      string
	NewPassword string
}

// UpdatePassword finishes the recovery flow after a type=recovery link
// established a session.
func (s *AuthService) UpdatePassword(ctx context.Context, input UpdatePasswordInput) error {
	if len(input.NewPassword) < 8 {
		return fmt.Errorf("password too short")
	}
	hash, err := security.HashPassword(input.NewPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, input.UserID, hash)
}

func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	return s.users.Delete(ctx, userID)
}

func (s *AuthService) createSession(ctx context.Context, user models.User, deviceID, ipAddress, userAgent string) (SessionBundle, error) {
	refreshToken, refreshHash, err := security.GenerateOpaqueToken(64)
	if err != nil {
		return SessionBundle{}, err
	}

	session := models.Session{
		ID:               ids.New(),
		UserID:           user.ID,
		DeviceID:         deviceID,
		RefreshTokenHash: refreshHash,
		IPAddress:        ipAddress,
		UserAgent:        userAgent,
		ExpiresAt:        time.Now().Add(s.cfg.Security.RefreshTTL),
	}

	accessToken, err := security.GenerateAccessToken(
		s.cfg.Security.JWTAccessSecret,
		user.ID,
		session.ID,
		deviceID,
		s.cfg.Security.JWTAccessTTL,
	)
	if err != nil {
		return SessionBundle{}, err
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return SessionBundle{}, err
	}

	if err := s.enforceSessionLimit(ctx, user.ID); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("enforce session limit failed")
	}

	return SessionBundle{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		User:             user,
		DeviceID:         deviceID,
		EmailConfirmedAt: user.EmailConfirmedAt,
	}, nil
}

func (s *AuthService) enforceSessionLimit(ctx context.Context, userID string) error {
	count, err := s.sessions.CountByUser(ctx, userID)
	if err != nil {
		return err
	}
	if count <= s.cfg.Security.MaxSessions {
		return nil
	}
	return s.sessions.DeleteOldestSessions(ctx, userID, s.cfg.Security.MaxSessions)
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func authCodeKey(code string) string {
	return "authcode:" + security.HashTokenHex(code)
}

func otpKey(otpType, hashHex string) string {
	return "otp:" + otpType + ":" + hashHex
}
