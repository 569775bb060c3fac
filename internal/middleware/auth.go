package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/config"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/httpapi"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/models"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/repository"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/security"
)

// Context keys set by Auth for downstream handlers.
const (
	ContextUser   = "current_user"
	ContextClaims = "access_claims"
)

// ErrNoCredentials means the request carried no bearer token at all.
// Any other Authenticate error means the credential was rejected; the
// two are distinct failures on the wire, since clients treat the first
// as "sign in" and the second as "session expired".
var ErrNoCredentials = errors.New("missing bearer token")

// Authenticate resolves the request's bearer token to a live session
// and its user. It writes nothing to the response, so handlers that
// need a different admission order can call it directly.
func Authenticate(c *gin.Context, cfg *config.AppConfig, users *repository.UserRepository, sessions *repository.SessionRepository) (models.User, *security.AccessClaims, error) {
	tokenStr, ok := BearerToken(c)
	if !ok {
		return models.User{}, nil, ErrNoCredentials
	}

	claims, err := security.ParseAccessToken(tokenStr, cfg.Security.JWTAccessSecret)
	if err != nil {
		return models.User{}, nil, errors.New("invalid access token")
	}

	session, err := sessions.GetByID(c.Request.Context(), claims.SessionID)
	if err != nil {
		return models.User{}, nil, errors.New("session not found")
	}

	if session.UserID != claims.UserID || session.DeviceID != claims.DeviceID {
		return models.User{}, nil, errors.New("session mismatch")
	}

	user, err := users.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		return models.User{}, nil, errors.New("user not found")
	}

	_ = sessions.Touch(c.Request.Context(), session.ID, c.ClientIP(), c.GetHeader("User-Agent"))

	return user, claims, nil
}

// Auth requires a bearer access token backed by a live session row.
func Auth(cfg *config.AppConfig, users *repository.UserRepository, sessions *repository.SessionRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, claims, err := Authenticate(c, cfg, users, sessions)
		if err != nil {
			if errors.Is(err, ErrNoCredentials) {
				httpapi.AbortError(c, http.StatusUnauthorized, httpapi.CodeMissingAuthorization, err.Error())
				return
			}
			httpapi.AbortError(c, http.StatusUnauthorized, httpapi.CodeInvalidSession, err.Error())
			return
		}

		c.Set(ContextClaims, *claims)
		c.Set(ContextUser, user)

		c.Next()
	}
}

// BearerToken also accepts the X-Auth-Token header, the shape the
// account-deletion client uses.
func BearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token != "" {
			return token, true
		}
	}
	if token := c.GetHeader("X-Auth-Token"); token != "" {
		return token, true
	}
	return "", false
}
