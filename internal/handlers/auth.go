package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/middleware"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/models"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/service"
)

type signUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	DeviceID string `json:"device_id"`
}

type sessionResponse struct {
	AccessToken      string       `json:"access_token"`
	RefreshToken     string       `json:"refresh_token"`
	DeviceID         string       `json:"device_id"`
	User             userResponse `json:"user"`
	EmailConfirmedAt *time.Time   `json:"email_confirmed_at"`
}

type userResponse struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Status           string     `json:"status"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at"`
}

func (h HandlerSet) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bundle, err := h.authService.SignUp(c.Request.Context(), service.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		DeviceID: req.DeviceID,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sendSessionResponse(c, bundle)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	DeviceID string `json:"device_id"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bundle, err := h.authService.Login(c.Request.Context(), service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		DeviceID:  req.DeviceID,
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	sendSessionResponse(c, bundle)
}

type refreshRequest struct {
	UserID       string `json:"user_id" binding:"required"`
	DeviceID     string `json:"device_id" binding:"required"`
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h HandlerSet) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bundle, err := h.authService.Refresh(c.Request.Context(), service.RefreshInput{
		UserID:       req.UserID,
		DeviceID:     req.DeviceID,
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	sendSessionResponse(c, bundle)
}

type logoutRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	DeviceID string `json:"device_id" binding:"required"`
}

func (h HandlerSet) Logout(c *gin.Context) {
	var req logoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authService.Logout(c.Request.Context(), req.UserID, req.DeviceID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// SendMagicLink always answers ok, so the endpoint cannot be used to
// probe which addresses have accounts.
func (h HandlerSet) SendMagicLink(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authService.SendMagicLink(c.Request.Context(), req.Email); err != nil {
		h.log.Error().Err(err).Msg("send magic link failed")
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h HandlerSet) SendRecovery(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authService.SendRecovery(c.Request.Context(), req.Email); err != nil {
		h.log.Error().Err(err).Msg("send recovery failed")
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type exchangeCodeRequest struct {
	Code     string `json:"code" binding:"required"`
	DeviceID string `json:"device_id"`
}

func (h HandlerSet) ExchangeCode(c *gin.Context) {
	var req exchangeCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bundle, err := h.authService.ExchangeCode(c.Request.Context(), req.Code, req.DeviceID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCode) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	sendSessionResponse(c, bundle)
}

type verifyOTPRequest struct {
	Type      string `json:"type" binding:"required"`
	TokenHash string `json:"token_hash"`
	Token     string `json:"token"`
	Email     string `json:"email"`
	DeviceID  string `json:"device_id"`
}

func (h HandlerSet) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bundle, err := h.authService.VerifyOTP(c.Request.Context(), service.VerifyOTPInput{
		Type:      req.Type,
		TokenHash: req.TokenHash,
		Token:     req.Token,
		Email:     req.Email,
		DeviceID:  req.DeviceID,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidOTP) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	sendSessionResponse(c, bundle)
}

func (h HandlerSet) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

type updatePasswordRequest struct {
	Password string `json:"password" binding:"required,min=8"`
}

func (h HandlerSet) UpdatePassword(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authService.UpdatePassword(c.Request.Context(), service.UpdatePasswordInput{
		UserID:      user.ID,
		NewPassword: req.Password,
	}); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func sendSessionResponse(c *gin.Context, bundle service.SessionBundle) {
	c.JSON(http.StatusOK, sessionResponse{
		AccessToken:      bundle.AccessToken,
		RefreshToken:     bundle.RefreshToken,
		DeviceID:         bundle.DeviceID,
		User:             toUserResponse(bundle.User),
		EmailConfirmedAt: bundle.User.EmailConfirmedAt,
	})
}

func toUserResponse(user models.User) userResponse {
	return userResponse{
		ID:               user.ID,
		Email:            user.Email,
		Status:           string(user.Status),
		EmailConfirmedAt: user.EmailConfirmedAt,
	}
}

func currentUser(c *gin.Context) (models.User, bool) {
	userVal, exists := c.Get(middleware.ContextUser)
	if !exists {
		return models.User{}, false
	}
	user, ok := userVal.(models.User)
	return user, ok
}
