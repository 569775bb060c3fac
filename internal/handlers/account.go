package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DeleteAccount removes the calling user's account. The mobile client
// sends the JWT in the X-Auth-Token header, which the auth middleware
// accepts alongside the standard bearer form.
func (h HandlerSet) DeleteAccount(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.authService.DeleteAccount(c.Request.Context(), user.ID); err != nil {
		h.log.Error().Err(err).Str("user_id", user.ID).Msg("account deletion failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete account"})
		return
	}

	h.log.Info().Str("user_id", user.ID).Msg("account deleted")
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
