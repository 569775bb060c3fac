// Package httpapi defines the wire envelope shared by handlers and
// middleware: success is {"ok":true}, failure is {"ok":false,"error":...,
// "code":...} with a machine-readable code.
package httpapi

import "github.com/gin-gonic/gin"

const (
	CodeMethodNotAllowed       = "METHOD_NOT_ALLOWED"
	CodeMissingAuthorization   = "MISSING_AUTHORIZATION"
	CodeInvalidSession         = "INVALID_SESSION"
	CodeInvalidJSON            = "INVALID_JSON"
	CodeInvalidPayload         = "INVALID_PAYLOAD"
	CodeRateLimited            = "RATE_LIMITED"
	CodeServerMisconfiguration = "SERVER_MISCONFIGURATION"
	CodeRateLimitFailed        = "RATE_LIMIT_FAILED"
	CodeUpsertFailed           = "UPSERT_FAILED"
)

func OK(c *gin.Context, status int, extra gin.H) {
	body := gin.H{"ok": true}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

func Error(c *gin.Context, status int, code string, message string) {
	c.JSON(status, gin.H{
		"ok":    false,
		"error": message,
		"code":  code,
	})
}

// AbortError is Error for middleware, stopping the handler chain.
func AbortError(c *gin.Context, status int, code string, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"ok":    false,
		"error": message,
		"code":  code,
	})
}
