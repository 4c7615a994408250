package httpapi

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"classattend/internal/apperr"
)

// statusFor maps the error taxonomy to HTTP. Decode errors surface as 404 so
// a stale QR reads as "invalid or expired", not as a malformed request.
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound, apperr.KindDecode:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// abortError writes the error response. Internal causes are logged
// server-side and never exposed to the client.
func abortError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": apperr.ClientMessage(err)})
}
