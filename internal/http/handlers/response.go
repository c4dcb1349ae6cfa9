package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/valkhart/grimoire-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, gin.H{
		"success":   false,
		"error":     APIError{Message: msg, Code: code},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// RespondFromError maps a service error onto a response, honoring an embedded
// apierr.Error when one is present.
func RespondFromError(c *gin.Context, err error) {
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		ae = apierr.Internal(err)
	}
	RespondError(c, ae.Status, ae.Code, ae.Err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      payload,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
