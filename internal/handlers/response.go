package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docparity/docparity-backend/internal/apperr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError maps any error onto the stable code taxonomy. Unknown errors
// surface as internal without leaking detail beyond the message.
func RespondError(c *gin.Context, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(apperr.StatusOf(err), ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    apperr.CodeOf(err),
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondAccepted(c *gin.Context, payload any) {
	c.JSON(http.StatusAccepted, payload)
}
