package respond

import (
	"strings"

	"github.com/gin-gonic/gin"

	"socioscan-backend/internal/shared/apperr"
	"socioscan-backend/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	if cause := c.GetString("errorCause"); cause != "" {
		fields["cause"] = cause
	}
	telemetry.Error("http.error", fields)

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// AppError maps an apperr kind to its status code and writes the envelope.
func AppError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	message := apperr.MessageOf(err)
	if kind == apperr.KindInternal {
		message = "Unexpected server error"
	}
	if cause := err.Error(); cause != "" {
		c.Set("errorCause", cause)
	}
	Error(c, apperr.HTTPStatus(err), strings.ToLower(string(kind)), message, nil)
}
