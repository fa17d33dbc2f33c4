package utils

import (
	"github.com/gin-gonic/gin"
)

type ErrorBody struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse writes {error, details?} with the given status.
func ErrorResponse(c *gin.Context, code int, message string, details interface{}) {
	c.JSON(code, ErrorBody{
		Error:   message,
		Details: details,
	})
}

// AbortWithError is ErrorResponse followed by c.Abort, for middleware.
func AbortWithError(c *gin.Context, code int, message string) {
	ErrorResponse(c, code, message, nil)
	c.Abort()
}
