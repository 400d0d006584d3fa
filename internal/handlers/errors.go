package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/muandane/opcachestat/internal/bytecode"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

func sendError(c *gin.Context, logger *slog.Logger, code int, message string, err error) {
	logger.Error(message,
		"error", err,
		"code", code,
		"path", c.Request.URL.Path,
	)

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   err.Error(),
		Code:    code,
		Message: message,
	})
}

func handleError(c *gin.Context, logger *slog.Logger, err error) {
	var validationErr *ValidationError

	switch {
	case errors.As(err, &validationErr):
		sendError(c, logger, http.StatusBadRequest, "validation error", err)
	case errors.Is(err, bytecode.ErrIncompleteStatus):
		sendError(c, logger, http.StatusBadGateway, "incomplete opcache status", err)
	default:
		sendError(c, logger, http.StatusInternalServerError, "internal server error", err)
	}
}
