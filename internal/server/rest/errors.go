package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/guessgame/internal/common"
	"github.com/gin-gonic/gin"
)

// writeError maps service errors onto HTTP responses.
func (s *Server) writeError(c *gin.Context, err error) {
	status, msg := http.StatusInternalServerError, "internal error"

	switch {
	case errors.Is(err, common.ErrInvalidGuess), errors.Is(err, common.ErrNoTurnsRemaining):
		c.JSON(http.StatusBadRequest, gin.H{"message": s.game.GuessErrorMessage(err)})
		return
	case errors.Is(err, common.ErrorValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorUnauthorized):
		status, msg = http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, common.ErrorNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrorAlreadyExists):
		status, msg = http.StatusConflict, "already exists"
	case errors.Is(err, common.ErrOrderAlreadyConfirmed):
		status, msg = http.StatusConflict, "order already confirmed"
	case errors.Is(err, common.ErrLockTimeout):
		c.Header("Retry-After", "1")
		status, msg = http.StatusServiceUnavailable, "busy, please retry"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status, msg = http.StatusServiceUnavailable, "request cancelled"
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": msg})
}
