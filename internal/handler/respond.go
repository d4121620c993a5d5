package handler

import (
	"errors"
	"net/http"

	"salesledger/internal/apperrors"
	"salesledger/internal/middleware"
	"salesledger/internal/model"
	"salesledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrDuplicate),
		errors.Is(err, apperrors.ErrInvalidTransition),
		errors.Is(err, apperrors.ErrConcurrencyConflict):
		return http.StatusConflict
	default:
		// configuration, invariant violations and anything unexpected
		return http.StatusInternalServerError
	}
}

// fail writes the error envelope and records err for the request logger.
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	msg := err.Error()
	if status == http.StatusInternalServerError && !errors.Is(err, apperrors.ErrConfiguration) {
		msg = "Internal server error"
	}
	c.JSON(status, response.Error(status, msg).WithRequestID(c.Writer.Header().Get("X-Request-ID")))
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return false
	}
	return true
}

func actorOf(c *gin.Context) (model.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
	}
	return actor, ok
}
