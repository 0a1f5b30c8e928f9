package http

import (
	"errors"
	"net/http"

	"storefront/internal/auth"
	"storefront/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func statusFor(err error) int {
	var stockErr *domain.InsufficientStockError
	switch {
	case errors.As(err, &stockErr), errors.Is(err, domain.ErrStockConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidOrder), errors.Is(err, domain.ErrInvalidProduct):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, log *logrus.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).WithError(err).Error("Request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
