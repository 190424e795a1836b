// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/faq"
)

// parseID reads a positive int64 path parameter, writing a 400 on failure.
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, faq.ErrFAQNotFound), errors.Is(err, faq.ErrContentNotFound):
		return http.StatusNotFound
	case errors.Is(err, faq.ErrInvalidFAQ), errors.Is(err, faq.ErrInvalidSettings):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
