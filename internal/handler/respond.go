package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wellybot/wgvpn-admin/internal/service"
)

const dateLayout = "2006-01-02"

// writeError - service 에러를 HTTP 상태 코드로 변환
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAlertNotFound), errors.Is(err, service.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("Request failed (path=%s): %v", c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", service.ErrInvalidInput, key)
	}
	return n, nil
}

func queryInt64Ptr(c *gin.Context, key string) (*int64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", service.ErrInvalidInput, key)
	}
	return &n, nil
}

func queryBoolPtr(c *gin.Context, key string) (*bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be true or false", service.ErrInvalidInput, key)
	}
	return &b, nil
}

// queryDatePtr - YYYY-MM-DD (UTC)
func queryDatePtr(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", service.ErrInvalidInput, key)
	}
	return &t, nil
}
