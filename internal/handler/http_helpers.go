package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/salessite/internal/auth"
	"github.com/salessite/internal/service"
	"go.uber.org/zap"
)

const actorContextKey = "__cms_actor"

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

// respondServiceError 将服务层错误类别映射为状态码。
// 未归类的错误记录日志后只返回 fallback。
func (a *API) respondServiceError(c *gin.Context, err error, fallback string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		body := gin.H{"error": verr.Message}
		if verr.Field != "" {
			body["field"] = verr.Field
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, service.ErrValidation):
		respondError(c, http.StatusBadRequest, "invalid request")
	case errors.Is(err, service.ErrUnauthorized):
		respondError(c, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, service.ErrNotFound):
		respondError(c, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrServiceUnavailable), errors.Is(err, auth.ErrNotConfigured):
		a.logger.Warn("dependency not configured", zap.String("path", c.FullPath()), zap.Error(err))
		respondError(c, http.StatusServiceUnavailable, "service not configured")
	case errors.Is(err, service.ErrUpstream):
		a.logger.Error("upstream failure", zap.String("path", c.FullPath()), zap.Error(err))
		_ = c.Error(err)
		respondError(c, http.StatusBadGateway, fallback)
	default:
		a.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, fallback)
	}
}

// actorFrom 返回 AuthRequired 放入上下文的编辑者。
func actorFrom(c *gin.Context) auth.Actor {
	if value, ok := c.Get(actorContextKey); ok {
		if actor, ok := value.(auth.Actor); ok {
			return actor
		}
	}
	return auth.Actor{}
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
