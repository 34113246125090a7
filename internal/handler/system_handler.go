package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/salessite/internal/db"
	"go.uber.org/zap"
)

const revalidateSecretHeader = "x-revalidate-secret"

type revalidatePayload struct {
	Reason string `json:"reason"`
}

// pinger 由带远端后端的缓存实现。
type pinger interface {
	Ping(ctx context.Context) error
}

// Revalidate 是清理缓存的 webhook。共享密钥放在请求头中；
// 服务端未配置密钥时拒绝所有调用。
func (a *API) Revalidate(c *gin.Context) {
	provided := strings.TrimSpace(c.GetHeader(revalidateSecretHeader))
	if a.revalidateSecret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(a.revalidateSecret)) != 1 {
		respondError(c, http.StatusUnauthorized, "invalid revalidation secret")
		return
	}

	var payload revalidatePayload
	// 请求体可选
	_ = c.ShouldBindJSON(&payload)
	reason := strings.TrimSpace(payload.Reason)
	if reason == "" {
		reason = "webhook"
	}

	if err := a.cache.Invalidate(c.Request.Context(), "revalidate:"+reason); err != nil {
		a.respondServiceError(c, err, "failed to revalidate")
		return
	}

	version, err := a.cache.Version(c.Request.Context())
	if err != nil {
		a.logger.Warn("read cache version", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"revalidated": true, "version": version, "now": time.Now().UTC()})
}

// Healthz 检查数据库与缓存。
func (a *API) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{"database": "ok", "cache": "ok"}

	if err := db.Ping(a.db); err != nil {
		a.logger.Warn("health check: database", zap.Error(err))
		checks["database"] = "unavailable"
		status = http.StatusServiceUnavailable
	}
	if p, ok := a.cache.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			a.logger.Warn("health check: cache", zap.Error(err))
			checks["cache"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, gin.H{"status": http.StatusText(status), "checks": checks})
}
