package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/salessite/internal/service"
)

// Suggest 将固定的 AI 动作转发给补全服务。
func (a *API) Suggest(c *gin.Context) {
	if a.suggest == nil {
		respondError(c, http.StatusServiceUnavailable, "AI suggestions are not configured")
		return
	}

	var payload service.SuggestRequest
	if !bindJSON(c, &payload, "invalid suggestion payload") {
		return
	}

	result, err := a.suggest.Suggest(c.Request.Context(), actorFrom(c), payload)
	if err != nil {
		a.respondServiceError(c, err, "AI service request failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}
