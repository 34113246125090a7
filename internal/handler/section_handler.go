package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/salessite/internal/service"
)

type sectionPayload struct {
	Content service.Content `json:"content"`
}

type blockOrderPayload struct {
	Type  string              `json:"type"`
	Items []service.OrderItem `json:"items"`
}

type layoutPayload struct {
	Page     string   `json:"page"`
	Sections []string `json:"sections"`
}

// GetSection 返回区块已存储的覆盖内容，未设置时为空对象。
func (a *API) GetSection(c *gin.Context) {
	stored, err := a.content.Stored(c.Request.Context(), c.Param("section"))
	if err != nil {
		a.respondServiceError(c, err, "failed to load section")
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": stored.Content, "updated_at": stored.UpdatedAt})
}

// UpdateSection 将提交的内容合并进已存储的覆盖内容。
func (a *API) UpdateSection(c *gin.Context) {
	var payload sectionPayload
	if !bindJSON(c, &payload, "content must be an object") {
		return
	}
	if payload.Content == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content must be an object", "field": "content"})
		return
	}

	section := c.Param("section")
	merged, err := a.content.WriteSection(c.Request.Context(), actorFrom(c), section, payload.Content)
	if err != nil {
		a.respondServiceError(c, err, "failed to save section")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "section": section, "content": merged})
}

// ReorderBlocks 批量写入同一集合各行的 display_order。
// 部分失败时返回 207 与失败的 id，已更新的行保持更新。
func (a *API) ReorderBlocks(c *gin.Context) {
	var payload blockOrderPayload
	if !bindJSON(c, &payload, "invalid order payload") {
		return
	}

	col, ok := a.collections.ByName(strings.TrimSpace(payload.Type))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown block type", "field": "type"})
		return
	}

	updated, err := col.Reorder(c.Request.Context(), actorFrom(c), payload.Items)
	if err != nil {
		var rerr *service.ReorderError
		if errors.As(err, &rerr) {
			c.JSON(http.StatusMultiStatus, gin.H{"success": false, "updated": rerr.Updated, "failed": rerr.Failed})
			return
		}
		a.respondServiceError(c, err, "failed to reorder")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "updated": updated})
}

// GetSectionOrder 返回 ?page= 的布局，未设置时回退到内置顺序。
func (a *API) GetSectionOrder(c *gin.Context) {
	page := strings.TrimSpace(c.Query("page"))
	sections, err := a.content.GetLayout(c.Request.Context(), page)
	if err != nil {
		a.respondServiceError(c, err, "failed to load layout")
		return
	}

	custom := sections != nil
	if !custom {
		sections = service.DefaultLayout(page)
	}
	c.JSON(http.StatusOK, gin.H{"page": page, "sections": sections, "custom": custom})
}

// UpdateSectionOrder 保存单个页面的布局。
func (a *API) UpdateSectionOrder(c *gin.Context) {
	var payload layoutPayload
	if !bindJSON(c, &payload, "invalid layout payload") {
		return
	}

	page := strings.TrimSpace(payload.Page)
	if err := a.content.SetLayout(c.Request.Context(), actorFrom(c), page, payload.Sections); err != nil {
		a.respondServiceError(c, err, "failed to save layout")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "page": page, "sections": payload.Sections})
}
