package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/salessite/internal/service"
)

// ListCollection 返回集合的全部行，可按支持的查询参数过滤。
func (a *API) ListCollection(col service.Accessor) gin.HandlerFunc {
	desc := col.Descriptor()
	return func(c *gin.Context) {
		filter := service.Filter{}
		for _, key := range desc.Filters {
			if value := c.Query(key); value != "" {
				filter[key] = value
			}
		}

		rows, err := col.ListRows(c.Request.Context(), filter)
		if err != nil {
			a.respondServiceError(c, err, "failed to load "+desc.Name)
			return
		}
		c.JSON(http.StatusOK, gin.H{desc.ListKey: rows})
	}
}

// GetCollectionItem 返回单行，不存在时 404。
func (a *API) GetCollectionItem(col service.Accessor) gin.HandlerFunc {
	desc := col.Descriptor()
	return func(c *gin.Context) {
		row, err := col.GetRow(c.Request.Context(), c.Param("id"))
		if err != nil {
			a.respondServiceError(c, err, "failed to load "+desc.ItemKey)
			return
		}
		c.JSON(http.StatusOK, gin.H{desc.ItemKey: row})
	}
}

// CreateCollectionItem 以 JSON 对象请求体插入一行。
func (a *API) CreateCollectionItem(col service.Accessor) gin.HandlerFunc {
	desc := col.Descriptor()
	return func(c *gin.Context) {
		var fields service.Fields
		if !bindJSON(c, &fields, "request body must be a JSON object") {
			return
		}

		row, err := col.CreateRow(c.Request.Context(), actorFrom(c), fields)
		if err != nil {
			a.respondServiceError(c, err, "failed to create "+desc.ItemKey)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, desc.ItemKey: row})
	}
}

// UpdateCollectionItem 整体替换一行的全部字段。
func (a *API) UpdateCollectionItem(col service.Accessor) gin.HandlerFunc {
	desc := col.Descriptor()
	return func(c *gin.Context) {
		var fields service.Fields
		if !bindJSON(c, &fields, "request body must be a JSON object") {
			return
		}

		row, err := col.UpdateRow(c.Request.Context(), actorFrom(c), c.Param("id"), fields)
		if err != nil {
			a.respondServiceError(c, err, "failed to update "+desc.ItemKey)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, desc.ItemKey: row})
	}
}

// DeleteCollectionItem 物理删除一行。
func (a *API) DeleteCollectionItem(col service.Accessor) gin.HandlerFunc {
	desc := col.Descriptor()
	return func(c *gin.Context) {
		if err := col.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
			a.respondServiceError(c, err, "failed to delete "+desc.ItemKey)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
