package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/salessite/internal/service"
	"go.uber.org/zap"
)

// UploadImage 处理图片上传请求。表单字段 file 为图片，folder 为可选目录。
func (a *API) UploadImage(c *gin.Context) {
	// 预留 2MB 给表单其它字段，略超上限的文件交给服务层按大小拒绝
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, a.uploads.MaxBytes()+2<<20)

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file size exceeds %dMB", a.uploads.MaxBytes()>>20), "field": "file"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided", "field": "file"})
		return
	}

	src, err := file.Open()
	if err != nil {
		a.logger.Error("open uploaded file", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to read upload")
		return
	}
	defer src.Close()

	result, err := a.uploads.Upload(c.Request.Context(), actorFrom(c), service.UploadInput{
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Size:        file.Size,
		Folder:      c.PostForm("folder"),
		Body:        src,
	})
	if err != nil {
		a.respondServiceError(c, err, "failed to upload image")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"url":     result.URL,
		"path":    result.Path,
		"width":   result.Width,
		"height":  result.Height,
	})
}
