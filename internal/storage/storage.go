// Package storage 将上传的图片写入存储桶或本地目录。
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ObjectStore 将对象保存到 path 并返回其公开 URL。
type ObjectStore interface {
	Put(ctx context.Context, objectPath string, body io.Reader, size int64, contentType string) (string, error)
}

const DefaultFolder = "uploads"

var folderPattern = regexp.MustCompile(`[^a-z0-9_-]+`)

// SanitizeFolder 将 folder 转为小写并去掉 [a-z0-9_-] 以外的字符。
func SanitizeFolder(folder string) string {
	cleaned := folderPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(folder)), "")
	if cleaned == "" {
		return DefaultFolder
	}
	return cleaned
}

// ObjectPath 为上传文件生成 "<folder>/<yyyymmdd>-<uuid><ext>"。
func ObjectPath(folder, filename string, now time.Time) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 10 {
		ext = ""
	}
	name := fmt.Sprintf("%s-%s%s", now.Format("20060102"), uuid.New().String(), ext)
	return path.Join(SanitizeFolder(folder), name)
}
