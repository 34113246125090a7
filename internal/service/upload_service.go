package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"
	"time"

	"github.com/salessite/internal/auth"
	"github.com/salessite/internal/storage"
	_ "golang.org/x/image/webp"
)

// DefaultMaxUploadBytes 上传图片的上限为 5 MiB。
const DefaultMaxUploadBytes int64 = 5 << 20

// UploadInput 描述从 multipart 表单取出的一个文件。
type UploadInput struct {
	Filename    string
	ContentType string
	Size        int64
	Folder      string
	Body        io.ReadSeeker
}

// UploadResult 为上传成功后返回给编辑者的结果。
type UploadResult struct {
	URL    string `json:"url"`
	Path   string `json:"path"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// UploadService 校验图片并写入对象存储。
type UploadService struct {
	store    storage.ObjectStore
	maxBytes int64
	now      func() time.Time
}

// NewUploadService 返回 UploadService。未配置存储时 store 可以为 nil，
// 此时上传返回 ErrServiceUnavailable。
func NewUploadService(store storage.ObjectStore, maxBytes int64) *UploadService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &UploadService{store: store, maxBytes: maxBytes, now: time.Now}
}

// MaxBytes 返回允许的最大文件大小。
func (s *UploadService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload 在写入任何数据之前校验类型与大小。
func (s *UploadService) Upload(ctx context.Context, actor auth.Actor, input UploadInput) (UploadResult, error) {
	if !actor.Valid() {
		return UploadResult{}, ErrUnauthorized
	}
	if input.Body == nil {
		return UploadResult{}, validationError("file", "no file provided")
	}

	contentType := strings.ToLower(strings.TrimSpace(input.ContentType))
	if !strings.HasPrefix(contentType, "image/") {
		return UploadResult{}, validationError("file", "only image files are allowed")
	}
	if input.Size > s.maxBytes {
		return UploadResult{}, validationError("file", fmt.Sprintf("file size exceeds %dMB", s.maxBytes>>20))
	}
	if s.store == nil {
		return UploadResult{}, fmt.Errorf("image storage: %w", ErrServiceUnavailable)
	}

	result := UploadResult{}
	if cfg, _, err := image.DecodeConfig(input.Body); err == nil {
		result.Width = cfg.Width
		result.Height = cfg.Height
	}
	if _, err := input.Body.Seek(0, io.SeekStart); err != nil {
		return UploadResult{}, fmt.Errorf("rewind upload: %w", err)
	}

	objectPath := storage.ObjectPath(input.Folder, input.Filename, s.now())
	url, err := s.store.Put(ctx, objectPath, input.Body, input.Size, contentType)
	if err != nil {
		return UploadResult{}, errors.Join(ErrUpstream, err)
	}

	result.URL = url
	result.Path = objectPath
	return result, nil
}
