package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore 将对象写入 Dir，并通过 URLPath 对外提供。
type LocalStore struct {
	Dir     string
	URLPath string
}

// NewLocalStore 返回以 dir 为根目录的存储。
func NewLocalStore(dir, urlPath string) *LocalStore {
	return &LocalStore{Dir: dir, URLPath: strings.TrimRight(urlPath, "/")}
}

func (s *LocalStore) Put(_ context.Context, objectPath string, body io.Reader, _ int64, _ string) (string, error) {
	clean := path.Clean("/" + objectPath)
	target := filepath.Join(s.Dir, filepath.FromSlash(clean))

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	file, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, body); err != nil {
		return "", fmt.Errorf("write upload file: %w", err)
	}

	return s.URLPath + clean, nil
}
