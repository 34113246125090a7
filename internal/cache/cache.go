// Package cache 缓存渲染好的页面数据，任何 CMS 写入后整体失效。
//
// 缓存键以站点版本号为命名空间。Invalidate 递增版本号，旧条目随即全部不可达，
// 之后由 TTL 回收。
package cache

import (
	"context"
	"fmt"
)

// Store 是面向公开站点的带版本读穿缓存。
//
// Get 返回本次查找所用的版本号。未命中时必须用该版本调用 SetAt 回填，
// 这样构建期间被写入失效的结果只会落在旧版本下，永远不会被命中。
type Store interface {
	Get(ctx context.Context, key string, dst any) (version int64, hit bool, err error)
	SetAt(ctx context.Context, version int64, key string, value any) error
	Invalidate(ctx context.Context, reason string) error
	Version(ctx context.Context) (int64, error)
}

// Invalidator 是 Store 的写侧视图。
type Invalidator interface {
	Invalidate(ctx context.Context, reason string) error
}

func versionedKey(prefix string, version int64, key string) string {
	return fmt.Sprintf("%sv%d:%s", prefix, version, key)
}
