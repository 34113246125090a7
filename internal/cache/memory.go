package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryStore 是未配置 Redis 时使用的进程内缓存。
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	version int64
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore 创建空的进程内缓存。
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string, dst any) (int64, bool, error) {
	s.mu.Lock()
	version := s.version
	entry, ok := s.entries[versionedKey("", version, key)]
	s.mu.Unlock()

	if !ok {
		return version, false, nil
	}
	if s.ttl > 0 && s.now().After(entry.expiresAt) {
		return version, false, nil
	}
	if err := json.Unmarshal(entry.payload, dst); err != nil {
		return version, false, err
	}
	return version, true, nil
}

// SetAt 以 version 写入 value；版本已过期时直接丢弃。
func (s *MemoryStore) SetAt(_ context.Context, version int64, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if version != s.version {
		return nil
	}
	s.entries[versionedKey("", version, key)] = memoryEntry{
		payload:   payload,
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

// Invalidate 清空全部条目并递增版本号。
func (s *MemoryStore) Invalidate(_ context.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	s.entries = make(map[string]memoryEntry)
	return nil
}

func (s *MemoryStore) Version(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version, nil
}
