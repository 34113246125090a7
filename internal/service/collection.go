package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/salessite/internal/auth"
	"github.com/salessite/internal/cache"
	"github.com/salessite/internal/db"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const reorderConcurrency = 8

// Descriptor 描述一个集合。
type Descriptor struct {
	// Name 既是路由段，也是排序接口使用的区块类型。
	Name string
	// ListKey 与 ItemKey 为列表与单行响应中的 JSON 键。
	ListKey string
	ItemKey string
	// Required 字段在创建与更新时必须存在且非空。
	Required []string
	// Filters 为列表接口接受的过滤列。
	Filters []string
	// Invalidates 标记写入会影响已渲染页面的集合。
	Invalidates bool
}

// Fields 为解码后的 JSON 写入载荷。
type Fields map[string]any

// Filter 按区分列过滤 List。
type Filter map[string]string

// OrderItem 为批量排序中的一项。
type OrderItem struct {
	ID           string `json:"id"`
	DisplayOrder *int   `json:"display_order"`
}

// Accessor 是 HTTP 处理器使用的类型擦除视图。
type Accessor interface {
	Descriptor() Descriptor
	ListRows(ctx context.Context, filter Filter) (any, error)
	GetRow(ctx context.Context, id string) (any, error)
	CreateRow(ctx context.Context, actor auth.Actor, fields Fields) (any, error)
	UpdateRow(ctx context.Context, actor auth.Actor, id string, fields Fields) (any, error)
	Delete(ctx context.Context, actor auth.Actor, id string) error
	Reorder(ctx context.Context, actor auth.Actor, items []OrderItem) (int, error)
}

// Row 由内嵌 db.Record 的集合模型指针满足。
type Row[T any] interface {
	*T
	Base() *db.Record
}

// Collection 为单张实体表的增删改查。更新以载荷整体替换全部字段，
// 载荷中缺失的字段写为零值。
type Collection[T any, P Row[T]] struct {
	desc     Descriptor
	db       *gorm.DB
	cache    cache.Invalidator
	logger   *zap.Logger
	decorate func(P)
}

// NewCollection 构建集合。decorate 非空时，为每一行读写结果填充推导字段。
func NewCollection[T any, P Row[T]](gdb *gorm.DB, inv cache.Invalidator, logger *zap.Logger, desc Descriptor, decorate func(P)) *Collection[T, P] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collection[T, P]{desc: desc, db: gdb, cache: inv, logger: logger, decorate: decorate}
}

func (c *Collection[T, P]) Descriptor() Descriptor {
	return c.desc
}

// List 按 display_order 返回全部行，相同值保持插入顺序。
func (c *Collection[T, P]) List(ctx context.Context, filter Filter) ([]T, error) {
	query := c.db.WithContext(ctx).Model(new(T))
	for key, value := range filter {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if !slices.Contains(c.desc.Filters, key) {
			return nil, validationError(key, "unsupported filter")
		}
		query = query.Where(fmt.Sprintf("%s = ?", key), value)
	}

	items := make([]T, 0)
	if err := query.Order("display_order asc").Order("created_at asc").Order("id asc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", c.desc.Name, err)
	}
	for i := range items {
		c.apply(&items[i])
	}
	return items, nil
}

// Get 按 id 读取一行。
func (c *Collection[T, P]) Get(ctx context.Context, id string) (*T, error) {
	var item T
	if err := c.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s %s: %w", c.desc.ItemKey, id, err)
	}
	c.apply(&item)
	return &item, nil
}

// Create 校验必填字段后插入新行。
func (c *Collection[T, P]) Create(ctx context.Context, actor auth.Actor, fields Fields) (*T, error) {
	if !actor.Valid() {
		return nil, ErrUnauthorized
	}
	if err := c.validate(fields); err != nil {
		return nil, err
	}

	item, err := decodeRow[T](fields)
	if err != nil {
		return nil, err
	}
	P(&item).Base().ID = ""

	if err := c.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, fmt.Errorf("create %s: %w", c.desc.ItemKey, err)
	}

	c.apply(&item)
	c.invalidate(ctx, c.desc.Name+":create")
	return &item, nil
}

// Update 以 fields 替换该行全部字段，保留 id 与 created_at。
func (c *Collection[T, P]) Update(ctx context.Context, actor auth.Actor, id string, fields Fields) (*T, error) {
	if !actor.Valid() {
		return nil, ErrUnauthorized
	}
	if err := c.validate(fields); err != nil {
		return nil, err
	}

	item, err := decodeRow[T](fields)
	if err != nil {
		return nil, err
	}

	existing, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	record := P(&item).Base()
	record.ID = P(existing).Base().ID
	record.CreatedAt = P(existing).Base().CreatedAt

	if err := c.db.WithContext(ctx).Save(&item).Error; err != nil {
		return nil, fmt.Errorf("update %s %s: %w", c.desc.ItemKey, id, err)
	}

	c.apply(&item)
	c.invalidate(ctx, c.desc.Name+":update")
	return &item, nil
}

// Delete 物理删除该行，其他行对它的引用保持不变。
func (c *Collection[T, P]) Delete(ctx context.Context, actor auth.Actor, id string) error {
	if !actor.Valid() {
		return ErrUnauthorized
	}

	result := c.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if result.Error != nil {
		return fmt.Errorf("delete %s %s: %w", c.desc.ItemKey, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	c.invalidate(ctx, c.desc.Name+":delete")
	return nil
}

// Reorder 并发写入每一项的 display_order。单项失败不会回滚其他项，
// 失败项通过 *ReorderError 返回。
func (c *Collection[T, P]) Reorder(ctx context.Context, actor auth.Actor, items []OrderItem) (int, error) {
	if !actor.Valid() {
		return 0, ErrUnauthorized
	}
	if len(items) == 0 {
		return 0, validationError("items", "items must be a non-empty list")
	}
	for _, item := range items {
		if strings.TrimSpace(item.ID) == "" {
			return 0, validationError("items", "every item needs an id")
		}
		if item.DisplayOrder == nil {
			return 0, validationError("items", "every item needs a display_order")
		}
	}

	var (
		mu      sync.Mutex
		updated int
		failed  []string
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(reorderConcurrency)
	for _, item := range items {
		item := item
		group.Go(func() error {
			result := c.db.WithContext(groupCtx).Model(new(T)).
				Where("id = ?", item.ID).
				Update("display_order", *item.DisplayOrder)

			mu.Lock()
			defer mu.Unlock()
			if result.Error != nil || result.RowsAffected == 0 {
				if result.Error != nil {
					c.logger.Warn("reorder item failed",
						zap.String("collection", c.desc.Name),
						zap.String("id", item.ID),
						zap.Error(result.Error))
				}
				failed = append(failed, item.ID)
				return nil
			}
			updated++
			return nil
		})
	}
	_ = group.Wait()

	if updated > 0 {
		c.invalidate(ctx, c.desc.Name+":reorder")
	}
	if len(failed) > 0 {
		slices.Sort(failed)
		return updated, &ReorderError{Updated: updated, Failed: failed}
	}
	return updated, nil
}

func (c *Collection[T, P]) ListRows(ctx context.Context, filter Filter) (any, error) {
	return c.List(ctx, filter)
}

func (c *Collection[T, P]) GetRow(ctx context.Context, id string) (any, error) {
	return c.Get(ctx, id)
}

func (c *Collection[T, P]) CreateRow(ctx context.Context, actor auth.Actor, fields Fields) (any, error) {
	return c.Create(ctx, actor, fields)
}

func (c *Collection[T, P]) UpdateRow(ctx context.Context, actor auth.Actor, id string, fields Fields) (any, error) {
	return c.Update(ctx, actor, id, fields)
}

func (c *Collection[T, P]) validate(fields Fields) error {
	if fields == nil {
		return validationError("", "payload must be an object")
	}
	for _, name := range c.desc.Required {
		value, ok := fields[name]
		if !ok || value == nil {
			return validationError(name, "is required")
		}
		if text, isString := value.(string); isString && strings.TrimSpace(text) == "" {
			return validationError(name, "is required")
		}
	}
	return nil
}

func (c *Collection[T, P]) apply(item *T) {
	if c.decorate != nil {
		c.decorate(P(item))
	}
}

func (c *Collection[T, P]) invalidate(ctx context.Context, reason string) {
	if !c.desc.Invalidates || c.cache == nil {
		return
	}
	if err := c.cache.Invalidate(ctx, reason); err != nil {
		c.logger.Warn("cache invalidation failed", zap.String("reason", reason), zap.Error(err))
	}
}

var systemFields = []string{"id", "created_at", "updated_at"}

func decodeRow[T any](fields Fields) (T, error) {
	var item T

	payload := make(Fields, len(fields))
	for key, value := range fields {
		if slices.Contains(systemFields, key) {
			continue
		}
		payload[key] = value
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return item, validationError("", "payload is not serialisable")
	}
	if err := json.Unmarshal(raw, &item); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return item, validationError(typeErr.Field, fmt.Sprintf("expected %s", typeErr.Type))
		}
		return item, validationError("", "payload does not match the collection fields")
	}
	return item, nil
}
