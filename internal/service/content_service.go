package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/salessite/internal/auth"
	"github.com/salessite/internal/cache"
	"github.com/salessite/internal/db"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StoredSection 为区块的原始覆盖行。
type StoredSection struct {
	Content   Content    `json:"content"`
	UpdatedAt *time.Time `json:"updated_at"`
	UpdatedBy *string    `json:"updated_by,omitempty"`
}

// ContentService 将页面区块与默认值合并，并保存编辑者的覆盖内容。
type ContentService struct {
	db     *gorm.DB
	cache  cache.Invalidator
	logger *zap.Logger
}

// NewContentService 返回 ContentService，inv 可以为 nil。
func NewContentService(gdb *gorm.DB, inv cache.Invalidator, logger *zap.Logger) *ContentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentService{db: gdb, cache: inv, logger: logger}
}

// Resolve 返回 {...defaults, ...stored}。
// 数据库读取失败时仍返回默认值与错误，页面渲染可以继续。
func (s *ContentService) Resolve(ctx context.Context, section string) (Content, error) {
	defaults := DefaultsFor(section)

	stored, found, err := s.load(ctx, section)
	if err != nil {
		return defaults, fmt.Errorf("resolve section %s: %w", section, err)
	}
	if !found {
		return defaults, nil
	}
	return mergeContent(defaults, stored.Content), nil
}

// Stored 返回区块的覆盖行；未设置的区块得到空对象与 nil UpdatedAt。
func (s *ContentService) Stored(ctx context.Context, section string) (StoredSection, error) {
	if err := validateSectionName(section); err != nil {
		return StoredSection{}, err
	}

	stored, found, err := s.load(ctx, section)
	if err != nil {
		return StoredSection{}, fmt.Errorf("load section %s: %w", section, err)
	}
	if !found {
		return StoredSection{Content: Content{}}, nil
	}
	return stored, nil
}

// WriteSection 在顶层将 partial 合并到已存储的覆盖内容上并 upsert，
// 嵌套对象整体替换。
func (s *ContentService) WriteSection(ctx context.Context, actor auth.Actor, section string, partial Content) (Content, error) {
	if !actor.Valid() {
		return nil, ErrUnauthorized
	}
	if err := validateSectionName(section); err != nil {
		return nil, err
	}
	if isLayoutSection(section) {
		return nil, validationError("section", "page layouts are managed through the section order endpoint")
	}
	if partial == nil {
		return nil, validationError("content", "content must be an object")
	}
	if schema, ok := SchemaFor(section); ok {
		if err := schema.Validate(partial); err != nil {
			return nil, err
		}
	}

	existing, _, err := s.load(ctx, section)
	if err != nil {
		return nil, fmt.Errorf("load section %s: %w", section, err)
	}

	merged := mergeContent(existing.Content, partial)
	if err := s.upsert(ctx, section, merged, actor); err != nil {
		return nil, err
	}

	s.invalidate(ctx, "section:"+section)
	return merged, nil
}

func (s *ContentService) load(ctx context.Context, section string) (StoredSection, bool, error) {
	var row db.ContentSection
	if err := s.db.WithContext(ctx).Where("section = ?", section).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return StoredSection{Content: Content{}}, false, nil
		}
		return StoredSection{}, false, err
	}

	content := Content{}
	if len(row.Content) > 0 {
		if err := json.Unmarshal(row.Content, &content); err != nil {
			return StoredSection{}, false, fmt.Errorf("decode section %s: %w", section, err)
		}
	}

	updatedAt := row.UpdatedAt
	return StoredSection{Content: content, UpdatedAt: &updatedAt, UpdatedBy: row.UpdatedBy}, true, nil
}

func (s *ContentService) upsert(ctx context.Context, section string, content Content, actor auth.Actor) error {
	payload, err := json.Marshal(content)
	if err != nil {
		return validationError("content", "content is not serialisable")
	}

	updatedBy := actor.Email
	if updatedBy == "" {
		updatedBy = actor.UserID
	}

	row := db.ContentSection{
		Section:   section,
		Content:   datatypes.JSON(payload),
		UpdatedBy: &updatedBy,
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "section"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at", "updated_by"}),
	}).Create(&row).Error; err != nil {
		return fmt.Errorf("upsert section %s: %w", section, err)
	}
	return nil
}

func (s *ContentService) invalidate(ctx context.Context, reason string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, reason); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("reason", reason), zap.Error(err))
	}
}

func isLayoutSection(section string) bool {
	return strings.HasPrefix(section, layoutSectionPrefix)
}
