package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/salessite/internal/auth"
)

// KnownPages 为可以自定义布局的固定页面集合。
var KnownPages = []string{"homepage", "about", "services", "process", "testimonials", "videos", "faq", "contact"}

var defaultLayouts = map[string][]string{
	"homepage":     {"hero", "services", "process", "testimonials", "videos", "faq", "cta"},
	"about":        {"about", "testimonials", "cta"},
	"services":     {"services_intro", "services", "cta"},
	"process":      {"process_intro", "process", "cta"},
	"testimonials": {"testimonials_intro", "testimonials", "cta"},
	"videos":       {"videos_intro", "videos", "cta"},
	"faq":          {"faq_intro", "faq", "cta"},
	"contact":      {"contact"},
}

// IsKnownPage 判断 page 是否属于 KnownPages。
func IsKnownPage(page string) bool {
	return slices.Contains(KnownPages, page)
}

// DefaultLayout 返回 page 的内置区块顺序。
func DefaultLayout(page string) []string {
	return slices.Clone(defaultLayouts[page])
}

// LayoutKey 返回保存 page 布局的区块行键。
func LayoutKey(page string) string {
	return layoutSectionPrefix + page
}

// GetLayout 返回 page 已保存的区块顺序；未保存时返回 nil，使用内置顺序。
func (s *ContentService) GetLayout(ctx context.Context, page string) ([]string, error) {
	if !IsKnownPage(page) {
		return nil, validationError("page", "unknown page")
	}

	stored, found, err := s.load(ctx, LayoutKey(page))
	if err != nil {
		return nil, fmt.Errorf("load layout %s: %w", page, err)
	}
	if !found {
		return nil, nil
	}

	raw, ok := stored.Content["sections"].([]any)
	if !ok {
		return nil, nil
	}
	sections := make([]string, 0, len(raw))
	for _, item := range raw {
		if name, ok := item.(string); ok {
			sections = append(sections, name)
		}
	}
	if len(sections) == 0 {
		return nil, nil
	}
	return sections, nil
}

// SetLayout 保存 page 的区块顺序。
func (s *ContentService) SetLayout(ctx context.Context, actor auth.Actor, page string, sections []string) error {
	if !actor.Valid() {
		return ErrUnauthorized
	}
	if !IsKnownPage(page) {
		return validationError("page", "unknown page")
	}
	if len(sections) == 0 {
		return validationError("sections", "sections must be a non-empty list")
	}

	cleaned := make([]any, 0, len(sections))
	for _, name := range sections {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return validationError("sections", "section names must be non-empty strings")
		}
		cleaned = append(cleaned, trimmed)
	}

	if err := s.upsert(ctx, LayoutKey(page), Content{"sections": cleaned}, actor); err != nil {
		return err
	}
	s.invalidate(ctx, "layout:"+page)
	return nil
}
