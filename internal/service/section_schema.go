package service

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Content 为区块存储的 JSON 对象。
type Content map[string]any

// FieldKind 为已知区块字段期望的 JSON 形态。
type FieldKind string

const (
	KindString     FieldKind = "string"
	KindNumber     FieldKind = "number"
	KindBool       FieldKind = "bool"
	KindObject     FieldKind = "object"
	KindStringList FieldKind = "string_list"
	KindList       FieldKind = "list"
)

// SectionSchema 声明区块可识别的字段及其默认值。
type SectionSchema struct {
	Fields   map[string]FieldKind
	Defaults Content
}

const layoutSectionPrefix = "page_layout_"

var sectionNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,99}$`)

var sectionSchemas = map[string]SectionSchema{
	"hero": {
		Fields: map[string]FieldKind{
			"eyebrow": KindString, "headline": KindString, "subheadline": KindString,
			"cta_text": KindString, "cta_link": KindString, "secondary_cta_text": KindString,
			"secondary_cta_link": KindString, "background_image": KindString, "show_video": KindBool,
		},
		Defaults: Content{
			"eyebrow":            "Sales consulting for growing teams",
			"headline":           "Turn your pipeline into predictable revenue",
			"subheadline":        "We build the process, coach the people, and install the systems that close more deals.",
			"cta_text":           "Book a strategy call",
			"cta_link":           "/contact",
			"secondary_cta_text": "See how it works",
			"secondary_cta_link": "/process",
			"background_image":   "",
			"show_video":         false,
		},
	},
	"about": {
		Fields: map[string]FieldKind{
			"heading": KindString, "body": KindString, "image": KindString,
			"highlights": KindStringList, "years_experience": KindNumber,
		},
		Defaults: Content{
			"heading":          "Built by people who have carried a quota",
			"body":             "We have led sales teams from first hire to nine-figure revenue. Now we help founders and sales leaders do the same without the expensive detours.",
			"image":            "",
			"highlights":       []any{"Hands-on implementation", "Coaching that sticks", "Metrics you can trust"},
			"years_experience": 15,
		},
	},
	"services_intro": {
		Fields:   map[string]FieldKind{"heading": KindString, "subheading": KindString},
		Defaults: Content{"heading": "How we help", "subheading": "Pick the engagement that fits where your team is today."},
	},
	"process_intro": {
		Fields:   map[string]FieldKind{"heading": KindString, "subheading": KindString},
		Defaults: Content{"heading": "Our process", "subheading": "A clear path from diagnosis to a self-running sales engine."},
	},
	"testimonials_intro": {
		Fields:   map[string]FieldKind{"heading": KindString, "subheading": KindString},
		Defaults: Content{"heading": "What clients say", "subheading": "Results from teams we have worked with."},
	},
	"faq_intro": {
		Fields:   map[string]FieldKind{"heading": KindString, "subheading": KindString},
		Defaults: Content{"heading": "Frequently asked questions", "subheading": ""},
	},
	"videos_intro": {
		Fields:   map[string]FieldKind{"heading": KindString, "subheading": KindString},
		Defaults: Content{"heading": "Watch and learn", "subheading": "Short lessons on prospecting, discovery, and closing."},
	},
	"cta": {
		Fields: map[string]FieldKind{"heading": KindString, "body": KindString, "button": KindObject},
		Defaults: Content{
			"heading": "Ready to grow your sales?",
			"body":    "Tell us where you are stuck and we will show you the fastest way forward.",
			"button":  map[string]any{"text": "Get in touch", "href": "/contact"},
		},
	},
	"contact": {
		Fields: map[string]FieldKind{
			"heading": KindString, "body": KindString, "email": KindString,
			"phone": KindString, "calendar_url": KindString, "address": KindString,
		},
		Defaults: Content{
			"heading":      "Let's talk",
			"body":         "Send a note or book a time directly on the calendar.",
			"email":        "hello@example.com",
			"phone":        "",
			"calendar_url": "",
			"address":      "",
		},
	},
	"footer": {
		Fields: map[string]FieldKind{"tagline": KindString, "links": KindList, "social": KindObject, "copyright": KindString},
		Defaults: Content{
			"tagline":   "Sales systems that scale.",
			"links":     []any{},
			"social":    map[string]any{},
			"copyright": "All rights reserved.",
		},
	},
	"navigation": {
		Fields: map[string]FieldKind{"items": KindList, "cta_text": KindString, "cta_link": KindString},
		Defaults: Content{
			"items": []any{
				map[string]any{"label": "Services", "href": "/services"},
				map[string]any{"label": "Process", "href": "/process"},
				map[string]any{"label": "Videos", "href": "/videos"},
				map[string]any{"label": "FAQ", "href": "/faq"},
			},
			"cta_text": "Book a call",
			"cta_link": "/contact",
		},
	},
	"seo": {
		Fields: map[string]FieldKind{
			"site_name": KindString, "title_template": KindString, "default_title": KindString,
			"description": KindString, "keywords": KindStringList, "og_image": KindString,
		},
		Defaults: Content{
			"site_name":      "Sales Consulting",
			"title_template": "%s | Sales Consulting",
			"default_title":  "Sales Consulting",
			"description":    "Sales process, coaching, and systems for growing B2B teams.",
			"keywords":       []any{"sales consulting", "sales coaching", "B2B sales"},
			"og_image":       "",
		},
	},
}

// SchemaFor 返回已知区块的 schema。
func SchemaFor(section string) (SectionSchema, bool) {
	schema, ok := sectionSchemas[section]
	return schema, ok
}

// DefaultsFor 返回区块默认值的副本，未知区块为空。
func DefaultsFor(section string) Content {
	schema, ok := sectionSchemas[section]
	if !ok {
		return Content{}
	}
	return mergeContent(nil, schema.Defaults)
}

// KnownSections 列出所有带内置默认值的区块。
func KnownSections() []string {
	names := make([]string, 0, len(sectionSchemas))
	for name := range sectionSchemas {
		names = append(names, name)
	}
	return names
}

// mergeContent 返回 {...base, ...overlay}。嵌套值整体替换而不递归合并，
// 并做深拷贝，结果与输入不共享任何 map 或 slice。
func mergeContent(base, overlay Content) Content {
	merged := make(Content, len(base)+len(overlay))
	for key, value := range base {
		merged[key] = cloneValue(value)
	}
	for key, value := range overlay {
		merged[key] = cloneValue(value)
	}
	return merged
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = cloneValue(item)
		}
		return out
	case Content:
		return mergeContent(nil, v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return slices.Clone(v)
	default:
		return value
	}
}

func validateSectionName(section string) error {
	if !sectionNamePattern.MatchString(section) {
		return validationError("section", "section name must be lowercase letters, digits, '-' or '_'")
	}
	return nil
}

// Validate 校验已识别字段的类型，未知字段与 null 直接放行。
func (s SectionSchema) Validate(partial Content) error {
	for key, value := range partial {
		kind, ok := s.Fields[key]
		if !ok || value == nil {
			continue
		}
		if !matchesKind(kind, value) {
			return validationError(key, fmt.Sprintf("expected %s", strings.ReplaceAll(string(kind), "_", " ")))
		}
	}
	return nil
}

func matchesKind(kind FieldKind, value any) bool {
	switch kind {
	case KindString:
		_, ok := value.(string)
		return ok
	case KindNumber:
		switch value.(type) {
		case float64, float32, int, int32, int64:
			return true
		}
		return false
	case KindBool:
		_, ok := value.(bool)
		return ok
	case KindObject:
		_, ok := value.(map[string]any)
		return ok
	case KindStringList:
		switch list := value.(type) {
		case []string:
			return true
		case []any:
			for _, item := range list {
				if _, ok := item.(string); !ok {
					return false
				}
			}
			return true
		}
		return false
	case KindList:
		switch value.(type) {
		case []any, []string, []map[string]any:
			return true
		}
		return false
	}
	return true
}
