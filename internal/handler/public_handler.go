package handler

import (
	"bytes"
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/salessite/internal/db"
	"github.com/salessite/internal/service"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// 无论布局如何都会渲染的区块
var chromeSections = []string{"navigation", "footer", "seo"}

type faqView struct {
	db.FAQItem
	AnswerHTML string `json:"answer_html"`
}

type pagePayload struct {
	Page         string                     `json:"page"`
	Layout       []string                   `json:"layout"`
	CustomLayout bool                       `json:"custom_layout"`
	Sections     map[string]service.Content `json:"sections"`
	Testimonials []db.Testimonial           `json:"testimonials"`
	FAQs         []faqView                  `json:"faqs"`
	Videos       []db.Video                 `json:"videos"`
	Categories   []db.VideoCategory         `json:"categories"`
	Services     []db.Service               `json:"services"`
	Steps        []db.ProcessStep           `json:"steps"`
}

// GetPage 返回渲染单个已知页面所需的全部数据。结果缓存到下一次 CMS 写入；
// 内容缺失或读取失败时回退到默认值，页面不会失败。
func (a *API) GetPage(c *gin.Context) {
	page := strings.TrimSpace(c.Param("page"))
	if !service.IsKnownPage(page) {
		respondError(c, http.StatusNotFound, "page not found")
		return
	}

	ctx := c.Request.Context()
	cacheKey := "page:" + page

	var payload pagePayload
	version, hit, err := a.cache.Get(ctx, cacheKey, &payload)
	if err != nil {
		a.logger.Warn("page cache read failed", zap.String("page", page), zap.Error(err))
	}
	if hit {
		c.Header("X-Cache", "HIT")
		c.JSON(http.StatusOK, payload)
		return
	}

	// 以读取时的版本写回：构建期间若有写入使缓存失效，这份结果不会再被命中
	payload = a.buildPage(ctx, page)
	if err == nil {
		if err := a.cache.SetAt(ctx, version, cacheKey, payload); err != nil {
			a.logger.Warn("page cache write failed", zap.String("page", page), zap.Error(err))
		}
	}
	c.Header("X-Cache", "MISS")
	c.JSON(http.StatusOK, payload)
}

// GetContent 返回单个区块的生效内容。
func (a *API) GetContent(c *gin.Context) {
	section := c.Param("section")
	content, err := a.content.Resolve(c.Request.Context(), section)
	if err != nil {
		a.logger.Warn("resolve section failed, serving defaults", zap.String("section", section), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"section": section, "content": content})
}

func (a *API) buildPage(ctx context.Context, page string) pagePayload {
	layout, err := a.content.GetLayout(ctx, page)
	if err != nil {
		a.logger.Warn("load layout failed, using default", zap.String("page", page), zap.Error(err))
	}
	custom := layout != nil
	if !custom {
		layout = service.DefaultLayout(page)
	}

	payload := pagePayload{
		Page:         page,
		Layout:       layout,
		CustomLayout: custom,
		Sections:     map[string]service.Content{},
		Testimonials: []db.Testimonial{},
		FAQs:         []faqView{},
		Videos:       []db.Video{},
		Categories:   []db.VideoCategory{},
		Services:     []db.Service{},
		Steps:        []db.ProcessStep{},
	}

	known := service.KnownSections()
	for _, name := range append(slices.Clone(layout), chromeSections...) {
		if !slices.Contains(known, name) {
			continue
		}
		content, err := a.content.Resolve(ctx, name)
		if err != nil {
			a.logger.Warn("resolve section failed, serving defaults", zap.String("section", name), zap.Error(err))
		}
		payload.Sections[name] = content
	}

	cols := a.collections
	if slices.Contains(layout, "testimonials") {
		rows, err := cols.Testimonials.List(ctx, nil)
		a.logCollectionError("testimonials", err)
		for _, row := range rows {
			if onPage(row.Page, page) {
				payload.Testimonials = append(payload.Testimonials, row)
			}
		}
	}
	if slices.Contains(layout, "faq") {
		rows, err := cols.FAQs.List(ctx, nil)
		a.logCollectionError("faqs", err)
		for _, row := range rows {
			if onPage(row.Page, page) {
				payload.FAQs = append(payload.FAQs, faqView{FAQItem: row, AnswerHTML: a.markdownHTML(row.Answer)})
			}
		}
	}
	if slices.Contains(layout, "videos") {
		rows, err := cols.Videos.List(ctx, nil)
		a.logCollectionError("videos", err)
		for _, row := range rows {
			if onPage(row.Page, page) {
				payload.Videos = append(payload.Videos, row)
			}
		}
		categories, err := cols.Categories.List(ctx, nil)
		a.logCollectionError("categories", err)
		payload.Categories = append(payload.Categories, categories...)
	}
	if slices.Contains(layout, "services") {
		rows, err := cols.Services.List(ctx, nil)
		a.logCollectionError("services", err)
		payload.Services = append(payload.Services, rows...)
	}
	if slices.Contains(layout, "process") {
		rows, err := cols.ProcessSteps.List(ctx, nil)
		a.logCollectionError("process_steps", err)
		payload.Steps = append(payload.Steps, rows...)
	}

	return payload
}

func (a *API) logCollectionError(name string, err error) {
	if err != nil {
		a.logger.Warn("load collection failed, rendering without it", zap.String("collection", name), zap.Error(err))
	}
}

func (a *API) markdownHTML(source string) string {
	rendered, err := renderMarkdown(source)
	if err != nil {
		a.logger.Warn("render markdown", zap.Error(err))
		return sanitizer.Sanitize(source)
	}
	return rendered
}

func renderMarkdown(content string) (string, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	return string(sanitizer.SanitizeBytes(buf.Bytes())), nil
}

// onPage 判断按页面划分的行是否在 page 上渲染；未指定页面的行处处渲染。
func onPage(rowPage *string, page string) bool {
	return rowPage == nil || *rowPage == "" || *rowPage == page
}
