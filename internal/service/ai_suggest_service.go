package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/salessite/internal/auth"
	"github.com/salessite/internal/config"
	"go.uber.org/zap"
)

// SuggestService 支持的建议动作。
const (
	SuggestAltText         = "alt-text"
	SuggestRewriteHeadline = "rewrite-headline"
	SuggestGenerateSEO     = "generate-seo"
)

const (
	suggestTemperature     = 0.4
	maxSuggestContentRunes = 6000
)

// SuggestRequest 是 /api/ai/suggest 的请求体。
type SuggestRequest struct {
	Action   string `json:"action"`
	ImageURL string `json:"image_url"`
	Headline string `json:"headline"`
	Context  string `json:"context"`
	Content  string `json:"content"`
	Title    string `json:"title"`
}

// SEOSuggestion 为 generate-seo 的结构化结果。
type SEOSuggestion struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// SuggestResult 携带各动作的输出，未用到的字段为空。
type SuggestResult struct {
	Action      string         `json:"action"`
	Text        string         `json:"text,omitempty"`
	Suggestions []string       `json:"suggestions,omitempty"`
	SEO         *SEOSuggestion `json:"seo,omitempty"`
}

// SuggestService 调用外部补全服务生成文案建议。
type SuggestService struct {
	client *aiChatClient
	logger *zap.Logger
}

// NewSuggestService 根据 AI 配置构建服务。未配置 API Key 时
// 每次调用都返回 ErrServiceUnavailable。
func NewSuggestService(cfg config.AIConfig, logger *zap.Logger) *SuggestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SuggestService{
		client: newAIChatClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel),
		logger: logger,
	}
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (s *SuggestService) SetHTTPClient(client httpDoer) {
	s.client.SetHTTPClient(client)
}

// Configured 判断是否配置了 API Key。
func (s *SuggestService) Configured() bool {
	return s.client.configured()
}

// Suggest 校验动作所需的输入，然后请求补全服务。
func (s *SuggestService) Suggest(ctx context.Context, actor auth.Actor, req SuggestRequest) (SuggestResult, error) {
	if !actor.Valid() {
		return SuggestResult{}, ErrUnauthorized
	}

	action := strings.TrimSpace(req.Action)
	var (
		chat aiChatRequest
		err  error
	)
	switch action {
	case SuggestAltText:
		chat, err = altTextRequest(req)
	case SuggestRewriteHeadline:
		chat, err = headlineRequest(req)
	case SuggestGenerateSEO:
		chat, err = seoRequest(req)
	default:
		return SuggestResult{}, validationError("action", "unknown action")
	}
	if err != nil {
		return SuggestResult{}, err
	}

	if !s.client.configured() {
		return SuggestResult{}, fmt.Errorf("%w: ai api key is not configured", ErrServiceUnavailable)
	}

	logAIExchange(s.logger, action, "request", chat.UserPrompt)
	resp, err := s.client.call(ctx, chat)
	if err != nil {
		return SuggestResult{}, errors.Join(ErrUpstream, err)
	}
	logAIExchange(s.logger, action, "response", resp.Content)

	if resp.Content == "" {
		return SuggestResult{}, errors.Join(ErrUpstream, errors.New("completion service returned empty content"))
	}

	result := SuggestResult{Action: action}
	switch action {
	case SuggestAltText:
		result.Text = trimQuotes(resp.Content)
	case SuggestRewriteHeadline:
		result.Suggestions = parseLines(resp.Content)
		if len(result.Suggestions) > 0 {
			result.Text = result.Suggestions[0]
		}
	case SuggestGenerateSEO:
		seo, err := parseSEOSuggestion(resp.Content)
		if err != nil {
			return SuggestResult{}, errors.Join(ErrUpstream, err)
		}
		result.SEO = &seo
	}
	return result, nil
}

func altTextRequest(req SuggestRequest) (aiChatRequest, error) {
	imageURL := strings.TrimSpace(req.ImageURL)
	if imageURL == "" {
		return aiChatRequest{}, validationError("image_url", "is required")
	}
	return aiChatRequest{
		SystemPrompt: "You write concise, descriptive alt text for images on a sales consulting website. Reply with the alt text only, at most 125 characters.",
		UserPrompt:   "Describe this image for screen reader users.",
		ImageURL:     imageURL,
		MaxTokens:    120,
		Temperature:  suggestTemperature,
	}, nil
}

func headlineRequest(req SuggestRequest) (aiChatRequest, error) {
	headline := strings.TrimSpace(req.Headline)
	if headline == "" {
		return aiChatRequest{}, validationError("headline", "is required")
	}

	var builder strings.Builder
	builder.WriteString("Current headline: ")
	builder.WriteString(headline)
	if ctxText := strings.TrimSpace(req.Context); ctxText != "" {
		builder.WriteString("\nContext: ")
		builder.WriteString(truncateSuggestRunes(ctxText, maxSuggestContentRunes))
	}

	return aiChatRequest{
		SystemPrompt: "You are a B2B copywriter for a sales consulting firm. Rewrite the headline into three alternatives, one per line, without numbering or quotes.",
		UserPrompt:   builder.String(),
		MaxTokens:    200,
		Temperature:  0.7,
	}, nil
}

func seoRequest(req SuggestRequest) (aiChatRequest, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return aiChatRequest{}, validationError("content", "is required")
	}
	content, _ = collapseMarkdownImages(content)

	var builder strings.Builder
	if title := strings.TrimSpace(req.Title); title != "" {
		builder.WriteString("Page title: ")
		builder.WriteString(title)
		builder.WriteString("\n")
	}
	builder.WriteString("Page content:\n")
	builder.WriteString(truncateSuggestRunes(content, maxSuggestContentRunes))

	return aiChatRequest{
		SystemPrompt: `You are an SEO specialist. Reply with a JSON object {"title": string up to 60 characters, "description": string up to 160 characters, "keywords": array of up to 8 strings} and nothing else.`,
		UserPrompt:   builder.String(),
		MaxTokens:    400,
		Temperature:  suggestTemperature,
	}, nil
}

// parseSEOSuggestion 接受裸 JSON 对象或包在代码块中的 JSON。
func parseSEOSuggestion(raw string) (SEOSuggestion, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		text = text[start : end+1]
	}

	var seo SEOSuggestion
	if err := json.Unmarshal([]byte(text), &seo); err != nil {
		return SEOSuggestion{}, fmt.Errorf("decode seo suggestion: %w", err)
	}
	seo.Title = strings.TrimSpace(seo.Title)
	seo.Description = strings.TrimSpace(seo.Description)
	keywords := make([]string, 0, len(seo.Keywords))
	for _, keyword := range seo.Keywords {
		if keyword = strings.TrimSpace(keyword); keyword != "" {
			keywords = append(keywords, keyword)
		}
	}
	seo.Keywords = keywords
	return seo, nil
}

var listMarkerPattern = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+`)

func parseLines(raw string) []string {
	lines := make([]string, 0, 3)
	for _, line := range strings.Split(raw, "\n") {
		line = listMarkerPattern.ReplaceAllString(strings.TrimSpace(line), "")
		line = trimQuotes(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func trimQuotes(value string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(value), `"'“”`))
}

func truncateSuggestRunes(value string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(value) <= limit {
		return value
	}
	return string([]rune(value)[:limit])
}
