package service

import (
	"regexp"
	"strings"
)

var markdownImagePattern = regexp.MustCompile(`!\[([^\]]*)]\((<[^>]+>|[^)\s]+)([^)]*)\)`)

// collapseMarkdownImages 将 Markdown 图片替换为 alt 文本占位，避免长链接占用 Prompt 的 Token。
// 返回被替换的图片数量。
func collapseMarkdownImages(input string) (string, int) {
	count := 0
	output := markdownImagePattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := markdownImagePattern.FindStringSubmatch(match)
		count++
		alt := strings.TrimSpace(groups[1])
		if alt == "" {
			return "[image]"
		}
		return "[image: " + alt + "]"
	})
	return output, count
}
