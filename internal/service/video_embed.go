package service

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// VideoEmbed 为从视频链接推导出的播放器地址。
type VideoEmbed struct {
	Platform string
	Source   string
	EmbedURL string
}

var (
	videoEmbedTimePattern = regexp.MustCompile(`(?i)(\d+)(h|m|s)`) // for YouTube t=1h2m3s
	vimeoIDPattern        = regexp.MustCompile(`^\d+$`)
	loomIDPattern         = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
)

// ParseVideoEmbed 识别 YouTube、Vimeo 与 Loom 链接。
func ParseVideoEmbed(raw string) (VideoEmbed, bool) {
	trimmed := normalizeVideoURL(strings.TrimSpace(raw))
	if trimmed == "" {
		return VideoEmbed{}, false
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed == nil {
		return VideoEmbed{}, false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return VideoEmbed{}, false
	}
	if parsed.Hostname() == "" {
		return VideoEmbed{}, false
	}

	if embed, ok := parseYouTubeEmbed(parsed, trimmed); ok {
		return embed, true
	}
	if embed, ok := parseVimeoEmbed(parsed, trimmed); ok {
		return embed, true
	}
	if embed, ok := parseLoomEmbed(parsed, trimmed); ok {
		return embed, true
	}
	return VideoEmbed{}, false
}

func normalizeVideoURL(raw string) string {
	if raw == "" {
		return raw
	}
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return raw
	}
	knownPrefixes := []string{
		"youtube.com/",
		"www.youtube.com/",
		"youtu.be/",
		"vimeo.com/",
		"player.vimeo.com/",
		"loom.com/",
		"www.loom.com/",
	}
	for _, prefix := range knownPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return "https://" + raw
		}
	}
	return raw
}

func parseYouTubeEmbed(u *url.URL, source string) (VideoEmbed, bool) {
	host := strings.ToLower(u.Hostname())
	var videoID string

	switch {
	case host == "youtu.be":
		videoID = strings.Trim(strings.TrimPrefix(u.Path, "/"), "/")
	case isHostOrSubdomain(host, "youtube.com") || isHostOrSubdomain(host, "youtube-nocookie.com"):
		path := strings.Trim(u.Path, "/")
		switch {
		case path == "watch":
			videoID = u.Query().Get("v")
		case strings.HasPrefix(path, "shorts/"):
			videoID = strings.TrimPrefix(path, "shorts/")
		case strings.HasPrefix(path, "embed/"):
			videoID = strings.TrimPrefix(path, "embed/")
		case strings.HasPrefix(path, "live/"):
			videoID = strings.TrimPrefix(path, "live/")
		}
	default:
		return VideoEmbed{}, false
	}

	if strings.Contains(videoID, "/") {
		videoID = strings.Split(videoID, "/")[0]
	}
	if videoID == "" {
		return VideoEmbed{}, false
	}

	embedValues := url.Values{}
	embedValues.Set("rel", "0")
	embedValues.Set("modestbranding", "1")
	embedValues.Set("playsinline", "1")
	if start := parseYouTubeStart(u); start > 0 {
		embedValues.Set("start", strconv.Itoa(start))
	}

	return VideoEmbed{
		Platform: "youtube",
		Source:   source,
		EmbedURL: fmt.Sprintf("https://www.youtube-nocookie.com/embed/%s?%s", videoID, embedValues.Encode()),
	}, true
}

func parseYouTubeStart(u *url.URL) int {
	query := u.Query()
	if value := query.Get("start"); value != "" {
		return parseYouTubeTime(value)
	}
	if value := query.Get("t"); value != "" {
		return parseYouTubeTime(value)
	}
	return 0
}

func parseYouTubeTime(value string) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0
	}
	if onlyDigits(trimmed) {
		seconds, err := strconv.Atoi(trimmed)
		if err == nil && seconds > 0 {
			return seconds
		}
		return 0
	}

	total := 0
	for _, match := range videoEmbedTimePattern.FindAllStringSubmatch(trimmed, -1) {
		value, err := strconv.Atoi(match[1])
		if err != nil || value <= 0 {
			continue
		}
		switch strings.ToLower(match[2]) {
		case "h":
			total += value * 3600
		case "m":
			total += value * 60
		case "s":
			total += value
		}
	}
	return total
}

func parseVimeoEmbed(u *url.URL, source string) (VideoEmbed, bool) {
	host := strings.ToLower(u.Hostname())
	if !isHostOrSubdomain(host, "vimeo.com") {
		return VideoEmbed{}, false
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	videoID := ""
	for _, segment := range segments {
		if vimeoIDPattern.MatchString(segment) {
			videoID = segment
			break
		}
	}
	if videoID == "" {
		return VideoEmbed{}, false
	}

	return VideoEmbed{
		Platform: "vimeo",
		Source:   source,
		EmbedURL: "https://player.vimeo.com/video/" + videoID + "?dnt=1",
	}, true
}

func parseLoomEmbed(u *url.URL, source string) (VideoEmbed, bool) {
	host := strings.ToLower(u.Hostname())
	if !isHostOrSubdomain(host, "loom.com") {
		return VideoEmbed{}, false
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 || (segments[0] != "share" && segments[0] != "embed") {
		return VideoEmbed{}, false
	}
	if !loomIDPattern.MatchString(segments[1]) {
		return VideoEmbed{}, false
	}

	return VideoEmbed{
		Platform: "loom",
		Source:   source,
		EmbedURL: "https://www.loom.com/embed/" + segments[1],
	}, true
}

func onlyDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return value != ""
}

func isHostOrSubdomain(host, domain string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	domain = strings.ToLower(strings.TrimSpace(domain))
	if host == "" || domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}
