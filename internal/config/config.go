package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr string
	Port       string
	GinMode    string

	DatabaseDriver string
	DatabaseURL    string

	SessionSecret string
	AuthSecret    string
	SessionTTL    time.Duration
	AdminEmail    string
	AdminPassword string

	RevalidateSecret string

	RedisURL string
	CacheTTL time.Duration

	Storage        StorageConfig
	MaxUploadBytes int64

	AI AIConfig

	LogLevel  string
	LogFormat string
}

// StorageConfig 描述上传图片的存储位置。Endpoint 为空时使用本地目录。
type StorageConfig struct {
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string
	UploadDir      string
	UploadURLPath  string
}

// UsesMinio 判断上传是否写入 S3 兼容的存储桶。
func (s StorageConfig) UsesMinio() bool {
	return strings.TrimSpace(s.MinioEndpoint) != ""
}

// AIConfig 为内容建议所用的补全服务配置。
type AIConfig struct {
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
}

const defaultMaxUploadBytes = 5 << 20

// Load 从 .env 与环境变量读取应用配置，并为缺失项提供安全的默认值。
// 仅在进程启动时调用一次，结果通过构造函数传递给各组件。
func Load() AppConfig {
	// 生产环境没有 .env 属于正常情况
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv 只从当前进程环境变量构造配置。
func FromEnv() AppConfig {
	port := env("PORT", "8080")

	listenAddr := env("LISTEN_ADDR", "")
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	driver := strings.ToLower(env("DATABASE_DRIVER", "sqlite"))
	databaseURL := env("DATABASE_URL", "")
	if databaseURL == "" && driver == "sqlite" {
		databaseURL = "data/site.db"
	}

	return AppConfig{
		ListenAddr: listenAddr,
		Port:       port,
		GinMode:    env("GIN_MODE", "release"),

		DatabaseDriver: driver,
		DatabaseURL:    databaseURL,

		SessionSecret: env("SESSION_SECRET", "salessite-dev-secret"),
		AuthSecret:    env("AUTH_SECRET", ""),
		SessionTTL:    envDuration("SESSION_TTL", 12*time.Hour),
		AdminEmail:    env("ADMIN_EMAIL", ""),
		AdminPassword: env("ADMIN_PASSWORD", ""),

		RevalidateSecret: env("REVALIDATE_SECRET", ""),

		RedisURL: env("REDIS_URL", ""),
		CacheTTL: envDuration("CACHE_TTL", 10*time.Minute),

		Storage: StorageConfig{
			MinioEndpoint:  env("MINIO_ENDPOINT", ""),
			MinioAccessKey: env("MINIO_ACCESS_KEY", ""),
			MinioSecretKey: env("MINIO_SECRET_KEY", ""),
			MinioBucket:    env("MINIO_BUCKET", "site-images"),
			MinioUseSSL:    envBool("MINIO_USE_SSL", true),
			MinioPublicURL: strings.TrimRight(env("MINIO_PUBLIC_URL", ""), "/"),
			UploadDir:      env("UPLOAD_DIR", "web/static/uploads"),
			UploadURLPath:  strings.TrimRight(env("UPLOAD_URL_PATH", "/static/uploads"), "/"),
		},
		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", defaultMaxUploadBytes),

		AI: AIConfig{
			OpenAIAPIKey:  env("OPENAI_API_KEY", ""),
			OpenAIBaseURL: strings.TrimRight(env("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
			OpenAIModel:   env("OPENAI_MODEL", "gpt-4o-mini"),
		},

		LogLevel:  strings.ToLower(env("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(env("LOG_FORMAT", "json")),
	}
}

func env(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envInt64(key string, fallback int64) int64 {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
