package handler

import (
	"github.com/salessite/internal/auth"
	"github.com/salessite/internal/cache"
	"github.com/salessite/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps 为 HTTP 层依赖的协作组件。
type Deps struct {
	DB               *gorm.DB
	Content          *service.ContentService
	Collections      *service.Collections
	Uploads          *service.UploadService
	Suggest          *service.SuggestService
	Auth             *auth.Provider
	Cache            cache.Store
	Logger           *zap.Logger
	RevalidateSecret string
}

// API 汇总 HTTP 处理器共享的依赖。
type API struct {
	db               *gorm.DB
	content          *service.ContentService
	collections      *service.Collections
	uploads          *service.UploadService
	suggest          *service.SuggestService
	auth             *auth.Provider
	cache            cache.Store
	logger           *zap.Logger
	revalidateSecret string
}

// NewAPI 构造处理器集合，缺省的服务由 DB 与 Cache 构建。
func NewAPI(deps Deps) *API {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	store := deps.Cache
	if store == nil {
		store = cache.NewMemoryStore(0)
	}

	content := deps.Content
	if content == nil {
		content = service.NewContentService(deps.DB, store, logger)
	}
	collections := deps.Collections
	if collections == nil {
		collections = service.NewCollections(deps.DB, store, logger)
	}
	uploads := deps.Uploads
	if uploads == nil {
		uploads = service.NewUploadService(nil, 0)
	}
	authProvider := deps.Auth
	if authProvider == nil {
		authProvider = auth.NewProvider(deps.DB, "", 0)
	}

	return &API{
		db:               deps.DB,
		content:          content,
		collections:      collections,
		uploads:          uploads,
		suggest:          deps.Suggest,
		auth:             authProvider,
		cache:            store,
		logger:           logger,
		revalidateSecret: deps.RevalidateSecret,
	}
}

// Collections 暴露各集合，供路由为每个实体注册一组路由。
func (a *API) Collections() []service.Accessor {
	return a.collections.All()
}
