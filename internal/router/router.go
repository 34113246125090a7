package router

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/salessite/internal/handler"
	"github.com/salessite/internal/logging"
	"go.uber.org/zap"
)

const sessionName = "salessite_session"

// Options 汇总路由层需要的配置。
type Options struct {
	SessionSecret string
	SessionMaxAge int
	// UploadDir 非空时以 UploadURLPath 暴露本地上传目录
	UploadDir     string
	UploadURLPath string
	Logger        *zap.Logger
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(logging.GinMiddleware(logger), logging.Recovery(logger))

	// 配置会话中间件
	secret := opts.SessionSecret
	if secret == "" {
		secret = "salessite-dev-secret"
	}
	store := cookie.NewStore([]byte(secret))
	maxAge := opts.SessionMaxAge
	if maxAge <= 0 {
		maxAge = 12 * 60 * 60
	}
	store.Options(sessions.Options{Path: "/", MaxAge: maxAge, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions(sessionName, store))

	if opts.UploadDir != "" {
		urlPath := strings.TrimRight(opts.UploadURLPath, "/")
		if urlPath == "" {
			urlPath = "/static/uploads"
		}
		r.Static(urlPath, opts.UploadDir)
	}

	r.GET("/healthz", api.Healthz)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/pages/:page", api.GetPage)
		apiGroup.GET("/content/:section", api.GetContent)
		apiGroup.POST("/revalidate", api.Revalidate)

		authGroup := apiGroup.Group("/auth")
		authGroup.POST("/login", api.Login)
		authGroup.POST("/logout", api.Logout)
		authGroup.GET("/me", api.AuthRequired(), api.CurrentUser)

		apiGroup.POST("/ai/suggest", api.AuthRequired(), api.Suggest)

		cms := apiGroup.Group("/cms")
		{
			// 公开读取
			cms.GET("/section/:section", api.GetSection)
			cms.GET("/order/sections", api.GetSectionOrder)
			for _, col := range api.Collections() {
				name := col.Descriptor().Name
				cms.GET("/"+name, api.ListCollection(col))
				cms.GET("/"+name+"/:id", api.GetCollectionItem(col))
			}

			// 需要认证的写操作
			editor := cms.Group("")
			editor.Use(api.AuthRequired())
			{
				editor.PUT("/section/:section", api.UpdateSection)
				editor.POST("/order/blocks", api.ReorderBlocks)
				editor.POST("/order/sections", api.UpdateSectionOrder)
				editor.POST("/upload", api.UploadImage)
				for _, col := range api.Collections() {
					name := col.Descriptor().Name
					editor.POST("/"+name, api.CreateCollectionItem(col))
					editor.PUT("/"+name+"/:id", api.UpdateCollectionItem(col))
					editor.DELETE("/"+name+"/:id", api.DeleteCollectionItem(col))
				}
			}
		}
	}

	return r
}
