package router

import (
	"net/http"
	"time"

	"github.com/atelier/internal/handler"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionName = "atelier_session"

// Options 控制会话与跨域设置。
type Options struct {
	SessionSecret string
	CORSOrigins   []string
	SecureCookie  bool
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// 后台界面部署在独立域名时需要带凭据的跨域请求
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// 配置会话中间件
	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int((7 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	r.GET("/health", api.Health)

	public := r.Group("/api")
	{
		public.GET("/publish/data/:type", api.PublishedData)
		public.GET("/galleries", api.ListVisibleGalleries)
		public.GET("/galleries/:id", api.GetVisibleGallery)
		public.GET("/artworks", api.ListPublicArtworks)
		public.GET("/theme", api.ListTheme)
	}

	// 后台管理路由
	admin := r.Group("/admin/api")
	{
		admin.POST("/login", api.Login)
		admin.POST("/logout", api.Logout)

		// 需要认证的后台路由
		auth := admin.Group("")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("/me", api.Me)
			auth.POST("/password", api.ChangePassword)

			auth.POST("/publish", api.Publish)
			auth.GET("/publish/pending", api.PendingChanges)
			auth.POST("/publish/discard", api.Discard)
			auth.GET("/publish/history", api.PublishHistory)

			auth.GET("/artworks", api.ListArtworks)
			auth.GET("/artworks/:id", api.GetArtwork)
			auth.POST("/artworks", api.CreateArtwork)
			auth.PUT("/artworks/:id", api.UpdateArtwork)
			auth.DELETE("/artworks/:id", api.DeleteArtwork)

			auth.GET("/galleries", api.ListGalleries)
			auth.GET("/galleries/:id", api.GetGallery)
			auth.POST("/galleries", api.CreateGallery)
			auth.PUT("/galleries/:id", api.UpdateGallery)
			auth.DELETE("/galleries/:id", api.DeleteGallery)
			auth.POST("/galleries/:id/items", api.AddGalleryItem)
			auth.DELETE("/galleries/:id/items", api.RemoveGalleryItem)
			auth.DELETE("/galleries/:id/items/:artworkId", api.RemoveGalleryItem)
			auth.POST("/galleries/:id/reorder", api.ReorderGallery)

			auth.GET("/theme", api.ListTheme)
			auth.POST("/theme", api.UpdateTheme)

			auth.GET("/site-content/:name", api.GetSiteContent)
			auth.PUT("/site-content/:name", api.PutSiteContent)
			auth.GET("/social-icons", api.SocialIconOptions)
		}
	}

	return r
}
