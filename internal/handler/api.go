package handler

import (
	"log/slog"
	"time"

	"github.com/atelier/internal/lock"
	"github.com/atelier/internal/service"
	"github.com/atelier/internal/site"
	"github.com/atelier/internal/storage"
	"gorm.io/gorm"
)

// Deps 是构造处理器所需的外部依赖。
type Deps struct {
	DB                 *gorm.DB
	Bucket             storage.Bucket
	Locker             lock.Locker
	Renderer           *site.Renderer
	LockTTL            time.Duration
	LoginRatePerMinute int
	Logger             *slog.Logger
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	artworks  *service.ArtworkService
	galleries *service.GalleryService
	theme     *service.ThemeService
	content   *service.SiteContentService
	pending   *service.PendingService
	discard   *service.DiscardService
	publish   *service.PublishService
	auth      *service.AuthService
	limiter   *service.LoginLimiter
	logger    *slog.Logger
}

// NewAPI constructs a handler set with shared services.
func NewAPI(deps Deps) *API {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := deps.LockTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	locker := deps.Locker
	if locker == nil {
		locker = lock.NewLocalLocker()
	}

	return &API{
		db:        deps.DB,
		artworks:  service.NewArtworkService(deps.DB),
		galleries: service.NewGalleryService(deps.DB),
		theme:     service.NewThemeService(deps.DB),
		content:   service.NewSiteContentService(deps.DB),
		pending:   service.NewPendingService(deps.DB),
		discard:   service.NewDiscardService(deps.DB, locker, ttl, logger),
		publish:   service.NewPublishService(deps.DB, deps.Renderer, deps.Bucket, locker, ttl, logger),
		auth:      service.NewAuthService(deps.DB),
		limiter:   service.NewLoginLimiter(deps.LoginRatePerMinute),
		logger:    logger,
	}
}
