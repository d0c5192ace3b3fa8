package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/atelier/internal/db"
	"github.com/atelier/internal/lock"
	"github.com/atelier/internal/site"
	"github.com/atelier/internal/storage"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testUsername = "admin"
	testPassword = "Correct-Horse-42"
)

var handlerDBCounter atomic.Int64

type testEnv struct {
	db     *gorm.DB
	api    *API
	engine *gin.Engine
	bucket storage.Bucket
	locker lock.Locker
	cookie []*http.Cookie
}

type envOption func(*Deps)

func withBucket(bucket storage.Bucket) envOption {
	return func(d *Deps) { d.Bucket = bucket }
}

func withLogger(logger *slog.Logger) envOption {
	return func(d *Deps) { d.Logger = logger }
}

func withLoginRate(perMinute int) envOption {
	return func(d *Deps) { d.LoginRatePerMinute = perMinute }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", handlerDBCounter.Add(1))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.SeedThemeDefaults(gdb); err != nil {
		t.Fatalf("seed theme: %v", err)
	}
	if err := db.EnsureUser(gdb, testUsername, testPassword); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	renderer, err := site.NewRenderer(site.Options{SiteName: "Atelier", BaseURL: "https://atelier.example", ImageBaseURL: "/images"})
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	deps := Deps{
		DB:       gdb,
		Bucket:   storage.NewMemoryBucket(),
		Locker:   lock.NewLocalLocker(),
		Renderer: renderer,
		LockTTL:  time.Minute,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	api := NewAPI(deps)
	return &testEnv{db: gdb, api: api, engine: newTestEngine(api), bucket: deps.Bucket, locker: deps.Locker}
}

func newTestEngine(api *API) *gin.Engine {
	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))

	r.GET("/health", api.Health)
	r.GET("/api/publish/data/:type", api.PublishedData)
	r.GET("/api/galleries", api.ListVisibleGalleries)
	r.GET("/api/galleries/:id", api.GetVisibleGallery)
	r.GET("/api/artworks", api.ListPublicArtworks)

	r.POST("/admin/api/login", api.Login)
	auth := r.Group("/admin/api", AuthRequired())
	auth.GET("/me", api.Me)
	auth.POST("/publish", api.Publish)
	auth.GET("/publish/pending", api.PendingChanges)
	auth.POST("/publish/discard", api.Discard)
	auth.GET("/publish/history", api.PublishHistory)
	auth.POST("/artworks", api.CreateArtwork)
	auth.DELETE("/artworks/:id", api.DeleteArtwork)
	auth.POST("/galleries", api.CreateGallery)
	auth.PUT("/galleries/:id", api.UpdateGallery)
	auth.DELETE("/galleries/:id", api.DeleteGallery)
	auth.POST("/galleries/:id/items", api.AddGalleryItem)
	auth.POST("/theme", api.UpdateTheme)
	auth.GET("/site-content/:name", api.GetSiteContent)
	auth.PUT("/site-content/:name", api.PutSiteContent)
	auth.GET("/social-icons", api.SocialIconOptions)
	return r
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range e.cookie {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	e.engine.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/admin/api/login", map[string]string{"username": testUsername, "password": testPassword})
	if rr.Code != http.StatusOK {
		t.Fatalf("login status %d: %s", rr.Code, rr.Body.String())
	}
	e.cookie = rr.Result().Cookies()
	if len(e.cookie) == 0 {
		t.Fatalf("login did not set a session cookie")
	}
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return body
}

// failingBucket 在每次上传时返回错误。
type failingBucket struct {
	*storage.MemoryBucket
}

func (failingBucket) Put(context.Context, string, []byte, string) error {
	return errors.New("s3: AccessDenied for key site/cs/index.html")
}
