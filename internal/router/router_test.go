package router

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/atelier/internal/db"
	"github.com/atelier/internal/handler"
	"github.com/atelier/internal/site"
	"github.com/atelier/internal/storage"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var routerDBCounter atomic.Int64

func newTestRouter(t *testing.T, opts Options) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router-%d?mode=memory&cache=shared", routerDBCounter.Add(1))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	renderer, err := site.NewRenderer(site.Options{})
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	api := handler.NewAPI(handler.Deps{DB: gdb, Bucket: storage.NewMemoryBucket(), Renderer: renderer})
	if opts.SessionSecret == "" {
		opts.SessionSecret = "test-secret"
	}
	return SetupRouter(api, opts)
}

func TestSetupRouterPublicAndProtectedRoutes(t *testing.T) {
	r := newTestRouter(t, Options{})

	cases := []struct {
		method string
		path   string
		status int
	}{
		{method: http.MethodGet, path: "/health", status: http.StatusOK},
		{method: http.MethodGet, path: "/api/galleries", status: http.StatusOK},
		{method: http.MethodGet, path: "/api/artworks", status: http.StatusOK},
		{method: http.MethodGet, path: "/api/theme", status: http.StatusOK},
		{method: http.MethodGet, path: "/api/publish/data/paintings", status: http.StatusNotFound},
		{method: http.MethodGet, path: "/admin/api/me", status: http.StatusUnauthorized},
		{method: http.MethodPost, path: "/admin/api/publish", status: http.StatusUnauthorized},
		{method: http.MethodGet, path: "/admin/api/publish/pending", status: http.StatusUnauthorized},
		{method: http.MethodPost, path: "/admin/api/publish/discard", status: http.StatusUnauthorized},
		{method: http.MethodPut, path: "/admin/api/site-content/about", status: http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			if rr.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rr.Code)
			}
		})
	}
}

func TestSetupRouterAllowsConfiguredOrigin(t *testing.T) {
	r := newTestRouter(t, Options{CORSOrigins: []string{"https://admin.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/admin/api/login", nil)
	req.Header.Set("Origin", "https://admin.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://admin.example" {
		t.Fatalf("unexpected allow origin %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("credentials should be allowed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("unknown origin should be rejected, got %d", rr.Code)
	}
}
