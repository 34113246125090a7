package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/salessite/internal/auth"
	"github.com/salessite/internal/cache"
	"github.com/salessite/internal/db"
	"github.com/salessite/internal/service"
	"gorm.io/gorm"
)

const (
	testEmail    = "editor@example.com"
	testPassword = "correct horse"
)

type testServer struct {
	engine *gin.Engine
	api    *API
	db     *gorm.DB
	cache  *cache.MemoryStore
	store  *memoryObjectStore
	token  string
}

type memoryObjectStore struct {
	objects map[string][]byte
}

func (s *memoryObjectStore) Put(_ context.Context, objectPath string, body io.Reader, _ int64, _ string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.objects[objectPath] = data
	return "/static/uploads/" + objectPath, nil
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := db.Open(db.DriverSQLite, "file:handler-"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	if _, err := db.EnsureUser(gdb, testEmail, testPassword); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	store := cache.NewMemoryStore(time.Minute)
	objects := &memoryObjectStore{objects: map[string][]byte{}}
	provider := auth.NewProvider(gdb, "test-secret", time.Hour)

	api := NewAPI(Deps{
		DB:               gdb,
		Uploads:          service.NewUploadService(objects, service.DefaultMaxUploadBytes),
		Auth:             provider,
		Cache:            store,
		RevalidateSecret: "hook-secret",
	})

	session, err := provider.Login(context.Background(), testEmail, testPassword)
	if err != nil {
		t.Fatalf("failed to login: %v", err)
	}

	return &testServer{
		engine: newTestEngine(api),
		api:    api,
		db:     gdb,
		cache:  store,
		store:  objects,
		token:  session.Token,
	}
}

func newTestEngine(api *API) *gin.Engine {
	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test"))))

	r.GET("/healthz", api.Healthz)
	r.GET("/api/pages/:page", api.GetPage)
	r.GET("/api/content/:section", api.GetContent)
	r.POST("/api/revalidate", api.Revalidate)
	r.POST("/api/auth/login", api.Login)
	r.POST("/api/auth/logout", api.Logout)
	r.GET("/api/auth/me", api.AuthRequired(), api.CurrentUser)
	r.POST("/api/ai/suggest", api.AuthRequired(), api.Suggest)

	cms := r.Group("/api/cms")
	cms.GET("/section/:section", api.GetSection)
	cms.GET("/order/sections", api.GetSectionOrder)
	editor := cms.Group("", api.AuthRequired())
	editor.PUT("/section/:section", api.UpdateSection)
	editor.POST("/order/blocks", api.ReorderBlocks)
	editor.POST("/order/sections", api.UpdateSectionOrder)
	editor.POST("/upload", api.UploadImage)
	for _, col := range api.Collections() {
		name := col.Descriptor().Name
		cms.GET("/"+name, api.ListCollection(col))
		cms.GET("/"+name+"/:id", api.GetCollectionItem(col))
		editor.POST("/"+name, api.CreateCollectionItem(col))
		editor.PUT("/"+name+"/:id", api.UpdateCollectionItem(col))
		editor.DELETE("/"+name+"/:id", api.DeleteCollectionItem(col))
	}
	return r
}

func (s *testServer) do(t *testing.T, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	rr := httptest.NewRecorder()
	s.engine.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return body
}
