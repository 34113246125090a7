package router

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/salessite/internal/db"
	"github.com/salessite/internal/handler"
)

func setupTestRouter(t *testing.T, uploadDir string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := db.Open(db.DriverSQLite, "file:router-"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	api := handler.NewAPI(handler.Deps{DB: gdb})
	return SetupRouter(api, Options{SessionSecret: "test-secret", UploadDir: uploadDir, UploadURLPath: "/static/uploads/"})
}

func TestSetupRouterServesUploads(t *testing.T) {
	uploadDir := t.TempDir()
	fileName := "example.txt"
	fileContent := []byte("hello uploads")
	if err := os.WriteFile(filepath.Join(uploadDir, fileName), fileContent, 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	r := setupTestRouter(t, uploadDir)

	req := httptest.NewRequest(http.MethodGet, "/static/uploads/"+fileName, nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if rr.Body.String() != string(fileContent) {
		t.Fatalf("unexpected body, got %q", rr.Body.String())
	}
}

func TestSetupRouterRegistersCollectionRoutes(t *testing.T) {
	r := setupTestRouter(t, "")

	registered := map[string]bool{}
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	for _, name := range []string{"testimonials", "faqs", "videos", "services", "process_steps", "categories"} {
		for _, route := range []string{
			"GET /api/cms/" + name,
			"GET /api/cms/" + name + "/:id",
			"POST /api/cms/" + name,
			"PUT /api/cms/" + name + "/:id",
			"DELETE /api/cms/" + name + "/:id",
		} {
			if !registered[route] {
				t.Fatalf("expected route %s", route)
			}
		}
	}
}

func TestWritesRequireConfiguredAuth(t *testing.T) {
	r := setupTestRouter(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/cms/services", strings.NewReader(`{"title":"Audit"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without auth secret, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/cms/services", nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected public read to succeed, got %d", rr.Code)
	}
}
