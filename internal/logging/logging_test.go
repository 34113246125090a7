package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("chatty", "json"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	logger, err := New("debug", "console")
	if err != nil {
		t.Fatalf("build console logger: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("expected debug level to be enabled")
	}
}

func TestGinMiddlewareLogsByStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	r := gin.New()
	r.Use(GinMiddleware(logger), Recovery(logger))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	for _, path := range []string{"/ok", "/missing", "/boom"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if path == "/boom" && rr.Code != http.StatusInternalServerError {
			t.Fatalf("expected recovered panic to answer 500, got %d", rr.Code)
		}
	}

	levels := map[string]zapcore.Level{}
	for _, entry := range logs.FilterMessage("request").All() {
		levels[entry.ContextMap()["path"].(string)] = entry.Level
	}
	if levels["/ok"] != zapcore.InfoLevel || levels["/missing"] != zapcore.WarnLevel || levels["/boom"] != zapcore.ErrorLevel {
		t.Fatalf("unexpected levels %v", levels)
	}
	if logs.FilterMessage("panic recovered").Len() != 1 {
		t.Fatal("expected panic to be logged")
	}
}
