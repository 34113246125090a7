package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/salessite/internal/auth"
	"github.com/salessite/internal/cache"
	"github.com/salessite/internal/db"
	"github.com/salessite/internal/handler"
	"github.com/salessite/internal/router"
	"github.com/salessite/internal/service"
	"github.com/salessite/internal/storage"
)

type e2eSuite struct {
	handler   http.Handler
	public    httpClient
	admin     httpClient
	baseURL   string
	uploadDir string
	email     string
	password  string
}

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type localClient struct {
	handler http.Handler
	jar     http.CookieJar
}

func newLocalClient(handler http.Handler, withJar bool) *localClient {
	var jar http.CookieJar
	if withJar {
		if j, err := cookiejar.New(nil); err == nil {
			jar = j
		}
	}
	return &localClient{handler: handler, jar: jar}
}

func (c *localClient) Do(req *http.Request) (*http.Response, error) {
	if c.jar != nil {
		for _, cookie := range c.jar.Cookies(req.URL) {
			req.AddCookie(cookie)
		}
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	resp := w.Result()
	if c.jar != nil {
		c.jar.SetCookies(req.URL, resp.Cookies())
	}
	return resp, nil
}

func TestE2E_AllInterfaces(t *testing.T) {
	suite := newE2ESuite(t)

	t.Run("public endpoints", suite.testPublicEndpoints)
	t.Run("writes need a session", suite.testAnonymousWritesRejected)
	suite.login(t)
	t.Run("editor apis", suite.testEditorAPIs)
	t.Run("logout", suite.testLogout)
}

func newE2ESuite(t *testing.T) *e2eSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := db.Open(db.DriverSQLite, "file:e2e?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	email, password := "admin@example.com", "e2e-secret"
	if _, err := db.EnsureUser(gdb, email, password); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	uploadDir := t.TempDir()
	store := cache.NewMemoryStore(time.Minute)
	api := handler.NewAPI(handler.Deps{
		DB:               gdb,
		Uploads:          service.NewUploadService(storage.NewLocalStore(uploadDir, "/static/uploads"), 0),
		Auth:             auth.NewProvider(gdb, "e2e-auth-secret", time.Hour),
		Cache:            store,
		RevalidateSecret: "e2e-hook",
	})
	engine := router.SetupRouter(api, router.Options{
		SessionSecret: "test-session-secret",
		UploadDir:     uploadDir,
		UploadURLPath: "/static/uploads",
	})

	return &e2eSuite{
		handler:   engine,
		public:    newLocalClient(engine, false),
		admin:     newLocalClient(engine, true),
		baseURL:   "http://example.test",
		uploadDir: uploadDir,
		email:     email,
		password:  password,
	}
}

func (s *e2eSuite) login(t *testing.T) {
	t.Helper()
	resp := s.mustRequestJSON(t, s.admin, http.MethodPost, "/api/auth/login", map[string]interface{}{
		"email":    s.email,
		"password": s.password,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed, status %d", resp.StatusCode)
	}
}

func (s *e2eSuite) testPublicEndpoints(t *testing.T) {
	check := func(name, path, expect string, code int) {
		t.Helper()
		resp := s.mustRequest(t, s.public, http.MethodGet, path, nil, nil)
		defer resp.Body.Close()
		if resp.StatusCode != code {
			t.Fatalf("%s: expected status %d, got %d", name, code, resp.StatusCode)
		}
		body := readBody(t, resp)
		if expect != "" && !strings.Contains(body, expect) {
			t.Fatalf("%s: response does not contain %q: %s", name, expect, body)
		}
	}

	check("healthz", "/healthz", `"database":"ok"`, http.StatusOK)
	check("homepage", "/api/pages/homepage", `"hero"`, http.StatusOK)
	check("unknown page", "/api/pages/blog", "", http.StatusNotFound)
	check("content", "/api/content/footer", `"content"`, http.StatusOK)
	check("unset section", "/api/cms/section/hero", `"content":{}`, http.StatusOK)
	check("empty collection", "/api/cms/videos", `"videos":[]`, http.StatusOK)
	check("missing row", "/api/cms/videos/nope", "", http.StatusNotFound)
	check("default layout", "/api/cms/order/sections?page=faq", `"custom":false`, http.StatusOK)
}

func (s *e2eSuite) testAnonymousWritesRejected(t *testing.T) {
	resp := s.mustRequestJSON(t, s.public, http.MethodPost, "/api/cms/faqs", map[string]interface{}{"question": "Q", "answer": "A"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	resp = s.mustRequestJSON(t, s.public, http.MethodPut, "/api/cms/section/hero", map[string]interface{}{"content": map[string]interface{}{"headline": "x"}})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 on section write, got %d", resp.StatusCode)
	}

	resp = s.mustRequest(t, s.public, http.MethodGet, "/api/cms/section/hero", nil, nil)
	defer resp.Body.Close()
	if body := readBody(t, resp); !strings.Contains(body, `"content":{}`) {
		t.Fatalf("rejected write must not change the section: %s", body)
	}
}

func (s *e2eSuite) testEditorAPIs(t *testing.T) {
	// FAQ 生命周期
	resp := s.mustRequestJSON(t, s.admin, http.MethodPost, "/api/cms/faqs", map[string]interface{}{
		"question": "Q1", "answer": "A1", "page": "homepage", "display_order": 0,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create faq expected 201, got %d", resp.StatusCode)
	}
	var created struct {
		Success bool       `json:"success"`
		FAQ     db.FAQItem `json:"faq"`
	}
	decodeJSON(t, resp, &created)
	if !created.Success || created.FAQ.ID == "" {
		t.Fatalf("unexpected create response %+v", created)
	}

	resp = s.mustRequest(t, s.public, http.MethodGet, "/api/cms/faqs?page=homepage", nil, nil)
	defer resp.Body.Close()
	var listed struct {
		FAQs []db.FAQItem `json:"faqs"`
	}
	decodeJSON(t, resp, &listed)
	if len(listed.FAQs) != 1 || listed.FAQs[0].ID != created.FAQ.ID {
		t.Fatalf("expected the new faq in the list, got %+v", listed.FAQs)
	}

	resp = s.mustRequest(t, s.admin, http.MethodDelete, "/api/cms/faqs/"+created.FAQ.ID, nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete faq expected 200, got %d", resp.StatusCode)
	}
	resp = s.mustRequest(t, s.public, http.MethodGet, "/api/cms/faqs?page=homepage", nil, nil)
	defer resp.Body.Close()
	decodeJSON(t, resp, &listed)
	if len(listed.FAQs) != 0 {
		t.Fatalf("expected faq to be gone, got %+v", listed.FAQs)
	}

	// 区块写入与页面渲染
	resp = s.mustRequestJSON(t, s.admin, http.MethodPut, "/api/cms/section/hero", map[string]interface{}{
		"content": map[string]interface{}{"headline": "Sell with a system"},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("section write expected 200, got %d", resp.StatusCode)
	}

	resp = s.mustRequestJSON(t, s.admin, http.MethodPost, "/api/cms/order/sections", map[string]interface{}{
		"page": "homepage", "sections": []string{"hero", "about"},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("layout write expected 200, got %d", resp.StatusCode)
	}

	resp = s.mustRequest(t, s.public, http.MethodGet, "/api/pages/homepage", nil, nil)
	defer resp.Body.Close()
	var page struct {
		Layout   []string                          `json:"layout"`
		Sections map[string]map[string]interface{} `json:"sections"`
	}
	decodeJSON(t, resp, &page)
	if len(page.Layout) != 2 || page.Sections["hero"]["headline"] != "Sell with a system" {
		t.Fatalf("expected page to reflect edits, got %+v", page)
	}

	// 排序
	ids := make([]string, 0, 2)
	for _, title := range []string{"Audit", "Coaching"} {
		resp = s.mustRequestJSON(t, s.admin, http.MethodPost, "/api/cms/services", map[string]interface{}{"title": title})
		var svc struct {
			Service db.Service `json:"service"`
		}
		decodeJSON(t, resp, &svc)
		resp.Body.Close()
		ids = append(ids, svc.Service.ID)
	}
	resp = s.mustRequestJSON(t, s.admin, http.MethodPost, "/api/cms/order/blocks", map[string]interface{}{
		"type":  "services",
		"items": []map[string]interface{}{{"id": ids[0], "display_order": 2}, {"id": ids[1], "display_order": 1}},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reorder expected 200, got %d", resp.StatusCode)
	}
	resp = s.mustRequest(t, s.public, http.MethodGet, "/api/cms/services", nil, nil)
	defer resp.Body.Close()
	var services struct {
		Services []db.Service `json:"services"`
	}
	decodeJSON(t, resp, &services)
	if len(services.Services) != 2 || services.Services[0].ID != ids[1] {
		t.Fatalf("expected reordered services, got %+v", services.Services)
	}

	// 上传
	resp = s.uploadTestImage(t)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
	var uploaded struct {
		URL  string `json:"url"`
		Path string `json:"path"`
	}
	decodeJSON(t, resp, &uploaded)
	resp = s.mustRequest(t, s.public, http.MethodGet, uploaded.URL, nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("uploaded file should be served, got %d for %s", resp.StatusCode, uploaded.URL)
	}

	// 缓存清理
	resp = s.mustRequest(t, s.public, http.MethodPost, "/api/revalidate", nil, map[string]string{"x-revalidate-secret": "e2e-hook"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("revalidate expected 200, got %d", resp.StatusCode)
	}

	// 未配置 AI Key
	resp = s.mustRequestJSON(t, s.admin, http.MethodPost, "/api/ai/suggest", map[string]interface{}{"action": "rewrite-headline", "headline": "Sell more"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("suggest without key expected 503, got %d", resp.StatusCode)
	}
}

func (s *e2eSuite) testLogout(t *testing.T) {
	resp := s.mustRequest(t, s.admin, http.MethodPost, "/api/auth/logout", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout expected 200, got %d", resp.StatusCode)
	}

	resp = s.mustRequest(t, s.admin, http.MethodGet, "/api/auth/me", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", resp.StatusCode)
	}
}

func (s *e2eSuite) uploadTestImage(t *testing.T) *http.Response {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 20, B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, "file", "test.png"))
	partHeader.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(partHeader)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(buf.Bytes()); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	if err := writer.WriteField("folder", "testimonials"); err != nil {
		t.Fatalf("failed to write folder: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	headers := map[string]string{
		"Content-Type": writer.FormDataContentType(),
	}
	return s.mustRequest(t, s.admin, http.MethodPost, "/api/cms/upload", body, headers)
}

func (s *e2eSuite) mustRequest(t *testing.T, client httpClient, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, s.baseURL+path, body)
	if err != nil {
		t.Fatalf("failed to build request %s %s: %v", method, path, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	return resp
}

func (s *e2eSuite) mustRequestJSON(t *testing.T, client httpClient, method, path string, payload map[string]interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	headers := map[string]string{"Content-Type": "application/json"}
	return s.mustRequest(t, client, method, path, bytes.NewReader(data), headers)
}

func decodeJSON(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	body := readBody(t, resp)
	if err := json.Unmarshal([]byte(body), dst); err != nil {
		t.Fatalf("failed to decode json: %v\nbody=%s", err, body)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(data)
}
