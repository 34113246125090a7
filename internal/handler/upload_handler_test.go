package handler

import (
	"bytes"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
)

func multipartUpload(t *testing.T, filename, contentType string, data []byte, folder string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if folder != "" {
		if err := writer.WriteField("folder", folder); err != nil {
			t.Fatalf("write folder: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func (s *testServer) upload(t *testing.T, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/cms/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+s.token)
	rr := httptest.NewRecorder()
	s.engine.ServeHTTP(rr, req)
	return rr
}

func TestUploadImage(t *testing.T) {
	srv := newTestServer(t)

	var img bytes.Buffer
	if err := png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 8, 5))); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	body, contentType := multipartUpload(t, "logo.png", "image/png", img.Bytes(), "Logos")
	rr := srv.upload(t, body, contentType)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	path := resp["path"].(string)
	if !strings.HasPrefix(path, "logos/") || resp["url"] != "/static/uploads/"+path {
		t.Fatalf("unexpected upload response %v", resp)
	}
	if resp["width"].(float64) != 8 || resp["height"].(float64) != 5 {
		t.Fatalf("expected dimensions, got %v", resp)
	}
	if _, ok := srv.store.objects[path]; !ok {
		t.Fatal("expected object to be stored")
	}
}

func TestUploadRejectsLargeAndNonImageFiles(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := multipartUpload(t, "big.jpg", "image/jpeg", make([]byte, 6<<20), "")
	rr := srv.upload(t, body, contentType)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for 6MB upload, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "5MB") {
		t.Fatalf("expected size error, got %s", rr.Body.String())
	}

	body, contentType = multipartUpload(t, "notes.txt", "text/plain", []byte("hello"), "")
	rr = srv.upload(t, body, contentType)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-image, got %d", rr.Code)
	}

	if len(srv.store.objects) != 0 {
		t.Fatalf("expected no stored objects, got %d", len(srv.store.objects))
	}
}
