package api

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imagevault/imagevault-server/internal/service"
)

// multipartBody builds a multipart body with an optional text field and one
// file part.
func multipartBody(t *testing.T, field, filename string, content []byte) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("caption", "ignored"))
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (ts *testServer) upload(t *testing.T, header, target, field, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartBody(t, field, filename, content)
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", contentType)
	if header != "" {
		name, value, _ := strings.Cut(header, ": ")
		req.Header.Set(name, value)
	}

	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)
	return w
}

func (ts *testServer) fetch(t *testing.T, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)
	return w
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 40, 30))
	for x := range 40 {
		for y := range 30 {
			img.Set(x, y, color.NRGBA{R: uint8(x * 6), G: 90, B: uint8(y * 8), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUpload_ServeAndDelete(t *testing.T) {
	ts := setupTestServer(t)
	header := ts.login(t)
	content := pngBytes(t)

	w := ts.upload(t, header, "/image/storage", "file", "Holiday.PNG", content)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	result := decodeEnvelope[service.UploadResult](t, w.Body.Bytes()).Data
	assert.True(t, strings.HasSuffix(result.Filename, ".png"))
	assert.Equal(t, "/images/"+result.Filename, result.URL)
	assert.Equal(t, int64(len(content)), result.Size)
	assert.Equal(t, "image/png", result.ContentType)
	assert.Equal(t, 40, result.Width)
	assert.Equal(t, 30, result.Height)
	assert.NotEmpty(t, result.BlurHash)

	// Static serving is public.
	w = ts.fetch(t, http.MethodGet, result.URL, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, content, w.Body.Bytes())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	w = ts.fetch(t, http.MethodGet, result.URL, map[string]string{"Range": "bytes=0-7"})
	require.Equal(t, http.StatusPartialContent, w.Code)
	assert.Equal(t, content[:8], w.Body.Bytes())

	w = ts.fetch(t, http.MethodHead, result.URL, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	resp := ts.api.Delete("/image/storage?file="+url.QueryEscape("http://example.com"+result.URL), header)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, result.Filename, decodeEnvelope[DeleteFileResponse](t, resp.Body.Bytes()).Data.Filename)

	w = ts.fetch(t, http.MethodGet, result.URL, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeEnvelope[any](t, w.Body.Bytes()).Code)

	resp = ts.api.Delete("/image/storage?file="+result.Filename, header)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestUpload_Naming(t *testing.T) {
	ts := setupTestServer(t)
	header := ts.login(t)

	tests := []struct {
		name     string
		target   string
		field    string
		filename string
		want     string
	}{
		{"query name wins", "/image/storage?name=cover", "img-42", "a.JPG", "cover.jpg"},
		{"field carries client id", "/image/storage", "img-42", "a.JPG", "img-42.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.upload(t, header, tt.target, tt.field, tt.filename, []byte("data"))
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, tt.want, decodeEnvelope[service.UploadResult](t, w.Body.Bytes()).Data.Filename)

			_, err := os.Stat(filepath.Join(ts.storageDir, tt.want))
			assert.NoError(t, err)
		})
	}
}

func TestUpload_Errors(t *testing.T) {
	ts := setupTestServer(t, func(c *testServerConfig) { c.maxUploadBytes = 2048 })
	header := ts.login(t)

	t.Run("requires token", func(t *testing.T) {
		w := ts.upload(t, "", "/image/storage", "file", "a.txt", []byte("x"))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("no file part", func(t *testing.T) {
		w := ts.upload(t, header, "/image/storage", "", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "BAD_REQUEST", decodeEnvelope[any](t, w.Body.Bytes()).Code)
	})

	t.Run("not multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/image/storage", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		name, value, _ := strings.Cut(header, ": ")
		req.Header.Set(name, value)
		w := httptest.NewRecorder()
		ts.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("too large", func(t *testing.T) {
		w := ts.upload(t, header, "/image/storage", "file", "big.bin", bytes.Repeat([]byte("x"), 8192))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, "PAYLOAD_TOO_LARGE", decodeEnvelope[any](t, w.Body.Bytes()).Code)

		entries, err := os.ReadDir(ts.storageDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestDeleteFile_BadNames(t *testing.T) {
	ts := setupTestServer(t)
	header := ts.login(t)

	for _, name := range []string{"", ".", "..", "%2F", ".upload-1", ".env"} {
		resp := ts.api.Delete("/image/storage?file="+name, header)
		assert.Equal(t, http.StatusBadRequest, resp.Code, "file=%q", name)
	}
}

func TestServeFile_Unknown(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.fetch(t, http.MethodGet, "/images/missing.png", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
}

func TestStorage_PartialUploadsUnreachable(t *testing.T) {
	ts := setupTestServer(t)
	header := ts.login(t)

	partial := filepath.Join(ts.storageDir, ".upload-987654")
	require.NoError(t, os.WriteFile(partial, []byte("partial"), 0o600))

	w := ts.fetch(t, http.MethodGet, "/images/.upload-987654", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	resp := ts.api.Delete("/image/storage?file=.upload-987654", header)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	_, err := os.Stat(partial)
	assert.NoError(t, err)
}

func TestUpload_PlainFieldDoesNotOverwrite(t *testing.T) {
	ts := setupTestServer(t)
	header := ts.login(t)

	existing := filepath.Join(ts.storageDir, "photo.jpg")
	require.NoError(t, os.WriteFile(existing, []byte("keep me"), 0o644))

	w := ts.upload(t, header, "/image/storage", "photo", "a.JPG", []byte("data"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEqual(t, "photo.jpg", decodeEnvelope[service.UploadResult](t, w.Body.Bytes()).Data.Filename)

	content, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(content))
}
