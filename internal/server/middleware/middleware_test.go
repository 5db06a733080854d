package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
})

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://charts.example/"})(okHandler)

	t.Run("listed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/series", nil)
		req.Header.Set("Origin", "https://CHARTS.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "https://CHARTS.example", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "ETag", rec.Header().Get("Access-Control-Expose-Headers"))
		assert.Equal(t, "Origin", rec.Header().Get("Vary"))
	})

	t.Run("unlisted origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/series", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/series", nil)
		req.Header.Set("Origin", "https://charts.example")
		req.Header.Set("Access-Control-Request-Method", "GET")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "If-None-Match")
	})

	t.Run("empty list admits all", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://anywhere.example")
		rec := httptest.NewRecorder()
		CORS(nil)(okHandler).ServeHTTP(rec, req)
		assert.Equal(t, "https://anywhere.example", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestAuth(t *testing.T) {
	h := Auth("s3cret")(okHandler)

	cases := []struct {
		name   string
		header map[string]string
		want   int
	}{
		{"missing", nil, http.StatusUnauthorized},
		{"bearer", map[string]string{"Authorization": "Bearer s3cret"}, http.StatusOK},
		{"bearer lower-case scheme", map[string]string{"Authorization": "bearer s3cret"}, http.StatusOK},
		{"x-api-key", map[string]string{"X-API-Key": "s3cret"}, http.StatusOK},
		{"wrong", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/chart", nil)
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}

	rec := httptest.NewRecorder()
	Auth("")(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chart", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "empty key disables auth")
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	notFound := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	})
	req := httptest.NewRequest(http.MethodGet, "/api/snapshot?x=1", nil)
	Logging(logger)(notFound).ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "/api/snapshot", line["path"])
	assert.Equal(t, "x=1", line["query"])
	assert.EqualValues(t, http.StatusNotFound, line["status"])
	assert.EqualValues(t, len("missing"), line["bytes"])
}
