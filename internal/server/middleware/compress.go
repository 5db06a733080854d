package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var encoders = sync.Pool{
	New: func() any {
		enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		return enc
	},
}

// Zstd compresses responses for clients that accept zstd. WebSocket upgrades
// pass through untouched.
func Zstd(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "zstd") ||
			strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Add("Vary", "Accept-Encoding")
		zw := &zstdResponseWriter{ResponseWriter: w}
		defer zw.close()
		next.ServeHTTP(zw, r)
	})
}

// zstdResponseWriter starts the encoder on the first body write, so bodiless
// responses such as 304 stay uncompressed.
type zstdResponseWriter struct {
	http.ResponseWriter
	encoder     *zstd.Encoder
	wroteHeader bool
	status      int
}

func (w *zstdResponseWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = code
	if bodyAllowed(code) {
		w.Header().Set("Content-Encoding", "zstd")
		w.Header().Del("Content-Length")
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *zstdResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if !bodyAllowed(w.status) {
		return w.ResponseWriter.Write(b)
	}
	if w.encoder == nil {
		w.encoder = encoders.Get().(*zstd.Encoder)
		w.encoder.Reset(w.ResponseWriter)
	}
	return w.encoder.Write(b)
}

func (w *zstdResponseWriter) close() {
	if w.encoder == nil {
		return
	}
	_ = w.encoder.Close()
	w.encoder.Reset(nil)
	encoders.Put(w.encoder)
	w.encoder = nil
}

func bodyAllowed(status int) bool {
	return status != http.StatusNoContent && status != http.StatusNotModified && status >= http.StatusOK
}
