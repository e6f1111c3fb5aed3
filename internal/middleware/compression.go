package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

var gzipPool = sync.Pool{
	New: func() interface{} { return gzip.NewWriter(io.Discard) },
}

// gzipResponseWriter 第一次写正文时才切换为 gzip，没有正文的响应保持原样
type gzipResponseWriter struct {
	gin.ResponseWriter
	gz      *gzip.Writer
	started bool
}

func (w *gzipResponseWriter) Write(p []byte) (int, error) {
	if !w.started {
		w.started = true
		h := w.Header()
		h.Del("Content-Length")
		h.Set("Content-Encoding", "gzip")
		h.Add("Vary", "Accept-Encoding")
		w.gz.Reset(w.ResponseWriter)
	}
	return w.gz.Write(p)
}

func (w *gzipResponseWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *gzipResponseWriter) finish() {
	if w.started {
		_ = w.gz.Close()
	}
}

func wantsGzip(c *gin.Context) bool {
	switch {
	case c.IsWebsocket(), c.Request.Method == http.MethodHead, c.Request.Method == http.MethodOptions:
		return false
	}
	return strings.Contains(c.GetHeader("Accept-Encoding"), "gzip")
}

// CompressionMiddleware gzip 压缩响应正文
func CompressionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !wantsGzip(c) {
			c.Next()
			return
		}

		gz := gzipPool.Get().(*gzip.Writer)
		w := &gzipResponseWriter{ResponseWriter: c.Writer, gz: gz}
		c.Writer = w
		defer func() {
			w.finish()
			gz.Reset(io.Discard)
			gzipPool.Put(gz)
		}()

		c.Next()
	}
}
