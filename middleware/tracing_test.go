package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// The tracing middleware must pass requests through untouched when no
// tracer provider is installed, which is how tests and local runs operate.
func TestTracingMiddlewareChain(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.Use(TracingMiddleware())
	router.Use(EnrichTrace())

	var handlerRequestID string
	router.GET("/ping", func(c *gin.Context) {
		handlerRequestID = GetRequestID(c)
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "pong" {
		t.Errorf("body = %q", w.Body.String())
	}
	if handlerRequestID == "" {
		t.Error("request id was not set before the traced handler ran")
	}
	if got := w.Header().Get(RequestIDHeader); got != handlerRequestID {
		t.Errorf("response %s header = %q, want %q", RequestIDHeader, got, handlerRequestID)
	}
}
