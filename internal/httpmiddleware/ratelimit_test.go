package httpmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestTokenBucketExhausts(t *testing.T) {
	l := NewTokenBucket(3, 3)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if !l.Allow(ctx, "1.2.3.4") {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if l.Allow(ctx, "1.2.3.4") {
		t.Fatal("bucket should be empty")
	}
	// Separate keys have separate buckets.
	if !l.Allow(ctx, "5.6.7.8") {
		t.Fatal("other key should be allowed")
	}
}

func TestGinMiddlewareBlocks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(NewTokenBucket(1, 1)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request: %d", first.Code)
	}

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: %d, want 429", second.Code)
	}
}
