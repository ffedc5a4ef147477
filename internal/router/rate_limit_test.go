package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/storefront-next/internal/config"

	"github.com/gin-gonic/gin"
)

func newRateLimitContext(body string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.RemoteAddr = "10.0.0.8:4321"
	return c
}

func TestLoginKeyKeepsBodyReadable(t *testing.T) {
	c := newRateLimitContext(`{"email":" Shopper@Example.com ","password":"x"}`)

	if key := KeyByIPAndJSONField("email")(c); key != "shopper@example.com|10.0.0.8" {
		t.Fatalf("unexpected login key: %s", key)
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || !strings.Contains(string(body), "Shopper@Example.com") {
		t.Fatalf("body should be restored, got %q err=%v", body, err)
	}

	numeric := newRateLimitContext(`{"email":42}`)
	if key := KeyByIPAndJSONField("email")(numeric); key != "10.0.0.8" {
		t.Fatalf("non-string field should fall back to ip, got %s", key)
	}
}

func TestKeyByCartOwner(t *testing.T) {
	member := newRateLimitContext("")
	member.Set(contextUserID, uint(9))
	member.Set(contextSessionKey, "sess-1")
	if key := KeyByCartOwner(member); key != "user:9" {
		t.Fatalf("member key want user:9 got %s", key)
	}

	guest := newRateLimitContext("")
	guest.Set(contextSessionKey, "sess-1")
	if key := KeyByCartOwner(guest); key != "guest:sess-1" {
		t.Fatalf("guest key want guest:sess-1 got %s", key)
	}

	if key := KeyByCartOwner(newRateLimitContext("")); key != "10.0.0.8" {
		t.Fatalf("anonymous key should be ip, got %s", key)
	}
}

func TestRateLimitRuleFromConfig(t *testing.T) {
	rule := NewRateLimitRule("sf", "checkout", config.RateLimitConfig{WindowSeconds: 60, MaxAttempts: 5, BlockSeconds: 300}, "error.checkout_too_many")
	if rule.key("user:1") != "sf:rate:checkout:user:1" {
		t.Fatalf("unexpected key: %s", rule.key("user:1"))
	}
	if !rule.enabled() {
		t.Fatalf("rule should be enabled")
	}
	if got := rule.retryAfter(120); got != 120 {
		t.Fatalf("retry after ttl want 120 got %d", got)
	}
	if got := rule.retryAfter(-1); got != 60 {
		t.Fatalf("missing ttl should fall back to window, got %d", got)
	}
	if (RateLimitRule{}).retryAfter(0) != 1 {
		t.Fatalf("retry after should be at least one second")
	}
	if (RateLimitRule{WindowSeconds: 60}).enabled() {
		t.Fatalf("rule without max requests should be disabled")
	}
}

func TestRateLimitMiddlewarePassesWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if w.Code != http.StatusOK || w.Body.String() != "pong" {
			t.Fatalf("request %d should pass, status=%d body=%s", i, w.Code, w.Body.String())
		}
	}
}
