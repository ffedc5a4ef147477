package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestResolveAllowedOrigin(t *testing.T) {
	allowList := []string{"https://shop.example.com", "https://admin.example.com"}
	cases := []struct {
		name        string
		origin      string
		allowed     []string
		credentials bool
		want        string
	}{
		{name: "wildcard", origin: "https://shop.example.com", allowed: []string{"*"}, want: "*"},
		{name: "wildcard with credentials echoes origin", origin: "https://shop.example.com", allowed: []string{"*"}, credentials: true, want: "https://shop.example.com"},
		{name: "allow list match", origin: "https://admin.example.com", allowed: allowList, want: "https://admin.example.com"},
		{name: "allow list miss", origin: "https://evil.example.com", allowed: allowList, want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := resolveAllowedOrigin(tc.origin, tc.allowed, tc.credentials); got != tc.want {
				t.Fatalf("want %q got %q", tc.want, got)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, getRequestID(c))
	})

	echoed := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(echoed, req)
	if echoed.Header().Get(requestIDHeader) != "req-123" || echoed.Body.String() != "req-123" {
		t.Fatalf("incoming request id should be reused, header=%q body=%q", echoed.Header().Get(requestIDHeader), echoed.Body.String())
	}

	generated := httptest.NewRecorder()
	r.ServeHTTP(generated, httptest.NewRequest(http.MethodGet, "/ping", nil))
	id := strings.TrimSpace(generated.Header().Get(requestIDHeader))
	if id == "" || id != generated.Body.String() {
		t.Fatalf("generated request id should be set on header and context, header=%q body=%q", id, generated.Body.String())
	}
}

func decodeStatusCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return resp.StatusCode
}

func TestUserJWTAuthMiddlewareWithoutService(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(UserJWTAuthMiddleware(nil))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if code := decodeStatusCode(t, w); code != 401 {
		t.Fatalf("status_code want 401 got %d", code)
	}
}

func TestOptionalUserJWTMiddlewarePassesGuests(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(SessionKeyMiddleware(), OptionalUserJWTMiddleware(nil))
	r.GET("/cart", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"session": c.GetString(contextSessionKey), "user": c.GetUint(contextUserID)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set(sessionKeyHeader, " sess-abc ")
	r.ServeHTTP(w, req)

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["session"] != "sess-abc" {
		t.Fatalf("session key want sess-abc got %v", resp["session"])
	}
	if resp["user"] != float64(0) {
		t.Fatalf("guest should not carry user id, got %v", resp["user"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req2.Header.Set(sessionKeyHeader, strings.Repeat("x", 65))
	r.ServeHTTP(w2, req2)
	if !strings.Contains(w2.Body.String(), `"session":""`) {
		t.Fatalf("oversized session key should be ignored, got %s", w2.Body.String())
	}
}

func TestAdminRBACMiddlewareRequiresUser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(AdminRBACMiddleware(nil))
	r.GET("/api/v1/admin/orders", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil))
	if code := decodeStatusCode(t, w); code != 401 {
		t.Fatalf("status_code want 401 got %d", code)
	}
}
