package i18n

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestNormalizeLocale(t *testing.T) {
	cases := map[string]string{
		"en":             LocaleEnUS,
		"en-GB,en;q=0.8": LocaleEnUS,
		"zh":             LocaleZhCN,
		"zh-Hans-CN":     LocaleZhCN,
		"":               DefaultLocale,
	}
	for raw, want := range cases {
		if got := NormalizeLocale(raw); got != want {
			t.Fatalf("locale %q: want %s got %s", raw, want, got)
		}
	}
}

func TestResolveLocalePrefersQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?lang=en-US", nil)
	c.Request.Header.Set("Accept-Language", "zh-CN")
	if got := ResolveLocale(c); got != LocaleEnUS {
		t.Fatalf("want en-US got %s", got)
	}
}

func TestTFallsBack(t *testing.T) {
	if got := T("fr-FR", "error.cart_empty"); got != messages[DefaultLocale]["error.cart_empty"] {
		t.Fatalf("unexpected fallback: %s", got)
	}
	if got := T(LocaleEnUS, "error.unknown_key"); got != "error.unknown_key" {
		t.Fatalf("missing key should echo key, got %s", got)
	}
	if got := Sprintf(LocaleEnUS, "error.password_too_short", 8); got != "Password must be at least 8 characters" {
		t.Fatalf("unexpected sprintf: %s", got)
	}
}
