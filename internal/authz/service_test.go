package authz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	return svc
}

func mustAllow(t *testing.T, svc *Service, userID uint, role, obj, act string, want bool) {
	t.Helper()
	allow, err := svc.EnforceUser(userID, role, obj, act)
	if err != nil {
		t.Fatalf("enforce %s %s failed: %v", act, obj, err)
	}
	if allow != want {
		t.Fatalf("enforce %s %s as %s: want %v got %v", act, obj, role, want, allow)
	}
}

func TestEnforceUserWithGrantedRole(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("catalog", "/admin/products/:id", "GET"); err != nil {
		t.Fatalf("grant role policy failed: %v", err)
	}
	if err := svc.SetUserRoles(1, []string{"catalog"}); err != nil {
		t.Fatalf("set user roles failed: %v", err)
	}

	mustAllow(t, svc, 1, "customer", "/api/v1/admin/products/42", "get", true)
	mustAllow(t, svc, 1, "customer", "/api/v1/admin/products/42", "POST", false)
	mustAllow(t, svc, 2, "customer", "/api/v1/admin/products/42", "GET", false)
}

func TestSetUserRolesOverride(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("support", "/admin/orders", "GET"); err != nil {
		t.Fatalf("grant support policy failed: %v", err)
	}
	if err := svc.GrantRolePolicy("inventory", "/admin/stock/low", "GET"); err != nil {
		t.Fatalf("grant inventory policy failed: %v", err)
	}

	if err := svc.SetUserRoles(2, []string{"support"}); err != nil {
		t.Fatalf("set first role failed: %v", err)
	}
	if err := svc.SetUserRoles(2, []string{"inventory"}); err != nil {
		t.Fatalf("set second role failed: %v", err)
	}
	roles, err := svc.GetUserRoles(2)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:inventory" {
		t.Fatalf("roles want [role:inventory], got=%v", roles)
	}

	mustAllow(t, svc, 2, "", "/admin/orders", "GET", false)
	mustAllow(t, svc, 2, "", "/admin/stock/low", "GET", true)

	if err := svc.RevokeRolePolicy("inventory", "/admin/stock/low", "GET"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	mustAllow(t, svc, 2, "", "/admin/stock/low", "GET", false)
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/api/v1/admin/orders/:id", want: "/admin/orders/:id"},
		{in: "/admin/orders/:id", want: "/admin/orders/:id"},
		{in: "admin/orders", want: "/admin/orders"},
		{in: "/api/v1", want: "/"},
		{in: "", want: "/"},
	}
	for _, item := range cases {
		got := NormalizeObject(item.in)
		if got != item.want {
			t.Fatalf("normalize object failed, in=%q want=%q got=%q", item.in, item.want, got)
		}
	}
}

func TestBootstrapBuiltinRoles(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap should be repeatable: %v", err)
	}

	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	wantRoles := map[string]bool{
		"role:readonly_auditor": true,
		"role:staff":            true,
		"role:admin":            true,
	}
	for _, role := range roles {
		delete(wantRoles, role)
	}
	if len(wantRoles) != 0 {
		t.Fatalf("builtin roles missing: %v", wantRoles)
	}

	mustAllow(t, svc, 7, "customer", "/api/v1/admin/orders", "GET", false)
	mustAllow(t, svc, 7, "staff", "/api/v1/admin/orders", "GET", true)
	mustAllow(t, svc, 7, "staff", "/api/v1/admin/orders/9/status", "POST", true)
	mustAllow(t, svc, 7, "staff", "/api/v1/admin/orders/9/refund", "POST", false)
	mustAllow(t, svc, 7, "staff", "/api/v1/admin/products", "POST", false)
	mustAllow(t, svc, 8, "admin", "/api/v1/admin/orders/9/refund", "POST", true)
	mustAllow(t, svc, 8, "admin", "/api/v1/admin/products", "POST", true)

	policies, err := svc.GetUserPolicies(7, "staff")
	if err != nil {
		t.Fatalf("get user policies failed: %v", err)
	}
	found := false
	for _, policy := range policies {
		if policy.Object == "/admin/*" && policy.Action == "GET" {
			found = true
		}
	}
	if !found {
		t.Fatalf("staff should inherit readonly policy, got %+v", policies)
	}
}

func TestNormalizeRole(t *testing.T) {
	cases := map[string]string{
		"staff":          "role:staff",
		" role:support ": "role:support",
		"stock keeper":   "role:stock_keeper",
	}
	for in, want := range cases {
		got, err := NormalizeRole(in)
		if err != nil || got != want {
			t.Fatalf("normalize role %q: want %q got %q err=%v", in, want, got, err)
		}
	}
	for _, in := range []string{"", "  ", "role:"} {
		if _, err := NormalizeRole(in); err == nil {
			t.Fatalf("normalize role %q should fail", in)
		}
	}
}

func TestNilServiceIsUnavailable(t *testing.T) {
	var svc *Service
	if _, err := svc.EnforceUser(1, "admin", "/admin/orders", "GET"); err == nil {
		t.Fatalf("nil service should refuse to authorize")
	}
	if err := svc.BootstrapBuiltinRoles(); err == nil {
		t.Fatalf("nil service should not bootstrap")
	}
}
