package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupUserAuthService(t *testing.T) (*UserAuthService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:user_auth_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	cfg := &config.Config{}
	cfg.JWT.SecretKey = "test-secret-key-for-jwt"
	cfg.JWT.ExpireHours = 2
	cfg.Security.PasswordMinLength = 8
	return NewUserAuthService(cfg, repository.NewUserRepository(db)), db
}

func TestRegisterLoginAndParseToken(t *testing.T) {
	svc, _ := setupUserAuthService(t)

	user, token, expiresAt, err := svc.Register("  Grace@Example.com ", "correct-horse", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "grace@example.com" || user.DisplayName != "grace" || user.Role != constants.UserRoleCustomer {
		t.Fatalf("unexpected registered user: %+v", user)
	}
	if token == "" || !expiresAt.After(time.Now()) {
		t.Fatalf("register should issue a token")
	}

	claims, err := svc.ParseUserJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != constants.UserRoleCustomer {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	loggedIn, _, _, err := svc.Login("GRACE@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if loggedIn.ID != user.ID || loggedIn.LastLoginAt == nil {
		t.Fatalf("unexpected login user: %+v", loggedIn)
	}

	state, err := svc.ResolveAuthState(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("resolve auth state failed: %v", err)
	}
	if state.UserID != user.ID || state.Status != constants.UserStatusActive {
		t.Fatalf("unexpected auth state: %+v", state)
	}
}

func TestRegisterAndLoginFailures(t *testing.T) {
	svc, db := setupUserAuthService(t)
	if _, _, _, err := svc.Register("not-an-email", "correct-horse", ""); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("invalid email should be rejected, got %v", err)
	}
	if _, _, _, err := svc.Register("short@example.com", "short", ""); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("short password should be rejected, got %v", err)
	}
	user, _, _, err := svc.Register("alan@example.com", "enigma-machine", "Alan")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, _, _, err := svc.Register("ALAN@example.com", "enigma-machine", ""); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("duplicate email should be rejected, got %v", err)
	}
	if _, _, _, err := svc.Login("alan@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password should be rejected, got %v", err)
	}
	if _, _, _, err := svc.Login("nobody@example.com", "enigma-machine"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user should be rejected, got %v", err)
	}

	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("status", constants.UserStatusDisabled).Error; err != nil {
		t.Fatalf("disable user failed: %v", err)
	}
	if _, _, _, err := svc.Login("alan@example.com", "enigma-machine"); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("disabled user should be rejected, got %v", err)
	}
	if !IsAuthError(ErrUserDisabled) || IsAuthError(ErrEmailExists) {
		t.Fatalf("unexpected auth error classification")
	}
}

func TestParseUserJWTRejectsForeignSignature(t *testing.T) {
	svc, _ := setupUserAuthService(t)
	user := &models.User{ID: 3, Email: "x@example.com", Role: constants.UserRoleAdmin}
	token, _, err := svc.GenerateUserJWT(user)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}

	other := NewUserAuthService(&config.Config{JWT: config.JWTConfig{SecretKey: "another-secret"}}, nil)
	if _, err := other.ParseUserJWT(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token signed with another key should be rejected, got %v", err)
	}
	if _, err := svc.ParseUserJWT("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage token should be rejected, got %v", err)
	}
}
