package cache

import (
	"context"
	"time"

	"github.com/storefront-next/internal/models"
)

// UserAuthState 用户鉴权快照：JWT 校验时据此判断禁用、角色与 Token 版本
type UserAuthState struct {
	UserID       uint   `json:"user_id"`
	Status       string `json:"status"`
	Role         string `json:"role"`
	TokenVersion uint64 `json:"token_version"`
	UpdatedAt    int64  `json:"updated_at"`
}

var authStates = jsonEntry[UserAuthState]{prefix: "auth:user", ttl: 10 * time.Minute}

// BuildUserAuthState 从用户模型构建鉴权快照
func BuildUserAuthState(user *models.User) *UserAuthState {
	if user == nil {
		return nil
	}
	return &UserAuthState{
		UserID:       user.ID,
		Status:       user.Status,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		UpdatedAt:    time.Now().Unix(),
	}
}

// GetUserAuthState 读取鉴权快照，未命中时 hit=false
func GetUserAuthState(ctx context.Context, userID uint) (*UserAuthState, bool, error) {
	if userID == 0 {
		return nil, false, nil
	}
	return authStates.get(ctx, userID)
}

// SetUserAuthState 写入鉴权快照
func SetUserAuthState(ctx context.Context, state *UserAuthState) error {
	if state == nil || state.UserID == 0 {
		return nil
	}
	return authStates.set(ctx, *state, 0, state.UserID)
}
