package authz

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

var errUnavailable = errors.New("authz service unavailable")

// Service 后台授权服务
// 先按账号角色（staff/admin）判定，再看单独授予用户的角色
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService 创建授权服务，策略持久化在 casbin_rule 表
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("authz db is nil")
	}
	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("create authz adapter failed: %w", err)
	}
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model failed: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer failed: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load authz policy failed: %w", err)
	}
	return &Service{enforcer: enforcer}, nil
}

func (s *Service) ready() error {
	if s == nil || s.enforcer == nil {
		return errUnavailable
	}
	return nil
}

// EnforceUser 判定用户能否以 act 访问 obj
func (s *Service) EnforceUser(userID uint, accountRole, obj, act string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	object, action := NormalizeObject(obj), NormalizeAction(act)
	if role, err := NormalizeRole(accountRole); err == nil {
		allowed, err := s.enforcer.Enforce(role, object, action)
		if err != nil || allowed {
			return allowed, err
		}
	}
	if userID == 0 {
		return false, nil
	}
	return s.enforcer.Enforce(SubjectForUser(userID), object, action)
}

// EnsureRole 角色不存在时创建，返回规范化后的角色名
func (s *Service) EnsureRole(role string) (string, error) {
	name, err := NormalizeRole(role)
	if err != nil {
		return "", err
	}
	if err := s.ready(); err != nil {
		return "", err
	}
	if name == roleAnchor {
		return "", fmt.Errorf("reserved role is not allowed")
	}
	exists, err := s.enforcer.HasNamedGroupingPolicy("g", name, roleAnchor)
	if err != nil {
		return "", fmt.Errorf("check role failed: %w", err)
	}
	if !exists {
		if _, err := s.enforcer.AddNamedGroupingPolicy("g", name, roleAnchor); err != nil {
			return "", fmt.Errorf("create role failed: %w", err)
		}
	}
	return name, nil
}

// ListRoles 列出全部角色
func (s *Service) ListRoles() ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rules, err := s.enforcer.GetFilteredNamedGroupingPolicy("g", 0)
	if err != nil {
		return nil, fmt.Errorf("list roles failed: %w", err)
	}
	seen := make(map[string]struct{})
	roles := make([]string, 0)
	for _, rule := range rules {
		for _, item := range rule {
			if _, ok := seen[item]; ok || !isCustomRole(item) {
				continue
			}
			seen[item] = struct{}{}
			roles = append(roles, item)
		}
	}
	sort.Strings(roles)
	return roles, nil
}

func (s *Service) rolePolicyArgs(role, action string) (string, string, error) {
	name, err := NormalizeRole(role)
	if err != nil {
		return "", "", err
	}
	act := NormalizeAction(action)
	if act == "" {
		return "", "", fmt.Errorf("action is required")
	}
	return name, act, s.ready()
}

// GrantRolePolicy 为角色授予策略，角色不存在时自动创建
func (s *Service) GrantRolePolicy(role, object, action string) error {
	if _, _, err := s.rolePolicyArgs(role, action); err != nil {
		return err
	}
	name, err := s.EnsureRole(role)
	if err != nil {
		return err
	}
	if _, err := s.enforcer.AddPolicy(name, NormalizeObject(object), NormalizeAction(action)); err != nil {
		return fmt.Errorf("grant policy failed: %w", err)
	}
	return nil
}

// RevokeRolePolicy 撤销角色策略
func (s *Service) RevokeRolePolicy(role, object, action string) error {
	name, act, err := s.rolePolicyArgs(role, action)
	if err != nil {
		return err
	}
	if _, err := s.enforcer.RemovePolicy(name, NormalizeObject(object), act); err != nil {
		return fmt.Errorf("revoke policy failed: %w", err)
	}
	return nil
}

// GetRolePolicies 角色直接持有的策略
func (s *Service) GetRolePolicies(role string) ([]Policy, error) {
	name, err := NormalizeRole(role)
	if err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	rules, err := s.enforcer.GetFilteredPolicy(0, name)
	if err != nil {
		return nil, fmt.Errorf("get role policies failed: %w", err)
	}
	return policiesFromRules(rules), nil
}

// SetUserRoles 覆盖用户的额外角色
func (s *Service) SetUserRoles(userID uint, roles []string) error {
	if userID == 0 {
		return fmt.Errorf("user id is required")
	}
	if err := s.ready(); err != nil {
		return err
	}
	subject := SubjectForUser(userID)
	if _, err := s.enforcer.RemoveFilteredNamedGroupingPolicy("g", 0, subject); err != nil {
		return fmt.Errorf("clear user roles failed: %w", err)
	}
	for _, role := range roles {
		name, err := s.EnsureRole(role)
		if err != nil {
			return err
		}
		if _, err := s.enforcer.AddNamedGroupingPolicy("g", subject, name); err != nil {
			return fmt.Errorf("assign user role failed: %w", err)
		}
	}
	return nil
}

// GetUserRoles 用户的额外角色
func (s *Service) GetUserRoles(userID uint) ([]string, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user id is required")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	roles, err := s.enforcer.GetRolesForUser(SubjectForUser(userID))
	if err != nil {
		return nil, fmt.Errorf("get user roles failed: %w", err)
	}
	custom := make([]string, 0, len(roles))
	for _, role := range roles {
		if isCustomRole(role) {
			custom = append(custom, role)
		}
	}
	sort.Strings(custom)
	return custom, nil
}

// GetUserPolicies 用户生效的全部策略（账号角色与额外角色，含继承）
func (s *Service) GetUserPolicies(userID uint, accountRole string) ([]Policy, error) {
	roles, err := s.GetUserRoles(userID)
	if err != nil {
		return nil, err
	}
	if role, err := NormalizeRole(accountRole); err == nil {
		roles = append(roles, role)
	}

	merged := make(map[string]Policy)
	for _, role := range roles {
		rules, err := s.enforcer.GetImplicitPermissionsForUser(role)
		if err != nil {
			return nil, fmt.Errorf("get role policies failed: %w", err)
		}
		for _, p := range policiesFromRules(rules) {
			merged[strings.Join([]string{p.Subject, p.Object, p.Action}, "|")] = p
		}
	}
	result := make([]Policy, 0, len(merged))
	for _, p := range merged {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].less(result[j]) })
	return result, nil
}
