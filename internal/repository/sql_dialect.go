package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

func isPostgresDialect(dialect string) bool {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return true
	default:
		return false
	}
}

func likeOperatorByDialect(dialect string) string {
	if isPostgresDialect(dialect) {
		return "ILIKE"
	}
	return "LIKE"
}

// lockTimeoutStatementByDialect 生成事务内锁等待超时语句，不支持的方言返回空串。
func lockTimeoutStatementByDialect(dialect string, timeoutMS int) string {
	if timeoutMS <= 0 || !isPostgresDialect(dialect) {
		return ""
	}
	return fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", timeoutMS)
}

// ApplyLockTimeout 在当前事务内设置锁等待超时（仅 postgres 生效）。
func ApplyLockTimeout(tx *gorm.DB, timeoutMS int) error {
	stmt := lockTimeoutStatementByDialect(dbDialectName(tx), timeoutMS)
	if stmt == "" {
		return nil
	}
	return tx.Exec(stmt).Error
}
