package models

import (
	"fmt"
	"strings"

	applogger "github.com/storefront-next/internal/logger"
)

// gormLogWriter 将 gorm 日志输出转发到 zap
type gormLogWriter struct{}

// Printf 实现 gorm logger.Writer
func (gormLogWriter) Printf(format string, args ...interface{}) {
	msg := strings.TrimSpace(fmt.Sprintf(format, args...))
	if msg == "" {
		return
	}
	applogger.SW("component", "gorm").Info(msg)
}
