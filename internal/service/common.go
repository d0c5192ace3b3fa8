package service

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PublishLockName 是发布与回滚共用的互斥锁名。
const PublishLockName = "publish"

// ErrOperationInProgress 表示另一次发布或回滚正在进行。
var ErrOperationInProgress = errors.New("another publish or discard is in progress")

func now(gdb *gorm.DB) time.Time {
	if gdb.NowFunc != nil {
		return gdb.NowFunc()
	}
	return time.Now()
}

func newID() string {
	return uuid.NewString()
}

// readTx 在 postgres 上以可重复读打开只读事务；sqlite 的默认事务已是快照语义。
func readTx(gdb *gorm.DB, fn func(tx *gorm.DB) error) error {
	if gdb.Dialector != nil && gdb.Dialector.Name() == "postgres" {
		return gdb.Transaction(fn, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	}
	return gdb.Transaction(fn)
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func normalizePerPage(perPage, fallback int) int {
	if perPage <= 0 {
		return fallback
	}
	return perPage
}

func calculateTotalPages(total int64, perPage int) int {
	if perPage <= 0 {
		return 1
	}
	if total == 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
