package service

import (
	"time"

	"github.com/atelier/internal/db"
	"gorm.io/gorm"
)

// LastPublishTime 返回最近一次成功发布的 Unix 秒；从未成功发布时返回 0。
// 每次都从 publish_log 重新计算，不做缓存。
func LastPublishTime(gdb *gorm.DB) (int64, error) {
	var last int64
	if err := gdb.Model(&db.PublishLog{}).
		Where("status = ?", db.PublishStatusSuccess).
		Select("COALESCE(MAX(published_at), 0)").
		Scan(&last).Error; err != nil {
		return 0, err
	}
	return last, nil
}

func unixTimePtr(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
