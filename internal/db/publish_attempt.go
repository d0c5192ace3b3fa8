package db

import "gorm.io/datatypes"

// 发布流程在 publish_attempts 中依次推进的状态。
const (
	AttemptStateRendering      = "rendering"
	AttemptStateUploadingData  = "uploading-data"
	AttemptStateCleaningStale  = "cleaning-stale"
	AttemptStateUploadingPages = "uploading-pages"
	AttemptStateSnapshotting   = "snapshotting"
	AttemptStateLogged         = "logged"
	AttemptStateCompleted      = "completed"
	AttemptStateFailed         = "failed"
)

// PublishAttempt 持久化一次发布的进度，崩溃或失败后可以据此判断线上站点是否需要对账。
type PublishAttempt struct {
	ID                string         `gorm:"primaryKey;size:36" json:"id"`
	StartedBy         string         `gorm:"size:100" json:"started_by"`
	State             string         `gorm:"size:30;index;not null" json:"state"`
	FailedState       string         `gorm:"size:30" json:"failed_state,omitempty"`
	Error             string         `gorm:"type:text" json:"-"`
	ReconcileRequired bool           `gorm:"not null" json:"reconcile_required"`
	Stats             datatypes.JSON `gorm:"not null" json:"stats"`
	StartedAt         int64          `gorm:"index;not null" json:"started_at"`
	UpdatedAt         int64          `gorm:"autoUpdateTime" json:"updated_at"`
	FinishedAt        *int64         `json:"finished_at"`
}

// TableName 指定自定义表名。
func (PublishAttempt) TableName() string {
	return "publish_attempts"
}
