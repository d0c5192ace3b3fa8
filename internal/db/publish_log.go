package db

const (
	PublishStatusSuccess = "success"
	PublishStatusFailed  = "failed"
)

// PublishLog 是只追加的发布审计记录。
// status=success 行中最大的 PublishedAt 即系统的“上次发布时间”。
type PublishLog struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	PublishedBy string `gorm:"size:100" json:"published_by"`
	Status      string `gorm:"size:20;index;not null" json:"status"`
	Notes       string `gorm:"type:text" json:"notes"`
	PublishedAt int64  `gorm:"index;not null" json:"published_at"`
}

// TableName 指定自定义表名。
func (PublishLog) TableName() string {
	return "publish_log"
}
