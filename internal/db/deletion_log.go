package db

// DeletionItemGallery 是目前唯一会产生删除记录的实体类型。
const DeletionItemGallery = "gallery"

// DeletionLog 是只追加的删除记录。PublishedAt 为空表示该删除尚未随发布生效。
type DeletionLog struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	ItemType    string `gorm:"size:20;not null" json:"item_type"`
	ItemID      string `gorm:"size:36;not null" json:"item_id"`
	ItemName    string `gorm:"size:255" json:"item_name"`
	CreatedAt   int64  `gorm:"autoCreateTime;index" json:"created_at"`
	PublishedAt *int64 `gorm:"index" json:"published_at"`
}

// TableName 指定自定义表名。
func (DeletionLog) TableName() string {
	return "deletion_log"
}
