package db

// SiteContent 以 JSON 文档形式存储“关于”和“联系”页面的内容。
type SiteContent struct {
	Name      string `gorm:"primaryKey;size:50"`
	Body      string `gorm:"type:text;not null"`
	UpdatedAt int64  `gorm:"autoUpdateTime"`
}

// TableName 自定义表名以保持命名一致。
func (SiteContent) TableName() string {
	return "site_contents"
}

const (
	// SiteContentAbout 表示“关于”页面内容。
	SiteContentAbout = "about"
	// SiteContentContact 表示“联系”页面内容。
	SiteContentContact = "contact"
)
