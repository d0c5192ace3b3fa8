package db

// ThemeSetting 存储站点级 CSS 自定义属性，与画廊共用快照回滚机制。
type ThemeSetting struct {
	Key               string  `gorm:"primaryKey;size:100" json:"key"`
	Value             string  `gorm:"size:255" json:"value"`
	Category          string  `gorm:"size:50;index" json:"category"`
	Label             string  `gorm:"size:255" json:"label"`
	PublishedSnapshot *string `gorm:"type:text" json:"-"`
	CreatedAt         int64   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         int64   `gorm:"autoUpdateTime;index" json:"updated_at"`
}

// TableName 指定自定义表名。
func (ThemeSetting) TableName() string {
	return "theme_settings"
}

// DefaultThemeSettings 是首次启动时写入的主题变量。
var DefaultThemeSettings = []ThemeSetting{
	{Key: "color-text", Value: "#2d4a3d", Category: "colors", Label: "Text color"},
	{Key: "color-text-light", Value: "#4a6b5a", Category: "colors", Label: "Secondary text color"},
	{Key: "color-bg", Value: "#fefefe", Category: "colors", Label: "Background"},
	{Key: "color-bg-alt", Value: "#f5f5f3", Category: "colors", Label: "Alternate background"},
	{Key: "color-border", Value: "#e0e0dc", Category: "colors", Label: "Border color"},
	{Key: "font-primary", Value: "Helvetica Neue, Helvetica, Arial, sans-serif", Category: "typography", Label: "Primary font"},
	{Key: "max-width", Value: "1200px", Category: "layout", Label: "Content width"},
}
