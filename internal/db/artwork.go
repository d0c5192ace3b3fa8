package db

const (
	ArtworkCategoryPainting   = "painting"
	ArtworkCategoryWatercolor = "watercolor"
	ArtworkCategoryInk        = "ink"
)

const (
	ArtworkStatusAvailable = "available"
	ArtworkStatusSold      = "sold"
	ArtworkStatusDonated   = "donated"
	ArtworkStatusPrivate   = "private"
)

// Artwork 定义单件作品。作品本身不参与草稿/发布追踪，
// 只有它在画廊中的归属与顺序会进入快照。
type Artwork struct {
	ID         string  `gorm:"primaryKey;size:8" json:"id"`
	Filename   string  `gorm:"size:255" json:"filename"`
	ImageURL   *string `gorm:"size:500" json:"image_url"`
	TitleCS    string  `gorm:"column:title_cs;size:500;not null" json:"title_cs"`
	TitleEN    string  `gorm:"column:title_en;size:500;not null" json:"title_en"`
	MediumCS   string  `gorm:"column:medium_cs;size:255" json:"medium_cs"`
	MediumEN   string  `gorm:"column:medium_en;size:255" json:"medium_en"`
	Dimensions string  `gorm:"size:100" json:"dimensions"`
	Year       int     `gorm:"index" json:"year"`
	Category   string  `gorm:"size:20;index;not null" json:"category"`
	Status     string  `gorm:"size:20;not null" json:"status"`
	CreatedAt  int64   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  int64   `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定自定义表名。
func (Artwork) TableName() string {
	return "artworks"
}
