package db

const (
	GalleryTypeYear     = "year"
	GalleryTypeSeries   = "series"
	GalleryTypeCarousel = "carousel"
	GalleryTypeFeatured = "featured"
)

// Gallery 是作品的有序集合。PublishedSnapshot 为空当且仅当该画廊从未经历过一次成功发布。
type Gallery struct {
	ID                string        `gorm:"primaryKey;size:36" json:"id"`
	Slug              string        `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Type              string        `gorm:"size:20;index;not null" json:"type"`
	NameCS            string        `gorm:"column:name_cs;size:255;not null" json:"name_cs"`
	NameEN            string        `gorm:"column:name_en;size:255;not null" json:"name_en"`
	DescriptionCS     *string       `gorm:"column:description_cs;size:1000" json:"description_cs"`
	DescriptionEN     *string       `gorm:"column:description_en;size:1000" json:"description_en"`
	Category          *string       `gorm:"size:20" json:"category"`
	Year              *int          `json:"year"`
	SeriesKey         *string       `gorm:"size:100" json:"series_key"`
	IsVisible         bool          `gorm:"not null" json:"is_visible"`
	SortOrder         int           `gorm:"not null" json:"sort_order"`
	Version           int           `gorm:"not null" json:"version"`
	PublishedSnapshot *string       `gorm:"type:text" json:"-"`
	CreatedAt         int64         `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt         int64         `gorm:"autoUpdateTime;index" json:"updated_at"`
	Items             []GalleryItem `gorm:"foreignKey:GalleryID" json:"items,omitempty"`
}

// TableName 指定自定义表名。
func (Gallery) TableName() string {
	return "galleries"
}

// IsPublished 表示该画廊是否已有可回滚的发布快照。
func (g Gallery) IsPublished() bool {
	return g.PublishedSnapshot != nil && *g.PublishedSnapshot != ""
}

// GalleryItem 记录画廊与作品的关联及其顺序。
type GalleryItem struct {
	ID        string   `gorm:"primaryKey;size:36" json:"id"`
	GalleryID string   `gorm:"size:36;not null;uniqueIndex:idx_gallery_items_pair;index" json:"gallery_id"`
	ArtworkID string   `gorm:"size:8;not null;uniqueIndex:idx_gallery_items_pair;index" json:"artwork_id"`
	Position  int      `gorm:"not null" json:"position"`
	Artwork   *Artwork `gorm:"foreignKey:ArtworkID" json:"artwork,omitempty"`
}

// TableName 指定自定义表名。
func (GalleryItem) TableName() string {
	return "gallery_items"
}
