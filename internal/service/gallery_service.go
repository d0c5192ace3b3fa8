package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/atelier/internal/db"
	"github.com/atelier/internal/locale"
	"gorm.io/gorm"
)

var (
	ErrGalleryNotFound         = errors.New("gallery not found")
	ErrGalleryNameRequired    = errors.New("gallery name is required in both languages")
	ErrGalleryTypeInvalid     = errors.New("gallery type is invalid")
	ErrGalleryCategoryInvalid = errors.New("gallery category is invalid")
	ErrGalleryYearRequired    = errors.New("year galleries need a year")
	ErrGallerySlugInvalid     = errors.New("slug may only contain lowercase letters, digits and dashes")
	ErrGallerySlugTaken       = errors.New("slug is already used by another gallery")
	ErrGalleryNotEmpty        = errors.New("gallery still contains artworks")
	ErrGalleryItemExists      = errors.New("artwork is already in this gallery")
	ErrGalleryItemNotFound    = errors.New("artwork is not in this gallery")
	ErrGalleryVersionConflict = errors.New("gallery was modified by someone else")
	ErrGalleryReorderMismatch = errors.New("reorder list must contain every artwork of the gallery exactly once")
	ErrGallerySeriesKeyInvalid = errors.New("series key may only contain lowercase letters, digits and dashes")
	ErrGallerySeriesKeyTaken   = errors.New("series key is already used by another series gallery")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// GalleryService 负责画廊及其成员的增删改。每次写入都会推进 updated_at 与 version，
// 这是待发布检测与回滚的依据。
type GalleryService struct {
	db *gorm.DB
}

// GalleryFilter describes filters for listing galleries.
type GalleryFilter struct {
	Type        string
	Category    string
	VisibleOnly bool
}

// GallerySummary 是列表视图中的画廊，附带作品数量。
type GallerySummary struct {
	db.Gallery
	ItemCount int64 `json:"item_count"`
}

// GalleryInput represents fields accepted when creating a gallery.
type GalleryInput struct {
	Slug          string
	Type          string
	NameCS        string
	NameEN        string
	DescriptionCS *string
	DescriptionEN *string
	Category      *string
	Year          *int
	SeriesKey     *string
	IsVisible     *bool
	SortOrder     *int
}

// GalleryUpdateInput 只包含可修改的字段；nil 表示保持不变。
// Version 非空时做乐观并发检查。
type GalleryUpdateInput struct {
	NameCS        *string
	NameEN        *string
	DescriptionCS *string
	DescriptionEN *string
	IsVisible     *bool
	SortOrder     *int
	Version       *int
}

// NewGalleryService creates a GalleryService instance.
func NewGalleryService(gdb *gorm.DB) *GalleryService {
	return &GalleryService{db: gdb}
}

// List returns galleries ordered by sort order, year (newest first) and Czech name.
func (s *GalleryService) List(filter GalleryFilter) ([]GallerySummary, error) {
	query := s.db.Model(&db.Gallery{})
	if kind := strings.TrimSpace(filter.Type); kind != "" {
		query = query.Where("type = ?", kind)
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		query = query.Where("category = ?", category)
	}
	if filter.VisibleOnly {
		query = query.Where("is_visible = ?", true)
	}

	var galleries []db.Gallery
	if err := query.Order("sort_order").Order("year desc").Order("name_cs").Find(&galleries).Error; err != nil {
		return nil, err
	}

	var counts []struct {
		GalleryID string
		Total     int64
	}
	if err := s.db.Model(&db.GalleryItem{}).
		Select("gallery_id, COUNT(*) AS total").
		Group("gallery_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	byGallery := make(map[string]int64, len(counts))
	for _, c := range counts {
		byGallery[c.GalleryID] = c.Total
	}

	result := make([]GallerySummary, 0, len(galleries))
	for _, g := range galleries {
		result = append(result, GallerySummary{Gallery: g, ItemCount: byGallery[g.ID]})
	}
	return result, nil
}

// Get fetches a gallery with its artworks in position order.
func (s *GalleryService) Get(id string) (*db.Gallery, error) {
	var gallery db.Gallery
	if err := s.db.Preload("Items", orderedItems).Preload("Items.Artwork").
		First(&gallery, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGalleryNotFound
		}
		return nil, err
	}
	return &gallery, nil
}

// Create inserts a new gallery. An empty slug is derived from the English or Czech name.
func (s *GalleryService) Create(input GalleryInput) (*db.Gallery, error) {
	gallery := db.Gallery{
		ID:            newID(),
		Type:          strings.ToLower(strings.TrimSpace(input.Type)),
		NameCS:        plainText(input.NameCS),
		NameEN:        plainText(input.NameEN),
		DescriptionCS: plainTextPtr(input.DescriptionCS),
		DescriptionEN: plainTextPtr(input.DescriptionEN),
		Category:      trimmedPtr(input.Category),
		Year:          input.Year,
		SeriesKey:     trimmedPtr(input.SeriesKey),
		IsVisible:     true,
		Version:       1,
	}
	if input.IsVisible != nil {
		gallery.IsVisible = *input.IsVisible
	}
	if err := validateGallery(gallery); err != nil {
		return nil, err
	}

	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = locale.Slugify(gallery.NameEN)
		if slug == "" {
			slug = locale.Slugify(gallery.NameCS)
		}
	}
	if !slugPattern.MatchString(slug) {
		return nil, ErrGallerySlugInvalid
	}
	gallery.Slug = slug

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&db.Gallery{}).Where("slug = ?", slug).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return ErrGallerySlugTaken
		}
		if gallery.Type == db.GalleryTypeSeries {
			if err := ensureSeriesIDFree(tx, seriesID(gallery)); err != nil {
				return err
			}
		}

		if input.SortOrder != nil {
			gallery.SortOrder = *input.SortOrder
		} else {
			order, err := nextSortOrder(tx)
			if err != nil {
				return err
			}
			gallery.SortOrder = order
		}
		return tx.Create(&gallery).Error
	})
	if err != nil {
		return nil, err
	}
	return &gallery, nil
}

// Update modifies the editable scalar fields of a gallery.
func (s *GalleryService) Update(id string, input GalleryUpdateInput) (*db.Gallery, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var gallery db.Gallery
		if err := tx.First(&gallery, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGalleryNotFound
			}
			return err
		}

		updates := map[string]interface{}{}
		if input.NameCS != nil {
			updates["name_cs"] = plainText(*input.NameCS)
		}
		if input.NameEN != nil {
			updates["name_en"] = plainText(*input.NameEN)
		}
		if input.DescriptionCS != nil {
			updates["description_cs"] = plainTextPtr(input.DescriptionCS)
		}
		if input.DescriptionEN != nil {
			updates["description_en"] = plainTextPtr(input.DescriptionEN)
		}
		if input.IsVisible != nil {
			updates["is_visible"] = *input.IsVisible
		}
		if input.SortOrder != nil {
			updates["sort_order"] = *input.SortOrder
		}
		if name, ok := updates["name_cs"]; ok && name == "" {
			return ErrGalleryNameRequired
		}
		if name, ok := updates["name_en"]; ok && name == "" {
			return ErrGalleryNameRequired
		}

		query := tx.Model(&db.Gallery{}).Where("id = ?", id)
		if input.Version != nil {
			query = query.Where("version = ?", *input.Version)
		}
		updates["updated_at"] = now(tx).Unix()
		updates["version"] = gorm.Expr("version + 1")

		result := query.Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrGalleryVersionConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Delete removes an empty gallery. Published galleries leave a deletion log entry
// so the next publish removes their pages.
func (s *GalleryService) Delete(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var gallery db.Gallery
		if err := tx.First(&gallery, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGalleryNotFound
			}
			return err
		}

		var items int64
		if err := tx.Model(&db.GalleryItem{}).Where("gallery_id = ?", id).Count(&items).Error; err != nil {
			return err
		}
		if items > 0 {
			return ErrGalleryNotEmpty
		}

		if gallery.IsPublished() {
			entry := db.DeletionLog{
				ID:       newID(),
				ItemType: db.DeletionItemGallery,
				ItemID:   gallery.ID,
				ItemName: gallery.NameCS,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return fmt.Errorf("record deletion: %w", err)
			}
		}
		return tx.Delete(&db.Gallery{}, "id = ?", id).Error
	})
}

// AddItem appends an artwork at the end of the gallery. Year galleries also stamp
// their year onto the artwork.
func (s *GalleryService) AddItem(galleryID, artworkID string) (*db.GalleryItem, error) {
	var item db.GalleryItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var gallery db.Gallery
		if err := tx.First(&gallery, "id = ?", galleryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGalleryNotFound
			}
			return err
		}
		var artwork db.Artwork
		if err := tx.First(&artwork, "id = ?", artworkID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrArtworkNotFound
			}
			return err
		}

		var existing int64
		if err := tx.Model(&db.GalleryItem{}).
			Where("gallery_id = ? AND artwork_id = ?", galleryID, artworkID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrGalleryItemExists
		}

		var position int64
		if err := tx.Model(&db.GalleryItem{}).Where("gallery_id = ?", galleryID).Count(&position).Error; err != nil {
			return err
		}

		item = db.GalleryItem{
			ID:        newID(),
			GalleryID: galleryID,
			ArtworkID: artworkID,
			Position:  int(position),
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}

		if gallery.Type == db.GalleryTypeYear && gallery.Year != nil && artwork.Year != *gallery.Year {
			if err := tx.Model(&artwork).Update("year", *gallery.Year).Error; err != nil {
				return fmt.Errorf("sync artwork year: %w", err)
			}
		}
		return touchGallery(tx, galleryID)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveItem drops an artwork from the gallery and closes the gap in positions.
func (s *GalleryService) RemoveItem(galleryID, artworkID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := ensureGalleryExists(tx, galleryID); err != nil {
			return err
		}
		result := tx.Where("gallery_id = ? AND artwork_id = ?", galleryID, artworkID).Delete(&db.GalleryItem{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrGalleryItemNotFound
		}
		if err := densifyPositions(tx, galleryID); err != nil {
			return err
		}
		return touchGallery(tx, galleryID)
	})
}

// Reorder sets positions from the full ordered list of artwork ids.
func (s *GalleryService) Reorder(galleryID string, artworkIDs []string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := ensureGalleryExists(tx, galleryID); err != nil {
			return err
		}

		var items []db.GalleryItem
		if err := tx.Where("gallery_id = ?", galleryID).Find(&items).Error; err != nil {
			return err
		}
		if len(items) != len(artworkIDs) {
			return ErrGalleryReorderMismatch
		}
		current := make(map[string]bool, len(items))
		for _, item := range items {
			current[item.ArtworkID] = true
		}
		seen := make(map[string]bool, len(artworkIDs))
		for _, id := range artworkIDs {
			if !current[id] || seen[id] {
				return ErrGalleryReorderMismatch
			}
			seen[id] = true
		}

		for position, id := range artworkIDs {
			if err := tx.Model(&db.GalleryItem{}).
				Where("gallery_id = ? AND artwork_id = ?", galleryID, id).
				UpdateColumn("position", position).Error; err != nil {
				return err
			}
		}
		return touchGallery(tx, galleryID)
	})
}

func validateGallery(g db.Gallery) error {
	if g.NameCS == "" || g.NameEN == "" {
		return ErrGalleryNameRequired
	}
	switch g.Type {
	case db.GalleryTypeYear, db.GalleryTypeSeries, db.GalleryTypeCarousel, db.GalleryTypeFeatured:
	default:
		return ErrGalleryTypeInvalid
	}
	if g.Category != nil && !validArtworkCategory(*g.Category) {
		return ErrGalleryCategoryInvalid
	}
	if g.Type == db.GalleryTypeYear && g.Year == nil {
		return ErrGalleryYearRequired
	}
	if g.SeriesKey != nil && !slugPattern.MatchString(*g.SeriesKey) {
		return ErrGallerySeriesKeyInvalid
	}
	return nil
}

// seriesID 是系列在站点 URL 与对象键中的标识：series_key，缺省或不合法时回退到 slug。
func seriesID(g db.Gallery) string {
	if g.SeriesKey != nil && slugPattern.MatchString(*g.SeriesKey) {
		return *g.SeriesKey
	}
	return g.Slug
}

// ensureSeriesIDFree 拒绝与已有系列画廊标识相同的新系列。
func ensureSeriesIDFree(tx *gorm.DB, id string) error {
	var count int64
	err := tx.Model(&db.Gallery{}).
		Where("type = ?", db.GalleryTypeSeries).
		Where(tx.Where("series_key = ?", id).Or("(series_key IS NULL OR series_key = '') AND slug = ?", id)).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrGallerySeriesKeyTaken
	}
	return nil
}

func ensureGalleryExists(tx *gorm.DB, id string) error {
	var count int64
	if err := tx.Model(&db.Gallery{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrGalleryNotFound
	}
	return nil
}

// touchGallery 记录一次成员变更：updated_at 取当前时间，version 加一。
func touchGallery(tx *gorm.DB, id string) error {
	return tx.Model(&db.Gallery{}).Where("id = ?", id).Updates(map[string]interface{}{
		"updated_at": now(tx).Unix(),
		"version":    gorm.Expr("version + 1"),
	}).Error
}

// densifyPositions 把位置重新排成 0..n-1，保持原有相对顺序。
func densifyPositions(tx *gorm.DB, galleryID string) error {
	var items []db.GalleryItem
	if err := tx.Where("gallery_id = ?", galleryID).Order("position").Order("id").Find(&items).Error; err != nil {
		return err
	}
	for i, item := range items {
		if item.Position == i {
			continue
		}
		if err := tx.Model(&db.GalleryItem{}).Where("id = ?", item.ID).UpdateColumn("position", i).Error; err != nil {
			return err
		}
	}
	return nil
}

func nextSortOrder(tx *gorm.DB) (int, error) {
	var maxOrder int
	if err := tx.Model(&db.Gallery{}).
		Select("COALESCE(MAX(sort_order), 0)").
		Scan(&maxOrder).Error; err != nil {
		return 0, err
	}
	return maxOrder + 1, nil
}
