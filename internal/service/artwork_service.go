package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atelier/internal/db"
	"github.com/atelier/internal/locale"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	artworkIDLength       = 8
	artworkDefaultPerPage = 20
	artworkMinYear        = 1900
	artworkMaxYear        = 2100
)

var (
	ErrArtworkNotFound        = errors.New("artwork not found")
	ErrArtworkTitleRequired   = errors.New("artwork title is required in both languages")
	ErrArtworkYearInvalid     = errors.New("artwork year must be between 1900 and 2100")
	ErrArtworkCategoryInvalid = errors.New("artwork category is invalid")
	ErrArtworkStatusInvalid   = errors.New("artwork status is invalid")
	ErrArtworkIDInvalid       = errors.New("artwork id must be 1 to 8 characters")
	ErrArtworkIDTaken         = errors.New("artwork id already exists")
)

// ArtworkService 管理作品。作品编辑不会推进任何画廊的 updated_at，
// 因此单独修改作品不会出现在待发布列表中。
type ArtworkService struct {
	db *gorm.DB
}

// ArtworkFilter describes filters for listing artworks.
type ArtworkFilter struct {
	Category string
	Year     int
	Search   string
	Page     int
	PerPage  int

	// PublicOnly 排除私人收藏，供公开接口使用。
	PublicOnly bool
}

// ArtworkListResult aggregates paginated artwork results.
type ArtworkListResult struct {
	Items      []db.Artwork `json:"items"`
	Total      int64        `json:"total"`
	TotalPages int          `json:"total_pages"`
	Page       int          `json:"page"`
	PerPage    int          `json:"per_page"`
}

// ArtworkInput represents fields accepted when creating or updating an artwork.
type ArtworkInput struct {
	ID         string
	Filename   string
	ImageURL   *string
	TitleCS    string
	TitleEN    string
	MediumCS   string
	MediumEN   string
	Dimensions string
	Year       int
	Category   string
	Status     string
}

func NewArtworkService(gdb *gorm.DB) *ArtworkService {
	return &ArtworkService{db: gdb}
}

// List returns artworks matching the filter, newest year first. Search ignores case
// and diacritics on both titles, so "kun" finds "Kůň".
func (s *ArtworkService) List(filter ArtworkFilter) (ArtworkListResult, error) {
	result := ArtworkListResult{
		Page:    normalizePage(filter.Page),
		PerPage: normalizePerPage(filter.PerPage, artworkDefaultPerPage),
	}

	query := s.db.Model(&db.Artwork{})
	if category := strings.TrimSpace(filter.Category); category != "" {
		query = query.Where("category = ?", category)
	}
	if filter.Year > 0 {
		query = query.Where("year = ?", filter.Year)
	}
	if filter.PublicOnly {
		query = query.Where("status <> ?", db.ArtworkStatusPrivate)
	}
	query = query.Order("year desc").Order("created_at desc").Order("id")

	var matched []db.Artwork
	if err := query.Find(&matched).Error; err != nil {
		return result, err
	}
	if needle := locale.Fold(filter.Search); needle != "" {
		filtered := matched[:0]
		for _, art := range matched {
			if strings.Contains(locale.Fold(art.TitleCS), needle) || strings.Contains(locale.Fold(art.TitleEN), needle) {
				filtered = append(filtered, art)
			}
		}
		matched = filtered
	}

	result.Total = int64(len(matched))
	result.TotalPages = calculateTotalPages(result.Total, result.PerPage)
	start := (result.Page - 1) * result.PerPage
	if start > len(matched) {
		start = len(matched)
	}
	end := start + result.PerPage
	if end > len(matched) {
		end = len(matched)
	}
	result.Items = append([]db.Artwork{}, matched[start:end]...)
	return result, nil
}

// Get fetches an artwork by id.
func (s *ArtworkService) Get(id string) (*db.Artwork, error) {
	var art db.Artwork
	if err := s.db.First(&art, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArtworkNotFound
		}
		return nil, err
	}
	return &art, nil
}

// Create inserts a new artwork, generating a short id when none is supplied.
func (s *ArtworkService) Create(input ArtworkInput) (*db.Artwork, error) {
	art := artworkFromInput(input)
	if err := validateArtwork(art); err != nil {
		return nil, err
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uuid.NewString()[:artworkIDLength]
	}
	if len(id) > artworkIDLength {
		return nil, ErrArtworkIDInvalid
	}
	art.ID = id

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&db.Artwork{}).Where("id = ?", id).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrArtworkIDTaken
		}
		return tx.Create(&art).Error
	})
	if err != nil {
		return nil, err
	}
	return &art, nil
}

// Update replaces the editable fields of an artwork. Gallery rows are left alone.
func (s *ArtworkService) Update(id string, input ArtworkInput) (*db.Artwork, error) {
	next := artworkFromInput(input)
	if err := validateArtwork(next); err != nil {
		return nil, err
	}

	art, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	art.Filename = next.Filename
	art.ImageURL = next.ImageURL
	art.TitleCS = next.TitleCS
	art.TitleEN = next.TitleEN
	art.MediumCS = next.MediumCS
	art.MediumEN = next.MediumEN
	art.Dimensions = next.Dimensions
	art.Year = next.Year
	art.Category = next.Category
	art.Status = next.Status

	if err := s.db.Save(art).Error; err != nil {
		return nil, err
	}
	return art, nil
}

// Delete removes an artwork together with its gallery memberships. Every gallery
// that lost a member is re-densified and marked as changed.
func (s *ArtworkService) Delete(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&db.Artwork{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrArtworkNotFound
		}

		var galleryIDs []string
		if err := tx.Model(&db.GalleryItem{}).
			Where("artwork_id = ?", id).
			Distinct().
			Order("gallery_id").
			Pluck("gallery_id", &galleryIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("artwork_id = ?", id).Delete(&db.GalleryItem{}).Error; err != nil {
			return err
		}
		for _, galleryID := range galleryIDs {
			if err := densifyPositions(tx, galleryID); err != nil {
				return fmt.Errorf("reorder gallery %s: %w", galleryID, err)
			}
			if err := touchGallery(tx, galleryID); err != nil {
				return err
			}
		}
		return tx.Delete(&db.Artwork{}, "id = ?", id).Error
	})
}

func artworkFromInput(input ArtworkInput) db.Artwork {
	status := strings.ToLower(strings.TrimSpace(input.Status))
	if status == "" {
		status = db.ArtworkStatusAvailable
	}
	return db.Artwork{
		Filename:   strings.TrimSpace(input.Filename),
		ImageURL:   trimmedPtr(input.ImageURL),
		TitleCS:    plainText(input.TitleCS),
		TitleEN:    plainText(input.TitleEN),
		MediumCS:   plainText(input.MediumCS),
		MediumEN:   plainText(input.MediumEN),
		Dimensions: plainText(input.Dimensions),
		Year:       input.Year,
		Category:   strings.ToLower(strings.TrimSpace(input.Category)),
		Status:     status,
	}
}

func validateArtwork(art db.Artwork) error {
	if art.TitleCS == "" || art.TitleEN == "" {
		return ErrArtworkTitleRequired
	}
	if art.Year < artworkMinYear || art.Year > artworkMaxYear {
		return ErrArtworkYearInvalid
	}
	if !validArtworkCategory(art.Category) {
		return ErrArtworkCategoryInvalid
	}
	switch art.Status {
	case db.ArtworkStatusAvailable, db.ArtworkStatusSold, db.ArtworkStatusDonated, db.ArtworkStatusPrivate:
	default:
		return ErrArtworkStatusInvalid
	}
	return nil
}

func validArtworkCategory(category string) bool {
	switch category {
	case db.ArtworkCategoryPainting, db.ArtworkCategoryWatercolor, db.ArtworkCategoryInk:
		return true
	}
	return false
}
