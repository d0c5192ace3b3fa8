package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/atelier/internal/db"
	"github.com/atelier/internal/site"
	"gorm.io/gorm"
)

const seriesPreviewSize = 3

// SiteGraph 是一次读取得到的完整内容图：渲染输入以及同一时刻的画廊和主题行。
// 发布时快照直接取自这些行，保证快照与上线页面来自同一份数据。
type SiteGraph struct {
	Input     site.Input
	Galleries []db.Gallery
	Theme     []db.ThemeSetting
	ReadAt    time.Time
}

// SiteDataService 把实体库整理成渲染器需要的结构。
type SiteDataService struct {
	db *gorm.DB
}

func NewSiteDataService(gdb *gorm.DB) *SiteDataService {
	return &SiteDataService{db: gdb}
}

// Build reads the whole graph in one transaction.
func (s *SiteDataService) Build(ctx context.Context) (*SiteGraph, error) {
	graph := &SiteGraph{}
	err := readTx(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		graph.ReadAt = now(tx)

		if err := tx.Preload("Items", orderedItems).Preload("Items.Artwork").
			Order("sort_order").Order("year desc").Order("id").
			Find(&graph.Galleries).Error; err != nil {
			return fmt.Errorf("load galleries: %w", err)
		}
		if err := tx.Order("key").Find(&graph.Theme).Error; err != nil {
			return fmt.Errorf("load theme settings: %w", err)
		}

		about, err := loadAbout(tx)
		if err != nil {
			return err
		}
		contact, err := loadContact(tx)
		if err != nil {
			return err
		}

		graph.Input = site.Input{
			Paintings:    paintingsData(graph.Galleries),
			Watercolors:  watercolorsData(graph.Galleries),
			About:        about,
			Contact:      contact,
			ThemeCSS:     site.ThemeCSS(themeVars(graph.Theme)),
			LastModified: lastModified(graph.Galleries, graph.Theme),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return graph, nil
}

func paintingsData(galleries []db.Gallery) site.PaintingsData {
	data := site.PaintingsData{
		Carousel: []site.CarouselSlide{},
		Featured: []site.Artwork{},
		Years:    []site.PaintingYear{},
	}

	carouselSeen := map[string]bool{}
	featuredSeen := map[string]bool{}
	byYear := map[int]*site.PaintingYear{}
	yearSeen := map[int]map[string]bool{}

	for _, g := range galleries {
		if !g.IsVisible {
			continue
		}
		switch g.Type {
		case db.GalleryTypeCarousel:
			for _, art := range publicArtworks(g) {
				if carouselSeen[art.ID] {
					continue
				}
				carouselSeen[art.ID] = true
				data.Carousel = append(data.Carousel, site.CarouselSlide{
					Filename: artworkImage(art),
					Alt:      site.Localized{CS: art.TitleCS, EN: art.TitleEN},
				})
			}
		case db.GalleryTypeFeatured:
			for _, art := range publicArtworks(g) {
				if featuredSeen[art.ID] {
					continue
				}
				featuredSeen[art.ID] = true
				data.Featured = append(data.Featured, siteArtwork(art))
			}
		case db.GalleryTypeYear:
			if g.Year == nil || g.Category == nil || *g.Category != db.ArtworkCategoryPainting {
				continue
			}
			year := *g.Year
			entry, ok := byYear[year]
			if !ok {
				entry = &site.PaintingYear{Year: year, Artworks: []site.Artwork{}}
				byYear[year] = entry
				yearSeen[year] = map[string]bool{}
			}
			for _, art := range publicArtworks(g) {
				if yearSeen[year][art.ID] {
					continue
				}
				yearSeen[year][art.ID] = true
				entry.Artworks = append(entry.Artworks, siteArtwork(art))
			}
		}
	}

	for _, entry := range byYear {
		if len(entry.Artworks) > 0 {
			data.Years = append(data.Years, *entry)
		}
	}
	sort.Slice(data.Years, func(i, j int) bool { return data.Years[i].Year > data.Years[j].Year })
	return data
}

func watercolorsData(galleries []db.Gallery) site.WatercolorsData {
	data := site.WatercolorsData{Series: []site.WatercolorSeries{}}

	// galleries arrive ordered by sort_order
	seen := map[string]bool{}
	for _, g := range galleries {
		if !g.IsVisible || g.Type != db.GalleryTypeSeries || g.Category == nil {
			continue
		}
		if *g.Category != db.ArtworkCategoryWatercolor && *g.Category != db.ArtworkCategoryInk {
			continue
		}
		id := seriesID(g)
		if seen[id] {
			continue
		}
		seen[id] = true

		series := site.WatercolorSeries{
			ID:       id,
			Title:    site.Localized{CS: g.NameCS, EN: g.NameEN},
			Preview:  []string{},
			Artworks: []site.Artwork{},
		}
		if g.Year != nil {
			series.Year = *g.Year
		}
		for _, art := range publicArtworks(g) {
			if len(series.Preview) < seriesPreviewSize {
				series.Preview = append(series.Preview, artworkImage(art))
			}
			series.Artworks = append(series.Artworks, siteArtwork(art))
		}
		data.Series = append(data.Series, series)
	}
	return data
}

// publicArtworks 按位置返回画廊中可公开展示的作品，私人收藏不上线。
func publicArtworks(g db.Gallery) []db.Artwork {
	arts := make([]db.Artwork, 0, len(g.Items))
	for _, item := range g.Items {
		if item.Artwork == nil || item.Artwork.Status == db.ArtworkStatusPrivate {
			continue
		}
		arts = append(arts, *item.Artwork)
	}
	return arts
}

func artworkImage(art db.Artwork) string {
	if art.ImageURL != nil && *art.ImageURL != "" {
		return *art.ImageURL
	}
	return art.Filename
}

func siteArtwork(art db.Artwork) site.Artwork {
	out := site.Artwork{
		ID:         art.ID,
		Filename:   artworkImage(art),
		Title:      site.Localized{CS: art.TitleCS, EN: art.TitleEN},
		Medium:     site.Localized{CS: art.MediumCS, EN: art.MediumEN},
		Dimensions: art.Dimensions,
		Year:       art.Year,
	}
	if art.Status != db.ArtworkStatusAvailable {
		out.Status = art.Status
	}
	return out
}

// lastModified 取参与渲染的行中最新的 updated_at，只用于 sitemap。
func lastModified(galleries []db.Gallery, theme []db.ThemeSetting) time.Time {
	var latest int64
	for _, g := range galleries {
		if g.UpdatedAt > latest {
			latest = g.UpdatedAt
		}
		for _, item := range g.Items {
			if item.Artwork != nil && item.Artwork.UpdatedAt > latest {
				latest = item.Artwork.UpdatedAt
			}
		}
	}
	for _, t := range theme {
		if t.UpdatedAt > latest {
			latest = t.UpdatedAt
		}
	}
	if latest == 0 {
		return time.Time{}
	}
	return time.Unix(latest, 0).UTC()
}
