package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/atelier/internal/db"
	"gorm.io/gorm"
)

// ErrSnapshotCorrupt 表示快照内容无法解析。
var ErrSnapshotCorrupt = errors.New("published snapshot is corrupt")

// GallerySnapshot 是画廊在发布时刻的可回滚状态。字段顺序固定，保证相同状态序列化结果一致。
type GallerySnapshot struct {
	Slug          string   `json:"slug"`
	Type          string   `json:"type"`
	NameCS        string   `json:"name_cs"`
	NameEN        string   `json:"name_en"`
	DescriptionCS *string  `json:"description_cs"`
	DescriptionEN *string  `json:"description_en"`
	Category      *string  `json:"category"`
	Year          *int     `json:"year"`
	SeriesKey     *string  `json:"series_key"`
	IsVisible     bool     `json:"is_visible"`
	SortOrder     int      `json:"sort_order"`
	ArtworkIDs    []string `json:"artwork_ids"`
}

// ThemeSnapshot 是主题变量在发布时刻的值。
type ThemeSnapshot struct {
	Value string `json:"value"`
}

type gallerySnapshotRow struct {
	id   string
	blob string
}

type themeSnapshotRow struct {
	key  string
	blob string
}

// SnapshotSet 是从一次读取中生成、尚未写入的全部快照。
type SnapshotSet struct {
	galleries []gallerySnapshotRow
	themes    []themeSnapshotRow
}

// Counts 返回集合中画廊和主题变量快照的数量。
func (set *SnapshotSet) Counts() (galleries, themes int) {
	return len(set.galleries), len(set.themes)
}

// SnapshotService 负责生成并保存快照。发布流程通过 Capture/Store 使用它，
// 单个目标的方法供运维修复与测试使用。
type SnapshotService struct {
	db *gorm.DB
}

func NewSnapshotService(gdb *gorm.DB) *SnapshotService {
	return &SnapshotService{db: gdb}
}

// SnapshotGallery 以当前状态覆盖画廊快照。
func (s *SnapshotService) SnapshotGallery(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var gallery db.Gallery
		if err := tx.Preload("Items", orderedItems).First(&gallery, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGalleryNotFound
			}
			return err
		}
		blob, err := encodeGallerySnapshot(gallery)
		if err != nil {
			return err
		}
		return storeGallerySnapshot(tx, gallery.ID, blob)
	})
}

// SnapshotTheme 以当前值覆盖主题变量快照。
func (s *SnapshotService) SnapshotTheme(key string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var setting db.ThemeSetting
		if err := tx.First(&setting, "key = ?", key).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrThemeSettingNotFound
			}
			return err
		}
		blob, err := encodeThemeSnapshot(setting)
		if err != nil {
			return err
		}
		return storeThemeSnapshot(tx, setting.Key, blob)
	})
}

// SnapshotAll 为全部画廊和主题变量生成快照，返回处理的数量。
func (s *SnapshotService) SnapshotAll() (galleries int, themes int, err error) {
	err = s.db.Transaction(func(tx *gorm.DB) error {
		set, err := captureAll(tx)
		if err != nil {
			return err
		}
		galleries, themes = set.Counts()
		return s.Store(tx, set)
	})
	return galleries, themes, err
}

// Capture 由已加载的行生成快照，不访问数据库。画廊的 Items 须已按顺序预加载。
func (s *SnapshotService) Capture(galleries []db.Gallery, settings []db.ThemeSetting) (*SnapshotSet, error) {
	return captureRows(galleries, settings)
}

// Store 在调用方的事务 tx 中写入快照。
func (s *SnapshotService) Store(tx *gorm.DB, set *SnapshotSet) error {
	for _, g := range set.galleries {
		if err := storeGallerySnapshot(tx, g.id, g.blob); err != nil {
			return fmt.Errorf("store gallery snapshot %s: %w", g.id, err)
		}
	}
	for _, t := range set.themes {
		if err := storeThemeSnapshot(tx, t.key, t.blob); err != nil {
			return fmt.Errorf("store theme snapshot %s: %w", t.key, err)
		}
	}
	return nil
}

func orderedItems(tx *gorm.DB) *gorm.DB {
	return tx.Order("position").Order("id")
}

func encodeGallerySnapshot(g db.Gallery) (string, error) {
	ids := make([]string, 0, len(g.Items))
	for _, item := range g.Items {
		ids = append(ids, item.ArtworkID)
	}
	snap := GallerySnapshot{
		Slug:          g.Slug,
		Type:          g.Type,
		NameCS:        g.NameCS,
		NameEN:        g.NameEN,
		DescriptionCS: g.DescriptionCS,
		DescriptionEN: g.DescriptionEN,
		Category:      g.Category,
		Year:          g.Year,
		SeriesKey:     g.SeriesKey,
		IsVisible:     g.IsVisible,
		SortOrder:     g.SortOrder,
		ArtworkIDs:    ids,
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encode gallery snapshot: %w", err)
	}
	return string(body), nil
}

func decodeGallerySnapshot(blob string) (GallerySnapshot, error) {
	var snap GallerySnapshot
	if err := json.Unmarshal([]byte(blob), &snap); err != nil {
		return snap, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}
	return snap, nil
}

func encodeThemeSnapshot(t db.ThemeSetting) (string, error) {
	body, err := json.Marshal(ThemeSnapshot{Value: t.Value})
	if err != nil {
		return "", fmt.Errorf("encode theme snapshot: %w", err)
	}
	return string(body), nil
}

func decodeThemeSnapshot(blob string) (ThemeSnapshot, error) {
	var snap ThemeSnapshot
	if err := json.Unmarshal([]byte(blob), &snap); err != nil {
		return snap, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}
	return snap, nil
}

// 快照写入使用 UpdateColumn，不触碰 updated_at，否则刚发布的行会再次显示为待发布。
func storeGallerySnapshot(tx *gorm.DB, id, blob string) error {
	return tx.Model(&db.Gallery{}).Where("id = ?", id).UpdateColumn("published_snapshot", blob).Error
}

func storeThemeSnapshot(tx *gorm.DB, key, blob string) error {
	return tx.Model(&db.ThemeSetting{}).Where("key = ?", key).UpdateColumn("published_snapshot", blob).Error
}

func captureAll(tx *gorm.DB) (*SnapshotSet, error) {
	var galleries []db.Gallery
	if err := tx.Preload("Items", orderedItems).Order("id").Find(&galleries).Error; err != nil {
		return nil, fmt.Errorf("load galleries: %w", err)
	}
	var settings []db.ThemeSetting
	if err := tx.Order("key").Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("load theme settings: %w", err)
	}
	return captureRows(galleries, settings)
}

func captureRows(galleries []db.Gallery, settings []db.ThemeSetting) (*SnapshotSet, error) {
	gallerySnaps := make([]gallerySnapshotRow, 0, len(galleries))
	for _, g := range galleries {
		blob, err := encodeGallerySnapshot(g)
		if err != nil {
			return nil, err
		}
		gallerySnaps = append(gallerySnaps, gallerySnapshotRow{id: g.ID, blob: blob})
	}

	themeSnaps := make([]themeSnapshotRow, 0, len(settings))
	for _, t := range settings {
		blob, err := encodeThemeSnapshot(t)
		if err != nil {
			return nil, err
		}
		themeSnaps = append(themeSnaps, themeSnapshotRow{key: t.Key, blob: blob})
	}
	return &SnapshotSet{galleries: gallerySnaps, themes: themeSnaps}, nil
}
