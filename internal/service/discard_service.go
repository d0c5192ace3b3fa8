package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atelier/internal/db"
	"github.com/atelier/internal/lock"
	"gorm.io/gorm"
)

const (
	DiscardTypeGallery = "gallery"
	DiscardTypeTheme   = "theme"
)

var (
	ErrInvalidDiscardTarget = errors.New("discard target must be {all:true}, {type:gallery,id} or {type:theme,key}")
	ErrThemeNeverPublished  = errors.New("theme setting has never been published")
)

// DiscardTarget 描述一次回滚请求。
type DiscardTarget struct {
	All  bool   `json:"all"`
	Type string `json:"type"`
	ID   string `json:"id"`
	Key  string `json:"key"`
}

// Validate rejects targets that name nothing or more than one thing.
func (t DiscardTarget) Validate() error {
	if t.All {
		if t.Type != "" || t.ID != "" || t.Key != "" {
			return ErrInvalidDiscardTarget
		}
		return nil
	}
	switch t.Type {
	case DiscardTypeGallery:
		if strings.TrimSpace(t.ID) == "" {
			return ErrInvalidDiscardTarget
		}
	case DiscardTypeTheme:
		if strings.TrimSpace(t.Key) == "" {
			return ErrInvalidDiscardTarget
		}
	default:
		return ErrInvalidDiscardTarget
	}
	return nil
}

// DiscardService 把画廊和主题变量恢复到上次发布时的状态。
// 删除记录不可回滚，只会在下一次成功发布时生效。
type DiscardService struct {
	db     *gorm.DB
	locker lock.Locker
	ttl    time.Duration
	logger *slog.Logger
}

func NewDiscardService(gdb *gorm.DB, locker lock.Locker, ttl time.Duration, logger *slog.Logger) *DiscardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiscardService{db: gdb, locker: locker, ttl: ttl, logger: logger}
}

// Discard dispatches on the target and returns how many entities were reverted or removed.
func (s *DiscardService) Discard(ctx context.Context, target DiscardTarget) (int, error) {
	if err := target.Validate(); err != nil {
		return 0, err
	}

	release, err := acquirePublishLock(ctx, s.locker, s.ttl)
	if err != nil {
		return 0, err
	}
	defer release()

	switch {
	case target.All:
		return s.discardAll(ctx)
	case target.Type == DiscardTypeGallery:
		if err := s.discardGallery(ctx, strings.TrimSpace(target.ID)); err != nil {
			return 0, err
		}
	case target.Type == DiscardTypeTheme:
		if err := s.discardTheme(ctx, strings.TrimSpace(target.Key)); err != nil {
			return 0, err
		}
	}
	return 1, nil
}

// DiscardGallery reverts one gallery. A gallery created after the last publish, or
// one that never got a snapshot, is deleted together with its items.
func (s *DiscardService) DiscardGallery(ctx context.Context, id string) error {
	_, err := s.Discard(ctx, DiscardTarget{Type: DiscardTypeGallery, ID: id})
	return err
}

// DiscardTheme restores a theme value from its snapshot.
func (s *DiscardService) DiscardTheme(ctx context.Context, key string) error {
	_, err := s.Discard(ctx, DiscardTarget{Type: DiscardTypeTheme, Key: key})
	return err
}

// DiscardAll reverts every pending gallery and theme value. Each target is tried on
// its own; failures are logged and skipped, and only successes are counted.
func (s *DiscardService) DiscardAll(ctx context.Context) (int, error) {
	return s.Discard(ctx, DiscardTarget{All: true})
}

func (s *DiscardService) discardAll(ctx context.Context) (int, error) {
	gdb := s.db.WithContext(ctx)
	last, err := LastPublishTime(gdb)
	if err != nil {
		return 0, fmt.Errorf("load last publish time: %w", err)
	}

	var galleryIDs []string
	if err := gdb.Model(&db.Gallery{}).Where("updated_at > ?", last).Order("id").Pluck("id", &galleryIDs).Error; err != nil {
		return 0, fmt.Errorf("load pending galleries: %w", err)
	}
	var themeKeys []string
	if err := gdb.Model(&db.ThemeSetting{}).Where("updated_at > ?", last).Order("key").Pluck("key", &themeKeys).Error; err != nil {
		return 0, fmt.Errorf("load pending theme settings: %w", err)
	}

	discarded := 0
	for _, id := range galleryIDs {
		if err := s.discardGallery(ctx, id); err != nil {
			s.logger.Warn("discard gallery failed", "gallery_id", id, "error", err)
			continue
		}
		discarded++
	}
	for _, key := range themeKeys {
		if err := s.discardTheme(ctx, key); err != nil {
			s.logger.Warn("discard theme setting failed", "key", key, "error", err)
			continue
		}
		discarded++
	}
	return discarded, nil
}

func (s *DiscardService) discardGallery(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		last, err := LastPublishTime(tx)
		if err != nil {
			return err
		}

		var gallery db.Gallery
		if err := tx.First(&gallery, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGalleryNotFound
			}
			return err
		}

		if !gallery.IsPublished() || gallery.CreatedAt > last {
			if err := tx.Where("gallery_id = ?", id).Delete(&db.GalleryItem{}).Error; err != nil {
				return err
			}
			return tx.Delete(&db.Gallery{}, "id = ?", id).Error
		}

		snap, err := decodeGallerySnapshot(*gallery.PublishedSnapshot)
		if err != nil {
			return err
		}

		if snap.Slug != gallery.Slug {
			var taken int64
			if err := tx.Model(&db.Gallery{}).Where("slug = ? AND id <> ?", snap.Slug, id).Count(&taken).Error; err != nil {
				return err
			}
			if taken > 0 {
				return fmt.Errorf("restore slug %q: %w", snap.Slug, ErrGallerySlugTaken)
			}
		}

		// updated_at = T-1 让该行不再满足待发布条件。
		if err := tx.Model(&db.Gallery{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
			"slug":           snap.Slug,
			"type":           snap.Type,
			"name_cs":        snap.NameCS,
			"name_en":        snap.NameEN,
			"description_cs": snap.DescriptionCS,
			"description_en": snap.DescriptionEN,
			"category":       snap.Category,
			"year":           snap.Year,
			"series_key":     snap.SeriesKey,
			"is_visible":     snap.IsVisible,
			"sort_order":     snap.SortOrder,
			"version":        gorm.Expr("version + 1"),
			"updated_at":     last - 1,
		}).Error; err != nil {
			return fmt.Errorf("restore gallery: %w", err)
		}

		if err := tx.Where("gallery_id = ?", id).Delete(&db.GalleryItem{}).Error; err != nil {
			return err
		}
		return restoreItems(tx, id, snap.ArtworkIDs)
	})
}

// restoreItems 按快照顺序重建成员；已被删除的作品跳过，位置保持连续。
func restoreItems(tx *gorm.DB, galleryID string, artworkIDs []string) error {
	if len(artworkIDs) == 0 {
		return nil
	}
	var existing []string
	if err := tx.Model(&db.Artwork{}).Where("id IN ?", artworkIDs).Pluck("id", &existing).Error; err != nil {
		return err
	}
	alive := make(map[string]bool, len(existing))
	for _, id := range existing {
		alive[id] = true
	}

	items := make([]db.GalleryItem, 0, len(artworkIDs))
	for _, artworkID := range artworkIDs {
		if !alive[artworkID] {
			continue
		}
		alive[artworkID] = false
		items = append(items, db.GalleryItem{
			ID:        newID(),
			GalleryID: galleryID,
			ArtworkID: artworkID,
			Position:  len(items),
		})
	}
	if len(items) == 0 {
		return nil
	}
	return tx.Create(&items).Error
}

func (s *DiscardService) discardTheme(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		last, err := LastPublishTime(tx)
		if err != nil {
			return err
		}

		var setting db.ThemeSetting
		if err := tx.First(&setting, "key = ?", key).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrThemeSettingNotFound
			}
			return err
		}
		if setting.PublishedSnapshot == nil || *setting.PublishedSnapshot == "" {
			return ErrThemeNeverPublished
		}
		snap, err := decodeThemeSnapshot(*setting.PublishedSnapshot)
		if err != nil {
			return err
		}
		return tx.Model(&db.ThemeSetting{}).Where("key = ?", key).UpdateColumns(map[string]interface{}{
			"value":      snap.Value,
			"updated_at": last - 1,
		}).Error
	})
}

func acquirePublishLock(ctx context.Context, locker lock.Locker, ttl time.Duration) (func(), error) {
	release, err := locker.TryAcquire(ctx, PublishLockName, ttl)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return nil, ErrOperationInProgress
		}
		return nil, fmt.Errorf("acquire %s lock: %w", PublishLockName, err)
	}
	return release, nil
}
