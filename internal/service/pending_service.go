package service

import (
	"context"
	"fmt"
	"time"

	"github.com/atelier/internal/db"
	"gorm.io/gorm"
)

const (
	ChangeTypeNew  = "new"
	ChangeTypeEdit = "edit"
)

// PendingGallery 是自上次发布以来被修改过的画廊。
type PendingGallery struct {
	ID         string `json:"id"`
	NameCS     string `json:"name_cs"`
	NameEN     string `json:"name_en"`
	Type       string `json:"type"`
	ChangeType string `json:"change_type"`
	UpdatedAt  int64  `json:"updated_at"`
}

type PendingDeletion struct {
	ID        string `json:"id"`
	ItemType  string `json:"item_type"`
	ItemID    string `json:"item_id"`
	ItemName  string `json:"item_name"`
	CreatedAt int64  `json:"created_at"`
}

type PendingTheme struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	UpdatedAt int64  `json:"updated_at"`
}

// PendingChanges 汇总尚未发布的改动。
type PendingChanges struct {
	Galleries   []PendingGallery  `json:"galleries"`
	Deletions   []PendingDeletion `json:"deletions"`
	Theme       []PendingTheme    `json:"theme"`
	Total       int               `json:"total"`
	LastPublish *time.Time        `json:"last_publish"`
}

// PendingService 比较时间戳与上次发布时间，得出待发布改动。只读。
type PendingService struct {
	db *gorm.DB
}

func NewPendingService(gdb *gorm.DB) *PendingService {
	return &PendingService{db: gdb}
}

// Pending returns galleries and theme rows with updated_at > T plus unpublished deletions.
func (s *PendingService) Pending(ctx context.Context) (*PendingChanges, error) {
	result := &PendingChanges{
		Galleries: []PendingGallery{},
		Deletions: []PendingDeletion{},
		Theme:     []PendingTheme{},
	}

	err := readTx(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		last, err := LastPublishTime(tx)
		if err != nil {
			return fmt.Errorf("load last publish time: %w", err)
		}
		result.LastPublish = unixTimePtr(last)

		var galleries []db.Gallery
		if err := tx.Select("id", "name_cs", "name_en", "type", "created_at", "updated_at").
			Where("updated_at > ?", last).
			Order("updated_at desc").Order("id").
			Find(&galleries).Error; err != nil {
			return fmt.Errorf("load pending galleries: %w", err)
		}
		for _, g := range galleries {
			change := ChangeTypeEdit
			if g.CreatedAt > last {
				change = ChangeTypeNew
			}
			result.Galleries = append(result.Galleries, PendingGallery{
				ID:         g.ID,
				NameCS:     g.NameCS,
				NameEN:     g.NameEN,
				Type:       g.Type,
				ChangeType: change,
				UpdatedAt:  g.UpdatedAt,
			})
		}

		var deletions []db.DeletionLog
		if err := tx.Where("published_at IS NULL").Order("created_at desc").Order("id").Find(&deletions).Error; err != nil {
			return fmt.Errorf("load pending deletions: %w", err)
		}
		for _, d := range deletions {
			result.Deletions = append(result.Deletions, PendingDeletion{
				ID:        d.ID,
				ItemType:  d.ItemType,
				ItemID:    d.ItemID,
				ItemName:  d.ItemName,
				CreatedAt: d.CreatedAt,
			})
		}

		var themes []db.ThemeSetting
		if err := tx.Select("key", "label", "updated_at").
			Where("updated_at > ?", last).
			Order("key").
			Find(&themes).Error; err != nil {
			return fmt.Errorf("load pending theme settings: %w", err)
		}
		for _, t := range themes {
			result.Theme = append(result.Theme, PendingTheme{Key: t.Key, Label: t.Label, UpdatedAt: t.UpdatedAt})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Total = len(result.Galleries) + len(result.Deletions) + len(result.Theme)
	return result, nil
}
