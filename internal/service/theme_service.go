package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atelier/internal/db"
	"github.com/atelier/internal/site"
	"gorm.io/gorm"
)

var (
	ErrThemeSettingNotFound = errors.New("theme setting not found")
	ErrThemeValueEmpty      = errors.New("theme value is empty after sanitizing")
)

// ThemeChange 是一次批量更新中的单个变量。
type ThemeChange struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ThemeService 读写主题变量。值在入库前就做 CSS 清洗，渲染时再清洗一次。
type ThemeService struct {
	db *gorm.DB
}

func NewThemeService(gdb *gorm.DB) *ThemeService {
	return &ThemeService{db: gdb}
}

// List returns all theme settings ordered by category and key.
func (s *ThemeService) List() ([]db.ThemeSetting, error) {
	var settings []db.ThemeSetting
	if err := s.db.Order("category").Order("key").Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

// Update applies a batch of changes atomically and returns how many values actually
// changed. Unchanged values keep their timestamps so they do not read as pending.
func (s *ThemeService) Update(changes []ThemeChange) (int, error) {
	changed := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		stamp := now(tx).Unix()
		for _, change := range changes {
			key := site.SanitizeCSSKey(change.Key)
			value := strings.TrimSpace(site.SanitizeCSSValue(change.Value))
			if value == "" {
				return fmt.Errorf("%w: %s", ErrThemeValueEmpty, key)
			}

			var setting db.ThemeSetting
			if err := tx.First(&setting, "key = ?", key).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %s", ErrThemeSettingNotFound, key)
				}
				return err
			}
			if setting.Value == value {
				continue
			}
			if err := tx.Model(&db.ThemeSetting{}).Where("key = ?", key).Updates(map[string]interface{}{
				"value":      value,
				"updated_at": stamp,
			}).Error; err != nil {
				return fmt.Errorf("update theme setting %s: %w", key, err)
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

func themeVars(settings []db.ThemeSetting) []site.ThemeVar {
	vars := make([]site.ThemeVar, 0, len(settings))
	for _, s := range settings {
		vars = append(vars, site.ThemeVar{Key: s.Key, Value: s.Value})
	}
	return vars
}
