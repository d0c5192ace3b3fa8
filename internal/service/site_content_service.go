package service

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/atelier/internal/db"
	"github.com/atelier/internal/site"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed defaults/*.json
var defaultContent embed.FS

var (
	ErrSiteContentUnknown = errors.New("unknown site content document")
	ErrSiteContentInvalid = errors.New("site content document is invalid")
)

// SiteContentService 存取“关于”和“联系”文档。它们不参与待发布追踪，每次发布都按当前内容渲染。
type SiteContentService struct {
	db *gorm.DB
}

// NewSiteContentService 构造 SiteContentService。
func NewSiteContentService(gdb *gorm.DB) *SiteContentService {
	return &SiteContentService{db: gdb}
}

// Raw 返回文档的 JSON，数据库中没有时回退到内置默认值。
func (s *SiteContentService) Raw(name string) (json.RawMessage, error) {
	return loadContent(s.db, name)
}

// Put 校验并保存文档。
func (s *SiteContentService) Put(name string, body []byte) error {
	target, err := contentTarget(name)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("%w: %v", ErrSiteContentInvalid, err)
	}
	normalized, err := json.Marshal(target)
	if err != nil {
		return err
	}

	row := db.SiteContent{Name: name, Body: string(normalized)}
	if err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"body":       row.Body,
			"updated_at": now(s.db).Unix(),
		}),
	}).Create(&row).Error; err != nil {
		return fmt.Errorf("save site content %s: %w", name, err)
	}
	return nil
}

// About 返回解析后的“关于”文档。
func (s *SiteContentService) About() (site.AboutData, error) {
	return loadAbout(s.db)
}

// Contact 返回解析后的“联系”文档。
func (s *SiteContentService) Contact() (site.ContactData, error) {
	return loadContact(s.db)
}

func contentTarget(name string) (any, error) {
	switch name {
	case db.SiteContentAbout:
		return &site.AboutData{}, nil
	case db.SiteContentContact:
		return &site.ContactData{}, nil
	}
	return nil, ErrSiteContentUnknown
}

func loadContent(tx *gorm.DB, name string) (json.RawMessage, error) {
	if _, err := contentTarget(name); err != nil {
		return nil, err
	}
	var row db.SiteContent
	err := tx.First(&row, "name = ?", name).Error
	if err == nil {
		return json.RawMessage(row.Body), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load site content %s: %w", name, err)
	}
	body, err := defaultContent.ReadFile("defaults/" + name + ".json")
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

func loadAbout(tx *gorm.DB) (site.AboutData, error) {
	var about site.AboutData
	body, err := loadContent(tx, db.SiteContentAbout)
	if err != nil {
		return about, err
	}
	if err := json.Unmarshal(body, &about); err != nil {
		return about, fmt.Errorf("%w: %v", ErrSiteContentInvalid, err)
	}
	return about, nil
}

func loadContact(tx *gorm.DB) (site.ContactData, error) {
	var contact site.ContactData
	body, err := loadContent(tx, db.SiteContentContact)
	if err != nil {
		return contact, err
	}
	if err := json.Unmarshal(body, &contact); err != nil {
		return contact, fmt.Errorf("%w: %v", ErrSiteContentInvalid, err)
	}
	return contact, nil
}
