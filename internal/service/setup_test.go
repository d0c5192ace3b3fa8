package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/atelier/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testClock 是 gorm NowFunc 使用的可控时钟，单位为秒。
type testClock struct {
	sec atomic.Int64
}

func (c *testClock) now() time.Time {
	return time.Unix(c.sec.Load(), 0)
}

func (c *testClock) set(sec int64) {
	c.sec.Store(sec)
}

func setupServiceTestDB(t *testing.T) (*gorm.DB, *testClock) {
	t.Helper()

	clock := &testClock{}
	clock.set(1000)

	dsn := fmt.Sprintf("file:service-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: clock.now,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb, clock
}

func createTestArtwork(t *testing.T, gdb *gorm.DB, id, title string, year int, category string) db.Artwork {
	t.Helper()
	art, err := NewArtworkService(gdb).Create(ArtworkInput{
		ID:       id,
		Filename: id + ".jpg",
		TitleCS:  title,
		TitleEN:  title + " (en)",
		Year:     year,
		Category: category,
	})
	if err != nil {
		t.Fatalf("create artwork %s: %v", id, err)
	}
	return *art
}

func createTestGallery(t *testing.T, gdb *gorm.DB, input GalleryInput) db.Gallery {
	t.Helper()
	g, err := NewGalleryService(gdb).Create(input)
	if err != nil {
		t.Fatalf("create gallery %s: %v", input.NameCS, err)
	}
	return *g
}

func insertPublishLog(t *testing.T, gdb *gorm.DB, at int64, status string) {
	t.Helper()
	entry := db.PublishLog{ID: newID(), PublishedBy: "test", Status: status, PublishedAt: at}
	if err := gdb.Create(&entry).Error; err != nil {
		t.Fatalf("insert publish log: %v", err)
	}
}

func galleryArtworkIDs(t *testing.T, gdb *gorm.DB, galleryID string) []string {
	t.Helper()
	var ids []string
	if err := gdb.Model(&db.GalleryItem{}).Where("gallery_id = ?", galleryID).Order("position").Pluck("artwork_id", &ids).Error; err != nil {
		t.Fatalf("load gallery items: %v", err)
	}
	return ids
}

func pendingTotal(t *testing.T, gdb *gorm.DB) *PendingChanges {
	t.Helper()
	changes, err := NewPendingService(gdb).Pending(context.Background())
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	return changes
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }
