package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/atelier/internal/db"
	"github.com/atelier/internal/lock"
)

func TestDiscardNewGalleryDeletesIt(t *testing.T) {
	gdb, clock := setupServiceTestDB(t)
	insertPublishLog(t, gdb, 50, db.PublishStatusSuccess)

	clock.set(100)
	art := createTestArtwork(t, gdb, "art00001", "Les", 2024, db.ArtworkCategoryPainting)
	g := createTestGallery(t, gdb, GalleryInput{Type: db.GalleryTypeFeatured, NameCS: "Nová", NameEN: "New"})
	if _, err := NewGalleryService(gdb).AddItem(g.ID, art.ID); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if g.CreatedAt != 100 || g.UpdatedAt != 100 {
		t.Fatalf("unexpected timestamps %d/%d", g.CreatedAt, g.UpdatedAt)
	}

	changes := pendingTotal(t, gdb)
	if len(changes.Galleries) != 1 || changes.Galleries[0].ChangeType != ChangeTypeNew {
		t.Fatalf("expected new gallery pending, got %+v", changes.Galleries)
	}

	svc := NewDiscardService(gdb, lock.NewLocalLocker(), time.Minute, nil)
	count, err := svc.Discard(context.Background(), DiscardTarget{Type: DiscardTypeGallery, ID: g.ID})
	if err != nil || count != 1 {
		t.Fatalf("discard: count=%d err=%v", count, err)
	}

	if _, err := NewGalleryService(gdb).Get(g.ID); !errors.Is(err, ErrGalleryNotFound) {
		t.Fatalf("expected gallery to be gone, got %v", err)
	}
	if ids := galleryArtworkIDs(t, gdb, g.ID); len(ids) != 0 {
		t.Fatalf("expected items to be gone, got %v", ids)
	}
	if _, err := NewArtworkService(gdb).Get(art.ID); err != nil {
		t.Fatalf("artwork must survive gallery discard: %v", err)
	}
}

func TestDiscardEditedGalleryRestoresSnapshot(t *testing.T) {
	gdb, clock := setupServiceTestDB(t)
	galleries := NewGalleryService(gdb)

	clock.set(150)
	for _, id := range []string{"art00001", "art00002", "art00003"} {
		createTestArtwork(t, gdb, id, id, 2024, db.ArtworkCategoryPainting)
	}
	g := createTestGallery(t, gdb, GalleryInput{Type: db.GalleryTypeYear, NameCS: "Old", NameEN: "Old", Category: strPtr("painting"), Year: intPtr(2024)})
	galleries.AddItem(g.ID, "art00001")
	galleries.AddItem(g.ID, "art00002")
	if _, _, err := NewSnapshotService(gdb).SnapshotAll(); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	insertPublishLog(t, gdb, 200, db.PublishStatusSuccess)
	published := loadGallery(t, galleries, g.ID)

	clock.set(250)
	if _, err := galleries.Update(g.ID, GalleryUpdateInput{NameCS: strPtr("New"), IsVisible: boolPtr(false), SortOrder: intPtr(9)}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := galleries.RemoveItem(g.ID, "art00001"); err != nil {
		t.Fatalf("remove item: %v", err)
	}
	if _, err := galleries.AddItem(g.ID, "art00003"); err != nil {
		t.Fatalf("add item: %v", err)
	}

	changes := pendingTotal(t, gdb)
	if len(changes.Galleries) != 1 || changes.Galleries[0].ChangeType != ChangeTypeEdit {
		t.Fatalf("expected edited gallery pending, got %+v", changes.Galleries)
	}

	svc := NewDiscardService(gdb, lock.NewLocalLocker(), time.Minute, nil)
	if err := svc.DiscardGallery(context.Background(), g.ID); err != nil {
		t.Fatalf("discard: %v", err)
	}

	restored := loadGallery(t, galleries, g.ID)
	if restored.NameCS != "Old" || !restored.IsVisible || restored.SortOrder != published.SortOrder {
		t.Fatalf("scalars not restored: %+v", restored)
	}
	if restored.UpdatedAt != 199 {
		t.Fatalf("updated_at = %d, want 199", restored.UpdatedAt)
	}
	if ids := galleryArtworkIDs(t, gdb, g.ID); !reflect.DeepEqual(ids, []string{"art00001", "art00002"}) {
		t.Fatalf("items not restored: %v", ids)
	}
	for i, item := range restored.Items {
		if item.Position != i {
			t.Fatalf("item %s has position %d, want %d", item.ArtworkID, item.Position, i)
		}
	}
	if changes := pendingTotal(t, gdb); changes.Total != 0 {
		t.Fatalf("expected nothing pending after discard, got %+v", changes)
	}
}

func TestDiscardSkipsArtworksDeletedSincePublish(t *testing.T) {
	gdb, clock := setupServiceTestDB(t)
	galleries := NewGalleryService(gdb)

	clock.set(10)
	createTestArtwork(t, gdb, "keep0001", "Keep", 2024, db.ArtworkCategoryWatercolor)
	createTestArtwork(t, gdb, "gone0001", "Gone", 2024, db.ArtworkCategoryWatercolor)
	g := createTestGallery(t, gdb, GalleryInput{Type: db.GalleryTypeSeries, NameCS: "Řada", NameEN: "Series", Category: strPtr("watercolor")})
	galleries.AddItem(g.ID, "gone0001")
	galleries.AddItem(g.ID, "keep0001")
	if _, _, err := NewSnapshotService(gdb).SnapshotAll(); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	insertPublishLog(t, gdb, 20, db.PublishStatusSuccess)

	clock.set(30)
	if err := NewArtworkService(gdb).Delete("gone0001"); err != nil {
		t.Fatalf("delete artwork: %v", err)
	}

	svc := NewDiscardService(gdb, lock.NewLocalLocker(), time.Minute, nil)
	if err := svc.DiscardGallery(context.Background(), g.ID); err != nil {
		t.Fatalf("discard: %v", err)
	}
	restored := loadGallery(t, galleries, g.ID)
	if len(restored.Items) != 1 || restored.Items[0].ArtworkID != "keep0001" || restored.Items[0].Position != 0 {
		t.Fatalf("unexpected items %+v", restored.Items)
	}
}

func TestDiscardThemeSetting(t *testing.T) {
	gdb, clock := setupServiceTestDB(t)
	clock.set(10)
	if err := db.SeedThemeDefaults(gdb); err != nil {
		t.Fatalf("seed theme: %v", err)
	}
	svc := NewDiscardService(gdb, lock.NewLocalLocker(), time.Minute, nil)

	if err := svc.DiscardTheme(context.Background(), "color-bg"); !errors.Is(err, ErrThemeNeverPublished) {
		t.Fatalf("expected ErrThemeNeverPublished, got %v", err)
	}
	if err := svc.DiscardTheme(context.Background(), "nope"); !errors.Is(err, ErrThemeSettingNotFound) {
		t.Fatalf("expected ErrThemeSettingNotFound, got %v", err)
	}

	if _, _, err := NewSnapshotService(gdb).SnapshotAll(); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	insertPublishLog(t, gdb, 20, db.PublishStatusSuccess)

	clock.set(30)
	if _, err := NewThemeService(gdb).Update([]ThemeChange{{Key: "color-bg", Value: "#000"}}); err != nil {
		t.Fatalf("update theme: %v", err)
	}
	if err := svc.DiscardTheme(context.Background(), "color-bg"); err != nil {
		t.Fatalf("discard theme: %v", err)
	}

	var setting db.ThemeSetting
	gdb.First(&setting, "key = ?", "color-bg")
	if setting.Value != "#fefefe" || setting.UpdatedAt != 19 {
		t.Fatalf("theme not restored: %+v", setting)
	}
}

func TestDiscardAllIsBestEffortAndKeepsDeletions(t *testing.T) {
	gdb, clock := setupServiceTestDB(t)
	clock.set(10)
	if err := db.SeedThemeDefaults(gdb); err != nil {
		t.Fatalf("seed theme: %v", err)
	}
	insertPublishLog(t, gdb, 20, db.PublishStatusSuccess)

	clock.set(30)
	createTestGallery(t, gdb, GalleryInput{Type: db.GalleryTypeFeatured, NameCS: "A", NameEN: "A"})
	createTestGallery(t, gdb, GalleryInput{Type: db.GalleryTypeFeatured, NameCS: "B", NameEN: "B"})
	if _, err := NewThemeService(gdb).Update([]ThemeChange{{Key: "color-bg", Value: "#000"}}); err != nil {
		t.Fatalf("update theme: %v", err)
	}
	deletion := db.DeletionLog{ID: newID(), ItemType: db.DeletionItemGallery, ItemID: "x", ItemName: "X"}
	if err := gdb.Create(&deletion).Error; err != nil {
		t.Fatalf("insert deletion: %v", err)
	}

	// the theme row was seeded before the first publish but never snapshotted, so
	// its discard fails; both galleries are new and get deleted
	svc := NewDiscardService(gdb, lock.NewLocalLocker(), time.Minute, nil)
	count, err := svc.DiscardAll(context.Background())
	if err != nil {
		t.Fatalf("discard all: %v", err)
	}
	if count != 2 {
		t.Fatalf("discarded %d, want 2", count)
	}

	changes := pendingTotal(t, gdb)
	if len(changes.Galleries) != 0 {
		t.Fatalf("galleries still pending: %+v", changes.Galleries)
	}
	if len(changes.Theme) != 1 {
		t.Fatalf("failed theme discard should stay pending, got %+v", changes.Theme)
	}
	if len(changes.Deletions) != 1 {
		t.Fatalf("deletions must not be discarded, got %+v", changes.Deletions)
	}
}

func TestDiscardRejectsInvalidTargets(t *testing.T) {
	gdb, _ := setupServiceTestDB(t)
	svc := NewDiscardService(gdb, lock.NewLocalLocker(), time.Minute, nil)

	targets := []DiscardTarget{
		{},
		{Type: DiscardTypeGallery},
		{Type: DiscardTypeTheme, ID: "x"},
		{Type: "artwork", ID: "x"},
		{All: true, Type: DiscardTypeGallery, ID: "x"},
	}
	for _, target := range targets {
		if _, err := svc.Discard(context.Background(), target); !errors.Is(err, ErrInvalidDiscardTarget) {
			t.Fatalf("target %+v: expected ErrInvalidDiscardTarget, got %v", target, err)
		}
	}
	if _, err := svc.Discard(context.Background(), DiscardTarget{Type: DiscardTypeGallery, ID: "missing"}); !errors.Is(err, ErrGalleryNotFound) {
		t.Fatalf("expected ErrGalleryNotFound, got %v", err)
	}
}

func TestDiscardConflictsWithRunningPublish(t *testing.T) {
	gdb, _ := setupServiceTestDB(t)
	locker := lock.NewLocalLocker()
	release, err := locker.TryAcquire(context.Background(), PublishLockName, time.Minute)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer release()

	svc := NewDiscardService(gdb, locker, time.Minute, nil)
	if _, err := svc.DiscardAll(context.Background()); !errors.Is(err, ErrOperationInProgress) {
		t.Fatalf("expected ErrOperationInProgress, got %v", err)
	}
}
