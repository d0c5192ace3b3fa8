package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/atelier/internal/db"
	"github.com/atelier/internal/lock"
	"github.com/atelier/internal/site"
	"github.com/atelier/internal/storage"
	"gorm.io/gorm"
)

// hookBucket 包装内存存储，可以在上传或删除时注入失败或副作用。
type hookBucket struct {
	*storage.MemoryBucket
	mu       sync.Mutex
	puts     int
	onPut    func(key string) error
	onDelete func(key string) error
}

func newHookBucket() *hookBucket {
	return &hookBucket{MemoryBucket: storage.NewMemoryBucket()}
}

func (b *hookBucket) Put(ctx context.Context, key string, body []byte, contentType string) error {
	b.mu.Lock()
	b.puts++
	hook := b.onPut
	b.mu.Unlock()
	if hook != nil {
		if err := hook(key); err != nil {
			return err
		}
	}
	return b.MemoryBucket.Put(ctx, key, body, contentType)
}

func (b *hookBucket) Delete(ctx context.Context, key string) error {
	if b.onDelete != nil {
		if err := b.onDelete(key); err != nil {
			return err
		}
	}
	return b.MemoryBucket.Delete(ctx, key)
}

func (b *hookBucket) putCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.puts
}

func newTestPublishService(t *testing.T, gdb *gorm.DB, bucket storage.Bucket, locker lock.Locker) *PublishService {
	t.Helper()
	renderer, err := site.NewRenderer(site.Options{SiteName: "Atelier", BaseURL: "https://atelier.example", ImageBaseURL: "/images"})
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return NewPublishService(gdb, renderer, bucket, locker, time.Minute, nil)
}

func seedPublishableSite(t *testing.T, gdb *gorm.DB) (year db.Gallery, series db.Gallery) {
	t.Helper()
	if err := db.SeedThemeDefaults(gdb); err != nil {
		t.Fatalf("seed theme: %v", err)
	}
	galleries := NewGalleryService(gdb)

	createTestArtwork(t, gdb, "oil00001", "Řeka", 2024, db.ArtworkCategoryPainting)
	createTestArtwork(t, gdb, "wat00001", "Kos", 2022, db.ArtworkCategoryWatercolor)

	year = createTestGallery(t, gdb, GalleryInput{Type: db.GalleryTypeYear, NameCS: "2024", NameEN: "2024", Category: strPtr("painting"), Year: intPtr(2024)})
	series = createTestGallery(t, gdb, GalleryInput{Type: db.GalleryTypeSeries, NameCS: "Ptáci", NameEN: "Birds", Category: strPtr("watercolor"), SeriesKey: strPtr("birds")})
	if _, err := galleries.AddItem(year.ID, "oil00001"); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := galleries.AddItem(series.ID, "wat00001"); err != nil {
		t.Fatalf("add item: %v", err)
	}
	return year, series
}

func TestPublishUploadsSiteAndRecordsCheckpoint(t *testing.T) {
	gdb, clock := setupServiceTestDB(t)
	clock.set(100)
	year, _ := seedPublishableSite(t, gdb)

	bucket := newHookBucket()
	ctx := context.Background()
	bucket.MemoryBucket.Put(ctx, "site/favicon.ico", []byte("icon"), "image/x-icon")
	bucket.MemoryBucket.Put(ctx, "site/en/watercolors/removed/index.html", []byte("old"), "text/html")

	clock.set(200)
	svc := newTestPublishService(t, gdb, bucket, nil)
	result, err := svc.Publish(ctx, "editor", "first")
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if result.PublishedAt.Unix() != 200 || result.Stats.StaleRemoved != 1 {
		t.Fatalf("unexpected result %+v", result)
	}

	for _, key := range []string{
		"site/robots.txt",
		"site/sitemap.xml",
		"site/cs/index.html",
		"site/cs/malby/2024/index.html",
		"site/en/watercolors/birds/index.html",
		"site/favicon.ico",
		"published/paintings.json",
		"published/watercolors.json",
		"published/theme.css",
	} {
		if _, err := bucket.Get(ctx, key); err != nil {
			t.Fatalf("expected %s to exist: %v", key, err)
		}
	}
	if _, err := bucket.Get(ctx, "site/en/watercolors/removed/index.html"); !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("stale page should be removed, got %v", err)
	}
	robots, _ := bucket.Get(ctx, "site/robots.txt")
	if robots.ContentType != "text/plain; charset=utf-8" {
		t.Fatalf("robots content type = %q", robots.ContentType)
	}

	last, err := LastPublishTime(gdb)
	if err != nil || last != 200 {
		t.Fatalf("last publish = %d, %v", last, err)
	}
	if changes := pendingTotal(t, gdb); changes.Total != 0 {
		t.Fatalf("nothing should be pending after publish, got %+v", changes)
	}
	if g := loadGallery(t, NewGalleryService(gdb), year.ID); !g.IsPublished() {
		t.Fatalf("gallery should have a snapshot after publish")
	}

	var attempt db.PublishAttempt
	if err := gdb.First(&attempt, "id = ?", result.AttemptID).Error; err != nil {
		t.Fatalf("load attempt: %v", err)
	}
	if attempt.State != db.AttemptStateCompleted || attempt.ReconcileRequired || attempt.FinishedAt == nil {
		t.Fatalf("unexpected attempt %+v", attempt)
	}
	var stats PublishStats
	if err := json.Unmarshal(attempt.Stats, &stats); err != nil || stats.Pages != result.Stats.Pages {
		t.Fatalf("unexpected stats %s (%v)", attempt.Stats, err)
	}
}

func TestPublishWithoutChangesStillRepublishes(t *testing.T) {
	gdb, clock := setupServiceTestDB(t)
	clock.set(100)
	seedPublishableSite(t, gdb)

	bucket := newHookBucket()
	svc := newTestPublishService(t, gdb, bucket, nil)

	clock.set(200)
	first, err := svc.Publish(context.Background(), "editor", "")
	if err != nil {
		t.Fatalf("first publish: %v", err)
	}
	putsAfterFirst := bucket.putCount()
	before, _ := bucket.Get(context.Background(), "site/cs/index.html")

	clock.set(300)
	if pendingTotal(t, gdb).Total != 0 {
		t.Fatalf("expected no pending changes")
	}
	second, err := svc.Publish(context.Background(), "editor", "")
	if err != nil {
		t.Fatalf("second publish: %v", err)
	}
	if bucket.putCount()-putsAfterFirst != putsAfterFirst {
		t.Fatalf("second publish uploaded %d objects, first uploaded %d", bucket.putCount()-putsAfterFirst, putsAfterFirst)
	}
	if first.Stats.Pages != second.Stats.Pages {
		t.Fatalf("page count changed: %d vs %d", first.Stats.Pages, second.Stats.Pages)
	}
	after, _ := bucket.Get(context.Background(), "site/cs/index.html")
	if string(before.Body) != string(after.Body) {
		t.Fatalf("identical content rendered differently")
	}

	var successes int64
	gdb.Model(&db.PublishLog{}).Where("status = ?", db.PublishStatusSuccess).Count(&successes)
	if successes != 2 {
		t.Fatalf("expected two success rows, got %d", successes)
	}
}

func TestPublishStampsOnlyDeletionsBeforeCheckpoint(t *testing.T) {
	gdb, clock := setupServiceTestDB(t)
	clock.set(100)
	seedPublishableSite(t, gdb)
	early := db.DeletionLog{ID: newID(), ItemType: db.DeletionItemGallery, ItemID: "old", ItemName: "Old"}
	if err := gdb.Create(&early).Error; err != nil {
		t.Fatalf("insert deletion: %v", err)
	}

	bucket := newHookBucket()
	var once sync.Once
	bucket.onPut = func(key string) error {
		if !strings.HasPrefix(key, "site/") {
			return nil
		}
		var err error
		once.Do(func() {
			clock.set(250)
			late := db.DeletionLog{ID: newID(), ItemType: db.DeletionItemGallery, ItemID: "late", ItemName: "Late"}
			err = gdb.Create(&late).Error
		})
		return err
	}

	clock.set(200)
	if _, err := newTestPublishService(t, gdb, bucket, nil).Publish(context.Background(), "editor", ""); err != nil {
		t.Fatalf("publish: %v", err)
	}

	var rows []db.DeletionLog
	gdb.Order("item_id").Find(&rows)
	for _, row := range rows {
		switch row.ItemID {
		case "old":
			if row.PublishedAt == nil || *row.PublishedAt != 250 {
				t.Fatalf("early deletion not stamped: %+v", row)
			}
		case "late":
			if row.PublishedAt != nil {
				t.Fatalf("deletion recorded after the data read must stay pending: %+v", row)
			}
		}
	}
	changes := pendingTotal(t, gdb)
	if len(changes.Deletions) != 1 || changes.Deletions[0].ItemID != "late" {
		t.Fatalf("unexpected pending deletions %+v", changes.Deletions)
	}
}

func TestPublishFailureIsLoggedAndLeavesCheckpoint(t *testing.T) {
	gdb, clock := setupServiceTestDB(t)
	clock.set(100)
	year, _ := seedPublishableSite(t, gdb)

	bucket := newHookBucket()
	bucket.MemoryBucket.Put(context.Background(), "site/cs/index.html", []byte("old"), "text/html")
	bucket.onDelete = func(key string) error { return errors.New("storage unavailable") }

	clock.set(200)
	_, err := newTestPublishService(t, gdb, bucket, nil).Publish(context.Background(), "editor", "")
	if !errors.Is(err, ErrPublishFailed) {
		t.Fatalf("expected ErrPublishFailed, got %v", err)
	}

	last, _ := LastPublishTime(gdb)
	if last != 0 {
		t.Fatalf("failed publish must not move the checkpoint, got %d", last)
	}
	var failed db.PublishLog
	if err := gdb.Where("status = ?", db.PublishStatusFailed).First(&failed).Error; err != nil {
		t.Fatalf("expected failed log row: %v", err)
	}
	if !strings.Contains(failed.Notes, "storage unavailable") {
		t.Fatalf("failed row should keep the cause, got %q", failed.Notes)
	}

	var attempt db.PublishAttempt
	if err := gdb.First(&attempt).Error; err != nil {
		t.Fatalf("load attempt: %v", err)
	}
	if attempt.State != db.AttemptStateFailed || attempt.FailedState != db.AttemptStateCleaningStale || !attempt.ReconcileRequired {
		t.Fatalf("unexpected attempt %+v", attempt)
	}
	if g := loadGallery(t, NewGalleryService(gdb), year.ID); g.IsPublished() {
		t.Fatalf("snapshots must not be written by a failed publish")
	}
}

func TestPublishFailureBeforeStorageNeedsNoReconcile(t *testing.T) {
	gdb, _ := setupServiceTestDB(t)
	seedPublishableSite(t, gdb)

	bucket := newHookBucket()
	bucket.onPut = func(key string) error { return errors.New("denied") }
	if _, err := newTestPublishService(t, gdb, bucket, nil).Publish(context.Background(), "editor", ""); !errors.Is(err, ErrPublishFailed) {
		t.Fatalf("expected ErrPublishFailed, got %v", err)
	}
	var attempt db.PublishAttempt
	gdb.First(&attempt)
	if attempt.FailedState != db.AttemptStateUploadingData || attempt.ReconcileRequired {
		t.Fatalf("unexpected attempt %+v", attempt)
	}
}

func TestPublishRejectsOverlap(t *testing.T) {
	gdb, _ := setupServiceTestDB(t)
	locker := lock.NewLocalLocker()
	release, err := locker.TryAcquire(context.Background(), PublishLockName, time.Minute)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer release()

	_, err = newTestPublishService(t, gdb, newHookBucket(), locker).Publish(context.Background(), "editor", "")
	if !errors.Is(err, ErrOperationInProgress) {
		t.Fatalf("expected ErrOperationInProgress, got %v", err)
	}
	var attempts int64
	gdb.Model(&db.PublishAttempt{}).Count(&attempts)
	if attempts != 0 {
		t.Fatalf("rejected publish must not record an attempt")
	}
}

func TestPublishRunsToCompletionAfterCancel(t *testing.T) {
	gdb, _ := setupServiceTestDB(t)
	seedPublishableSite(t, gdb)

	ctx, cancel := context.WithCancel(context.Background())
	bucket := newHookBucket()
	bucket.onPut = func(key string) error {
		cancel()
		return nil
	}
	if _, err := newTestPublishService(t, gdb, bucket, nil).Publish(ctx, "editor", ""); err != nil {
		t.Fatalf("publish should ignore caller cancellation, got %v", err)
	}
}

func TestPublishedDataAndHistory(t *testing.T) {
	gdb, clock := setupServiceTestDB(t)
	clock.set(100)
	seedPublishableSite(t, gdb)
	svc := newTestPublishService(t, gdb, newHookBucket(), nil)
	ctx := context.Background()

	if _, err := svc.PublishedData(ctx, DataTypePaintings); !errors.Is(err, ErrNotPublished) {
		t.Fatalf("expected ErrNotPublished, got %v", err)
	}
	if _, err := svc.PublishedData(ctx, "sculptures"); !errors.Is(err, ErrUnknownDataType) {
		t.Fatalf("expected ErrUnknownDataType, got %v", err)
	}

	clock.set(200)
	if _, err := svc.Publish(ctx, "editor", "spring update"); err != nil {
		t.Fatalf("publish: %v", err)
	}

	obj, err := svc.PublishedData(ctx, DataTypePaintings)
	if err != nil {
		t.Fatalf("published data: %v", err)
	}
	var paintings site.PaintingsData
	if err := json.Unmarshal(obj.Body, &paintings); err != nil {
		t.Fatalf("decode paintings: %v", err)
	}
	if len(paintings.Years) != 1 || paintings.Years[0].Year != 2024 || paintings.Years[0].Artworks[0].ID != "oil00001" {
		t.Fatalf("unexpected paintings %+v", paintings)
	}
	theme, err := svc.PublishedData(ctx, DataTypeTheme)
	if err != nil || !strings.Contains(string(theme.Body), "--color-bg: #fefefe;") {
		t.Fatalf("unexpected theme css %q (%v)", theme.Body, err)
	}

	history, err := svc.History(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history.Logs) != 1 || history.Logs[0].Notes != "spring update" || history.Logs[0].PublishedBy != "editor" {
		t.Fatalf("unexpected logs %+v", history.Logs)
	}
	if len(history.Attempts) != 1 {
		t.Fatalf("unexpected attempts %+v", history.Attempts)
	}
}
