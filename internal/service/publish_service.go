package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/atelier/internal/db"
	"github.com/atelier/internal/lock"
	"github.com/atelier/internal/site"
	"github.com/atelier/internal/storage"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	publishedPrefix = "published/"
	sitePrefix      = "site/"
	historyLimit    = 20
)

const (
	DataTypePaintings   = "paintings"
	DataTypeWatercolors = "watercolors"
	DataTypeTheme       = "theme"
)

var (
	ErrPublishFailed   = errors.New("publish failed")
	ErrUnknownDataType = errors.New("unknown published data type")
	ErrNotPublished    = errors.New("nothing has been published yet")
)

// persistentAssets 是长期存在的静态文件，清理旧页面时保留。
var persistentAssets = map[string]bool{
	sitePrefix + "favicon.ico":          true,
	sitePrefix + "favicon.svg":          true,
	sitePrefix + "apple-touch-icon.png": true,
	sitePrefix + "site.webmanifest":     true,
}

var publishedObjects = map[string]struct {
	key         string
	contentType string
}{
	DataTypePaintings:   {key: publishedPrefix + "paintings.json", contentType: "application/json; charset=utf-8"},
	DataTypeWatercolors: {key: publishedPrefix + "watercolors.json", contentType: "application/json; charset=utf-8"},
	DataTypeTheme:       {key: publishedPrefix + "theme.css", contentType: "text/css; charset=utf-8"},
}

// PublishStats 记录一次发布的规模，保存在 publish_attempts.stats 中。
type PublishStats struct {
	Pages          int `json:"pages"`
	StaleRemoved   int `json:"stale_removed"`
	Galleries      int `json:"galleries"`
	ThemeSettings  int `json:"theme_settings"`
	DeletionsMarks int `json:"deletions_published"`
}

// PublishResult is returned to the caller after a successful publish.
type PublishResult struct {
	AttemptID   string       `json:"attempt_id"`
	PublishedAt time.Time    `json:"published_at"`
	Stats       PublishStats `json:"stats"`
}

// PublishHistory 汇总最近的发布日志与发布尝试。
type PublishHistory struct {
	Logs     []db.PublishLog     `json:"logs"`
	Attempts []db.PublishAttempt `json:"attempts"`
}

// PublishService 把当前内容渲染成静态站点并上传，成功后记录检查点并生成快照。
type PublishService struct {
	db        *gorm.DB
	data      *SiteDataService
	snapshots *SnapshotService
	renderer  *site.Renderer
	bucket    storage.Bucket
	locker    lock.Locker
	ttl       time.Duration
	logger    *slog.Logger
}

func NewPublishService(gdb *gorm.DB, renderer *site.Renderer, bucket storage.Bucket, locker lock.Locker, ttl time.Duration, logger *slog.Logger) *PublishService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublishService{
		db:        gdb,
		data:      NewSiteDataService(gdb),
		snapshots: NewSnapshotService(gdb),
		renderer:  renderer,
		bucket:    bucket,
		locker:    locker,
		ttl:       ttl,
		logger:    logger,
	}
}

// Publish runs the full sequence. It holds the publish lock for its whole duration
// and is detached from ctx cancellation; the lock TTL bounds its runtime.
// Callers only ever see ErrPublishFailed wrapping the cause; the detail is logged.
func (s *PublishService) Publish(ctx context.Context, publishedBy, notes string) (*PublishResult, error) {
	release, err := acquirePublishLock(ctx, s.locker, s.ttl)
	if err != nil {
		return nil, err
	}
	defer release()

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.ttl)
	defer cancel()

	attempt := &db.PublishAttempt{
		ID:        newID(),
		StartedBy: publishedBy,
		State:     db.AttemptStateRendering,
		Stats:     datatypes.JSON("{}"),
		StartedAt: now(s.db).Unix(),
	}
	if err := s.db.WithContext(runCtx).Create(attempt).Error; err != nil {
		return nil, fmt.Errorf("%w: record attempt: %w", ErrPublishFailed, err)
	}

	result, err := s.run(runCtx, attempt, publishedBy, strings.TrimSpace(notes))
	if err != nil {
		s.recordFailure(runCtx, attempt, publishedBy, err)
		return nil, fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	s.logger.Info("publish completed",
		"attempt_id", attempt.ID,
		"published_by", publishedBy,
		"pages", result.Stats.Pages,
		"stale_removed", result.Stats.StaleRemoved,
	)
	return result, nil
}

func (s *PublishService) run(ctx context.Context, attempt *db.PublishAttempt, publishedBy, notes string) (*PublishResult, error) {
	gdb := s.db.WithContext(ctx)
	stats := PublishStats{}

	// 1. 一次读取整个内容图；其读取时刻就是本次发布的检查点。
	graph, err := s.data.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("build site data: %w", err)
	}
	checkpoint := graph.ReadAt.Unix()
	snapshots, err := s.snapshots.Capture(graph.Galleries, graph.Theme)
	if err != nil {
		return nil, err
	}
	stats.Galleries, stats.ThemeSettings = snapshots.Counts()

	// 2.
	pages, err := s.renderer.Render(graph.Input)
	if err != nil {
		return nil, fmt.Errorf("render site: %w", err)
	}
	stats.Pages = len(pages)

	// 3.
	if err := s.advance(gdb, attempt, db.AttemptStateUploadingData); err != nil {
		return nil, err
	}
	if err := s.uploadData(ctx, graph.Input); err != nil {
		return nil, err
	}

	// 4.
	if err := s.advance(gdb, attempt, db.AttemptStateCleaningStale); err != nil {
		return nil, err
	}
	removed, err := s.removeStale(ctx)
	if err != nil {
		return nil, err
	}
	stats.StaleRemoved = removed

	// 5.
	if err := s.advance(gdb, attempt, db.AttemptStateUploadingPages); err != nil {
		return nil, err
	}
	if err := s.uploadPages(ctx, pages); err != nil {
		return nil, err
	}

	// 6-8 在同一事务中提交：快照、成功日志、删除记录标记要么都生效，要么都不生效。
	if err := s.advance(gdb, attempt, db.AttemptStateSnapshotting); err != nil {
		return nil, err
	}
	err = gdb.Transaction(func(tx *gorm.DB) error {
		if err := s.snapshots.Store(tx, snapshots); err != nil {
			return err
		}
		entry := db.PublishLog{
			ID:          newID(),
			PublishedBy: publishedBy,
			Status:      db.PublishStatusSuccess,
			Notes:       notes,
			PublishedAt: checkpoint,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("write publish log: %w", err)
		}
		stamp := now(tx).Unix()
		marked := tx.Model(&db.DeletionLog{}).
			Where("published_at IS NULL AND created_at <= ?", checkpoint).
			UpdateColumn("published_at", stamp)
		if marked.Error != nil {
			return fmt.Errorf("stamp deletion log: %w", marked.Error)
		}
		stats.DeletionsMarks = int(marked.RowsAffected)
		return s.advance(tx, attempt, db.AttemptStateLogged)
	})
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(stats)
	if err != nil {
		return nil, err
	}
	finished := now(gdb).Unix()
	attempt.State = db.AttemptStateCompleted
	attempt.Stats = datatypes.JSON(encoded)
	attempt.FinishedAt = &finished
	if err := gdb.Model(&db.PublishAttempt{}).Where("id = ?", attempt.ID).Updates(map[string]interface{}{
		"state":       attempt.State,
		"stats":       attempt.Stats,
		"finished_at": finished,
	}).Error; err != nil {
		// 检查点已经提交，站点已上线；这里只影响尝试记录本身。
		s.logger.Warn("finish publish attempt", "attempt_id", attempt.ID, "error", err)
	}

	return &PublishResult{
		AttemptID:   attempt.ID,
		PublishedAt: time.Unix(checkpoint, 0).UTC(),
		Stats:       stats,
	}, nil
}

func (s *PublishService) advance(tx *gorm.DB, attempt *db.PublishAttempt, state string) error {
	if err := tx.Model(&db.PublishAttempt{}).Where("id = ?", attempt.ID).Update("state", state).Error; err != nil {
		return fmt.Errorf("advance attempt to %s: %w", state, err)
	}
	attempt.State = state
	return nil
}

func (s *PublishService) uploadData(ctx context.Context, in site.Input) error {
	paintings, err := json.Marshal(in.Paintings)
	if err != nil {
		return err
	}
	watercolors, err := json.Marshal(in.Watercolors)
	if err != nil {
		return err
	}
	blobs := []struct {
		dataType string
		body     []byte
	}{
		{DataTypePaintings, paintings},
		{DataTypeWatercolors, watercolors},
		{DataTypeTheme, []byte(in.ThemeCSS)},
	}
	for _, blob := range blobs {
		obj := publishedObjects[blob.dataType]
		if err := s.bucket.Put(ctx, obj.key, blob.body, obj.contentType); err != nil {
			return fmt.Errorf("upload %s: %w", obj.key, err)
		}
	}
	return nil
}

// removeStale 删除 site/ 下除长期静态资源外的所有文件，新页面随后全部重新上传。
func (s *PublishService) removeStale(ctx context.Context) (int, error) {
	keys, err := s.bucket.List(ctx, sitePrefix)
	if err != nil {
		return 0, fmt.Errorf("list site files: %w", err)
	}
	removed := 0
	for _, key := range keys {
		if persistentAssets[key] {
			continue
		}
		if err := s.bucket.Delete(ctx, key); err != nil {
			return removed, fmt.Errorf("delete %s: %w", key, err)
		}
		removed++
	}
	return removed, nil
}

func (s *PublishService) uploadPages(ctx context.Context, pages site.Pages) error {
	paths := make([]string, 0, len(pages))
	for p := range pages {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if err := s.bucket.Put(ctx, sitePrefix+p, []byte(pages[p]), site.ContentType(p)); err != nil {
			return fmt.Errorf("upload %s: %w", p, err)
		}
	}
	return nil
}

func (s *PublishService) recordFailure(ctx context.Context, attempt *db.PublishAttempt, publishedBy string, cause error) {
	s.logger.Error("publish failed",
		"attempt_id", attempt.ID,
		"published_by", publishedBy,
		"state", attempt.State,
		"error", cause,
	)

	gdb := s.db.WithContext(context.WithoutCancel(ctx))
	stamp := now(gdb).Unix()
	entry := db.PublishLog{
		ID:          newID(),
		PublishedBy: publishedBy,
		Status:      db.PublishStatusFailed,
		Notes:       cause.Error(),
		PublishedAt: stamp,
	}
	if err := gdb.Create(&entry).Error; err != nil {
		s.logger.Error("write failed publish log", "attempt_id", attempt.ID, "error", err)
	}

	if err := gdb.Model(&db.PublishAttempt{}).Where("id = ?", attempt.ID).Updates(map[string]interface{}{
		"state":              db.AttemptStateFailed,
		"failed_state":       attempt.State,
		"error":              cause.Error(),
		"reconcile_required": reconcileRequired(attempt.State),
		"finished_at":        stamp,
	}).Error; err != nil {
		s.logger.Error("mark publish attempt failed", "attempt_id", attempt.ID, "error", err)
	}
}

// reconcileRequired 报告失败时线上站点是否可能已被部分改写。
func reconcileRequired(state string) bool {
	switch state {
	case db.AttemptStateCleaningStale, db.AttemptStateUploadingPages, db.AttemptStateSnapshotting, db.AttemptStateLogged:
		return true
	}
	return false
}

// History returns the latest publish log rows and attempts, newest first.
func (s *PublishService) History(ctx context.Context) (*PublishHistory, error) {
	history := &PublishHistory{Logs: []db.PublishLog{}, Attempts: []db.PublishAttempt{}}
	gdb := s.db.WithContext(ctx)
	if err := gdb.Order("published_at desc").Order("id").Limit(historyLimit).Find(&history.Logs).Error; err != nil {
		return nil, fmt.Errorf("load publish log: %w", err)
	}
	if err := gdb.Order("started_at desc").Order("id").Limit(historyLimit).Find(&history.Attempts).Error; err != nil {
		return nil, fmt.Errorf("load publish attempts: %w", err)
	}
	return history, nil
}

// PublishedData returns one of the published data blobs.
func (s *PublishService) PublishedData(ctx context.Context, dataType string) (storage.Object, error) {
	obj, ok := publishedObjects[dataType]
	if !ok {
		return storage.Object{}, ErrUnknownDataType
	}
	stored, err := s.bucket.Get(ctx, obj.key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return storage.Object{}, ErrNotPublished
		}
		return storage.Object{}, err
	}
	if stored.ContentType == "" {
		stored.ContentType = obj.contentType
	}
	return stored, nil
}
