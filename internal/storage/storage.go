// Package storage 定义发布目标对象存储，以及内存、S3（含 R2）与 MinIO 三种实现。
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/atelier/internal/config"
)

// ErrObjectNotFound 表示对象键不存在。
var ErrObjectNotFound = errors.New("object not found")

// Bucket 是发布流程使用的最小对象存储接口。
type Bucket interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Get(ctx context.Context, key string) (Object, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// Object 是读取到的对象内容。
type Object struct {
	Key         string
	Body        []byte
	ContentType string
}

// New 根据配置构造对应的存储实现。
func New(ctx context.Context, cfg config.StorageConfig) (Bucket, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryBucket(), nil
	case "s3":
		return NewS3Bucket(ctx, cfg)
	case "minio":
		return NewMinioBucket(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
