package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryBucket 是进程内的对象存储，用于开发与测试。
type MemoryBucket struct {
	mu      sync.RWMutex
	objects map[string]Object
}

// NewMemoryBucket 创建空的内存存储。
func NewMemoryBucket() *MemoryBucket {
	return &MemoryBucket{objects: make(map[string]Object)}
}

func (b *MemoryBucket) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	copied := make([]byte, len(body))
	copy(copied, body)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = Object{Key: key, Body: copied, ContentType: contentType}
	return nil
}

func (b *MemoryBucket) Get(ctx context.Context, key string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	obj, ok := b.objects[key]
	if !ok {
		return Object{}, ErrObjectNotFound
	}
	return obj, nil
}

// Delete 对不存在的键不报错，与 S3 语义一致。
func (b *MemoryBucket) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *MemoryBucket) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.objects))
	for key := range b.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
