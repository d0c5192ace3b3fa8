// Package lock 提供跨请求的互斥锁：发布与回滚共享同一个锁名，互斥执行。
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLocked 表示锁已被其他操作持有。
var ErrLocked = errors.New("lock is held by another operation")

// Locker 尝试获取一个带过期时间的命名锁，不会阻塞等待。
type Locker interface {
	TryAcquire(ctx context.Context, name string, ttl time.Duration) (release func(), err error)
}

// LocalLocker 是单进程实现，过期的锁会被下一次获取者接管。
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]localLease
	now   func() time.Time
	token uint64
}

type localLease struct {
	token     uint64
	expiresAt time.Time
}

// NewLocalLocker 创建进程内锁。
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]localLease), now: time.Now}
}

func (l *LocalLocker) TryAcquire(ctx context.Context, name string, ttl time.Duration) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if lease, ok := l.held[name]; ok && now.Before(lease.expiresAt) {
		return nil, ErrLocked
	}

	l.token++
	token := l.token
	l.held[name] = localLease{token: token, expiresAt: now.Add(ttl)}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if lease, ok := l.held[name]; ok && lease.token == token {
				delete(l.held, name)
			}
		})
	}, nil
}
