package redis

import (
	"context"
	"errors"
	"time"

	"github.com/Shallom032/Farmers-Backend-DB/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld 锁被其他请求持有
var ErrLockHeld = errors.New("lock held by another owner")

// 只删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker 基于 SET NX PX 的互斥锁
type Locker struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewLocker(rdb redis.UniversalClient, prefix string) *Locker {
	if prefix == "" {
		prefix = "agri:lock:"
	}
	return &Locker{rdb: rdb, prefix: prefix}
}

// Lock 获取锁，返回释放函数；锁被占用时返回 ErrLockHeld
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	fullKey := l.prefix + key
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return func() {
		// 请求 ctx 可能已取消，释放用独立超时
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, l.rdb, []string{fullKey}, token).Err(); err != nil {
			logger.Warn("release lock failed", "key", fullKey, "err", err)
		}
	}, nil
}

// Deduper 消费端按 MessageId 去重
type Deduper struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewDeduper(rdb redis.UniversalClient, prefix string, ttl time.Duration) *Deduper {
	return &Deduper{rdb: rdb, prefix: prefix, ttl: ttl}
}

// FirstSeen 首次出现返回 true；空 id 视为首次
func (d *Deduper) FirstSeen(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return true, nil
	}
	return d.rdb.SetNX(ctx, d.prefix+id, 1, d.ttl).Result()
}

// Forget 处理失败时撤销标记，允许重投递后再处理
func (d *Deduper) Forget(ctx context.Context, id string) {
	if id == "" {
		return
	}
	d.rdb.Del(ctx, d.prefix+id)
}
