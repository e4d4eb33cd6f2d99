package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	redisdao "github.com/Shallom032/Farmers-Backend-DB/internal/dao/redis"
	"github.com/Shallom032/Farmers-Backend-DB/internal/model"
	"github.com/Shallom032/Farmers-Backend-DB/internal/mq"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/e"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/logger"

	"gorm.io/gorm"
)

// Actor 已验证的调用者身份
type Actor struct {
	UserID int64
	Role   model.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

// EventPublisher 由 mq.Publisher 实现
type EventPublisher interface {
	PublishAsyncWithID(exchange, key string, body []byte, messageID string) error
}

// Locker 由 redis Locker 实现
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// Events 事务提交后发布业务事件，nil 安全
type Events struct {
	pub      EventPublisher
	exchange string
}

func NewEvents(pub EventPublisher, exchange string) *Events {
	return &Events{pub: pub, exchange: exchange}
}

// Publish 发布失败只记日志，不影响请求结果
func (ev *Events) Publish(ctx context.Context, eventType string, payload any) {
	if ev == nil || ev.pub == nil {
		return
	}
	evt, body, err := mq.NewEvent(eventType, payload)
	if err != nil {
		logger.WarnContext(ctx, "事件序列化失败", "type", eventType, "err", err)
		return
	}
	if err := ev.pub.PublishAsyncWithID(ev.exchange, eventType, body, evt.EventID); err != nil {
		logger.WarnContext(ctx, "事件发布失败", "type", eventType, "event_id", evt.EventID, "err", err)
		return
	}
	logger.DebugContext(ctx, "事件已发布", "type", eventType, "event_id", evt.EventID)
}

// Mutex 包装 Locker；locker 为 nil 时不加锁（单实例/测试）
type Mutex struct {
	locker Locker
	ttl    time.Duration
}

func NewMutex(locker Locker, ttl time.Duration) *Mutex {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Mutex{locker: locker, ttl: ttl}
}

func (m *Mutex) acquire(ctx context.Context, key string) (func(), error) {
	if m == nil || m.locker == nil {
		return func() {}, nil
	}
	release, err := m.locker.Lock(ctx, key, m.ttl)
	if err != nil {
		if errors.Is(err, redisdao.ErrLockHeld) {
			return nil, e.New(e.ERROR_LOCKED)
		}
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	return release, nil
}

// mapNotFound 把 gorm.ErrRecordNotFound 转成业务错误码
func mapNotFound(err error, code int) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return e.New(code)
	}
	return err
}

// Result 写操作的通用返回
type Result struct {
	Message string `json:"message"`
}
