// event_consumer 订阅业务事件，记录给买家/农户的通知
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisinit "github.com/Shallom032/Farmers-Backend-DB/internal/dao/redis"
	"github.com/Shallom032/Farmers-Backend-DB/internal/mq"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/app"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/logger"
	"github.com/streadway/amqp"
)

func main() {
	cfg := app.BootstrapApp()
	if !cfg.MQ.Enabled() {
		logger.Fatal("mq.host is not configured")
	}

	var dedup *redisinit.Deduper
	if cfg.Database.Redis.Enabled() {
		rdb, err := redisinit.InitRedis(&cfg.Database.Redis)
		if err != nil {
			logger.Fatal("连接Redis失败", "err", err)
		}
		defer rdb.Close()
		dedup = redisinit.NewDeduper(rdb, "agri:event:done:", time.Duration(cfg.MQ.DedupTTLMinutes)*time.Minute)
	}

	consumer, err := mq.NewConsumer(&cfg.MQ, mq.ConsumerOptions{
		Queue:    cfg.MQ.NotifyQueue,
		Prefetch: cfg.MQ.ConsumerPrefetch,
	})
	if err != nil {
		logger.Fatal("declare & consume failed", "err", err)
	}
	defer consumer.Close()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("event consumer started", "queue", cfg.MQ.NotifyQueue, "exchange", cfg.MQ.Exchange,
		"dead_letter_queue", mq.DeadLetterQueue(cfg.MQ.NotifyQueue))
	for {
		select {
		case <-quit:
			logger.Info("event consumer stopping")
			return
		case d, ok := <-consumer.Deliveries:
			if !ok {
				logger.Warn("delivery channel closed")
				return
			}
			handle(d, dedup, logNotification)
		}
	}
}

// notifier 返回 errMalformedEvent 时消息进死信队列，其他错误视为临时故障重新入队
type notifier func(evt *mq.Event, payload map[string]any) error

var errMalformedEvent = errors.New("malformed event")

func handle(d amqp.Delivery, dedup *redisinit.Deduper, send notifier) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 按 MessageId 去重，redis 出错时放行
	if dedup != nil && d.MessageId != "" {
		first, err := dedup.FirstSeen(ctx, d.MessageId)
		if err != nil {
			logger.Warn("dedup check failed", "message_id", d.MessageId, "err", err)
		} else if !first {
			_ = d.Ack(false)
			return
		}
	}

	evt, payload, err := decode(d.Body)
	if err == nil {
		err = send(evt, payload)
	}
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, errMalformedEvent):
		// 重投也不会成功，直接进 .dlq
		logger.Error("undecodable event, dead-lettered", "message_id", d.MessageId, "err", err)
		_ = d.Nack(false, false)
	default:
		logger.Error("notify failed, requeued", "message_id", d.MessageId, "err", err)
		if dedup != nil && d.MessageId != "" {
			dedup.Forget(ctx, d.MessageId)
		}
		_ = d.Nack(false, true)
	}
}

// decode 信封和 payload 都必须是 JSON 对象
func decode(body []byte) (*mq.Event, map[string]any, error) {
	evt, err := mq.DecodeEvent(body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: envelope: %v", errMalformedEvent, err)
	}
	if evt.Type == "" {
		return nil, nil, fmt.Errorf("%w: missing type", errMalformedEvent)
	}
	var payload map[string]any
	if err := json.Unmarshal(evt.Payload, &payload); err != nil {
		return nil, nil, fmt.Errorf("%w: payload: %v", errMalformedEvent, err)
	}
	if payload == nil {
		return nil, nil, fmt.Errorf("%w: empty payload", errMalformedEvent)
	}
	return evt, payload, nil
}

// logNotification 邮件等外部投递不在本服务内，这里只落一条通知日志
func logNotification(evt *mq.Event, payload map[string]any) error {
	attrs := []any{"event_id", evt.EventID, "type", evt.Type, "occurred_at", evt.OccurredAt}
	for _, k := range []string{"order_id", "payment_id", "logistics_id", "buyer_id", "farmer_id", "delivery_agent_id"} {
		if v, ok := payload[k]; ok {
			attrs = append(attrs, k, v)
		}
	}
	logger.Info(describe(evt.Type, payload), attrs...)
	return nil
}

func describe(eventType string, payload map[string]any) string {
	switch eventType {
	case mq.EventOrderCreated:
		return "notify farmer: new order received"
	case mq.EventOrderStatusChanged:
		return "notify buyer: order status changed to " + str(payload["to"])
	case mq.EventPaymentCreated:
		return "notify admin: payment awaiting approval"
	case mq.EventPaymentApproved:
		return "notify buyer: payment approved, " + orderOutcome(payload, "confirmed")
	case mq.EventPaymentRejected:
		return "notify buyer: payment rejected, " + orderOutcome(payload, "cancelled")
	case mq.EventLogisticsAssigned:
		return "notify agent: delivery assigned, tracking " + str(payload["tracking_number"])
	case mq.EventLogisticsStatusChanged:
		return "notify buyer: delivery " + str(payload["delivery_status"])
	default:
		return "unhandled event " + eventType
	}
}

// orderOutcome 按事件里实际的订单状态描述，未变化时说明保持原状态
func orderOutcome(payload map[string]any, expected string) string {
	status := str(payload["order_status"])
	switch status {
	case "":
		return "order status unknown"
	case expected:
		return "order " + status
	default:
		return "order remains " + status
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
