package mq

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// 路由键，同时作为事件类型
const (
	EventOrderCreated           = "order.created"
	EventOrderStatusChanged     = "order.status_changed"
	EventPaymentCreated         = "payment.created"
	EventPaymentApproved        = "payment.approved"
	EventPaymentRejected        = "payment.rejected"
	EventLogisticsAssigned      = "logistics.assigned"
	EventLogisticsStatusChanged = "logistics.status_changed"
)

// Event 统一事件信封，EventID 同时作为 AMQP MessageId
type Event struct {
	EventID    string          `json:"event_id"`
	Type       string          `json:"type"`
	OccurredAt int64           `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEvent 生成信封并序列化
func NewEvent(eventType string, payload any) (*Event, []byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	evt := &Event{
		EventID:    uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().Unix(),
		Payload:    raw,
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	return evt, b, nil
}

// DecodeEvent 消费端解析信封
func DecodeEvent(body []byte) (*Event, error) {
	var evt Event
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, err
	}
	return &evt, nil
}
