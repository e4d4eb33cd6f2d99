package main

import (
	"errors"
	"testing"
	"time"

	redisinit "github.com/Shallom032/Farmers-Backend-DB/internal/dao/redis"
	"github.com/Shallom032/Farmers-Backend-DB/internal/mq"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAck 记录 handle 对消息的最终处置
type fakeAck struct {
	acks    int
	nacks   int
	requeue bool
}

func (a *fakeAck) Ack(tag uint64, multiple bool) error {
	a.acks++
	return nil
}

func (a *fakeAck) Nack(tag uint64, multiple, requeue bool) error {
	a.nacks++
	a.requeue = requeue
	return nil
}

func (a *fakeAck) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func delivery(body string, id string) (amqp.Delivery, *fakeAck) {
	ack := &fakeAck{}
	return amqp.Delivery{Acknowledger: ack, MessageId: id, Body: []byte(body)}, ack
}

func okNotifier(*mq.Event, map[string]any) error { return nil }

func TestHandleDeadLettersMalformedEvents(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"garbage envelope", `not json`},
		{"missing type", `{"event_id":"e1","payload":{"order_id":1}}`},
		{"missing payload", `{"event_id":"e1","type":"order.created"}`},
		{"null payload", `{"event_id":"e1","type":"order.created","payload":null}`},
		{"string payload", `{"event_id":"e1","type":"order.created","payload":"oops"}`},
		{"array payload", `{"event_id":"e1","type":"order.created","payload":[1,2]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			d, ack := delivery(tt.body, "")
			handle(d, nil, func(*mq.Event, map[string]any) error {
				called = true
				return nil
			})
			assert.False(t, called)
			assert.Equal(t, 0, ack.acks)
			assert.Equal(t, 1, ack.nacks)
			assert.False(t, ack.requeue)
		})
	}
}

func TestHandleAcksValidEvent(t *testing.T) {
	_, body, err := mq.NewEvent(mq.EventOrderCreated, map[string]any{"order_id": 7, "farmer_id": 3})
	require.NoError(t, err)

	var got map[string]any
	d, ack := delivery(string(body), "")
	handle(d, nil, func(evt *mq.Event, payload map[string]any) error {
		got = payload
		return logNotification(evt, payload)
	})
	assert.Equal(t, 1, ack.acks)
	assert.Equal(t, 0, ack.nacks)
	assert.EqualValues(t, 7, got["order_id"])
}

func TestHandleRequeuesTransientFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	dedup := redisinit.NewDeduper(rdb, "test:done:", time.Minute)

	evt, body, err := mq.NewEvent(mq.EventPaymentApproved, map[string]any{"order_id": 7})
	require.NoError(t, err)

	d, ack := delivery(string(body), evt.EventID)
	handle(d, dedup, func(*mq.Event, map[string]any) error {
		return errors.New("smtp timeout")
	})
	assert.Equal(t, 1, ack.nacks)
	assert.True(t, ack.requeue)
	// 失败时撤销去重标记，重投递还能再处理
	assert.False(t, mr.Exists("test:done:"+evt.EventID))

	d, ack = delivery(string(body), evt.EventID)
	handle(d, dedup, okNotifier)
	assert.Equal(t, 1, ack.acks)
	assert.True(t, mr.Exists("test:done:"+evt.EventID))
}

func TestHandleAcksDuplicate(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	dedup := redisinit.NewDeduper(rdb, "test:done:", time.Minute)

	evt, body, err := mq.NewEvent(mq.EventOrderCreated, map[string]any{"order_id": 7})
	require.NoError(t, err)

	calls := 0
	count := func(*mq.Event, map[string]any) error {
		calls++
		return nil
	}
	for i := 0; i < 2; i++ {
		d, ack := delivery(string(body), evt.EventID)
		handle(d, dedup, count)
		assert.Equal(t, 1, ack.acks)
	}
	assert.Equal(t, 1, calls)
}

func TestDescribePaymentOutcome(t *testing.T) {
	tests := []struct {
		eventType string
		payload   map[string]any
		want      string
	}{
		{mq.EventPaymentApproved, map[string]any{"order_status": "confirmed"}, "notify buyer: payment approved, order confirmed"},
		{mq.EventPaymentApproved, map[string]any{"order_status": "shipped"}, "notify buyer: payment approved, order remains shipped"},
		{mq.EventPaymentApproved, map[string]any{}, "notify buyer: payment approved, order status unknown"},
		{mq.EventPaymentRejected, map[string]any{"order_status": "cancelled"}, "notify buyer: payment rejected, order cancelled"},
		{mq.EventPaymentRejected, map[string]any{"order_status": "delivered"}, "notify buyer: payment rejected, order remains delivered"},
		{"unknown.type", map[string]any{}, "unhandled event unknown.type"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, describe(tt.eventType, tt.payload))
	}
}
