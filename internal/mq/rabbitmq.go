package mq

// 业务事件总线：topic 交换机 + 通知队列 + 死信队列。
// 生产端是一组开启 Confirm 的通道，消费端单独建连接。

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Shallom032/Farmers-Backend-DB/config"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/logger"
	"github.com/streadway/amqp"
)

var (
	ErrPublisherClosed = errors.New("mq publisher closed")
	ErrNoChannel       = errors.New("mq: no idle channel")
)

// acquireTimeout 借不到通道时放弃，事件发布不能拖慢请求
const acquireTimeout = 200 * time.Millisecond

// DeadLetterExchange 被拒绝(requeue=false)的消息转发到这里
func DeadLetterExchange(exchange string) string {
	return exchange + ".dlx"
}

// DeadLetterQueue 通知队列对应的死信队列
func DeadLetterQueue(queue string) string {
	return queue + ".dlq"
}

func amqpURL(cfg *config.MQConfig) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.User, cfg.Password, cfg.Host, cfg.Port)
}

// Publisher 一个连接 + 固定数量的 Confirm 通道
type Publisher struct {
	conn     *amqp.Connection
	exchange string
	idle     chan *amqp.Channel

	mu     sync.Mutex
	closed bool
}

// NewPublisher 建连接、开通道并声明交换机
func NewPublisher(cfg *config.MQConfig) (*Publisher, error) {
	conn, err := amqp.Dial(amqpURL(cfg))
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	size := cfg.ChannelPoolSize
	if size <= 0 {
		size = 8
	}
	p := &Publisher{conn: conn, exchange: cfg.Exchange, idle: make(chan *amqp.Channel, size)}

	if err := p.declareExchange(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	for i := 0; i < size; i++ {
		ch, err := p.openChannel()
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		p.idle <- ch
	}
	logger.Info("mq publisher ready", "exchange", cfg.Exchange, "channels", size)
	return p, nil
}

func (p *Publisher) declareExchange() error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}
	return nil
}

// openChannel 开启 Confirm，Nack 只记日志
func (p *Publisher) openChannel() (*amqp.Channel, error) {
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("enable confirm: %w", err)
	}
	confirms := ch.NotifyPublish(make(chan amqp.Confirmation, 256))
	go func() {
		for cf := range confirms {
			if !cf.Ack {
				logger.Warn("event publish nacked by broker", "delivery_tag", cf.DeliveryTag)
			}
		}
	}()
	return ch, nil
}

// PublishAsyncWithID 不等待确认；messageID 即事件 id，消费端据此去重
func (p *Publisher) PublishAsyncWithID(exchange, key string, body []byte, messageID string) error {
	var ch *amqp.Channel
	select {
	case c, ok := <-p.idle:
		if !ok {
			return ErrPublisherClosed
		}
		ch = c
	case <-time.After(acquireTimeout):
		return ErrNoChannel
	}

	err := ch.Publish(exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID,
		Timestamp:    time.Now(),
	})
	if errors.Is(err, amqp.ErrClosed) {
		// 通道被 broker 关掉，换一个新的放回池里
		if fresh, openErr := p.openChannel(); openErr == nil {
			ch = fresh
		} else {
			logger.Warn("reopen mq channel failed", "err", openErr)
		}
	}
	p.put(ch)
	return err
}

func (p *Publisher) put(ch *amqp.Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		_ = ch.Close()
		return
	}
	p.idle <- ch
}

func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.idle)
	for ch := range p.idle {
		_ = ch.Close()
	}
	_ = p.conn.Close()
}

// Consumer 消费者独占的连接与通道
type Consumer struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	Deliveries <-chan amqp.Delivery
}

// ConsumerOptions BindKeys 为空时订阅全部事件("#")
type ConsumerOptions struct {
	Queue    string
	BindKeys []string
	Prefetch int
}

// NewConsumer 声明 交换机/死信/队列 并开始消费，手动 ack
func NewConsumer(cfg *config.MQConfig, opts ConsumerOptions) (*Consumer, error) {
	conn, err := amqp.Dial(amqpURL(cfg))
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	c := &Consumer{conn: conn, ch: ch}

	if err := declareQueue(ch, cfg.Exchange, opts); err != nil {
		c.Close()
		return nil, err
	}
	if opts.Prefetch > 0 {
		if err := ch.Qos(opts.Prefetch, 0, false); err != nil {
			c.Close()
			return nil, fmt.Errorf("set qos: %w", err)
		}
	}
	c.Deliveries, err = ch.Consume(opts.Queue, "", false, false, false, false, nil)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("consume %s: %w", opts.Queue, err)
	}
	return c, nil
}

// declareQueue 队列挂死信交换机，解析失败的消息进 .dlq 等人工处理
func declareQueue(ch *amqp.Channel, exchange string, opts ConsumerOptions) error {
	dlx := DeadLetterExchange(exchange)
	dlq := DeadLetterQueue(opts.Queue)

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	if err := ch.ExchangeDeclare(dlx, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", dlx, err)
	}
	if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", dlq, err)
	}
	if err := ch.QueueBind(dlq, "", dlx, false, nil); err != nil {
		return fmt.Errorf("bind %s: %w", dlq, err)
	}

	args := amqp.Table{"x-dead-letter-exchange": dlx}
	if _, err := ch.QueueDeclare(opts.Queue, true, false, false, false, args); err != nil {
		return fmt.Errorf("declare queue %s: %w", opts.Queue, err)
	}
	keys := opts.BindKeys
	if len(keys) == 0 {
		keys = []string{"#"}
	}
	for _, k := range keys {
		if err := ch.QueueBind(opts.Queue, k, exchange, false, nil); err != nil {
			return fmt.Errorf("bind %s -> %s: %w", k, opts.Queue, err)
		}
	}
	return nil
}

func (c *Consumer) Close() {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}
