package mq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wyfcoding/pizzashop/pkg/logger"
)

// AMQPPublisher 向 topic exchange 投递消息，开启 publisher confirms，Send 等到 broker ack 才返回
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	acks     <-chan amqp.Confirmation
	exchange string

	mu sync.Mutex // confirms 模式下串行发布
}

// NewAMQPPublisher 连接 RabbitMQ 并声明 exchange
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}
	acks := ch.NotifyPublish(make(chan amqp.Confirmation, 1))

	logger.Info(context.Background(), "RabbitMQ publisher created successfully", "exchange", exchange)
	return &AMQPPublisher{conn: conn, ch: ch, acks: acks, exchange: exchange}, nil
}

// Send 以 topic 作为 routing key 发布持久化消息
func (p *AMQPPublisher) Send(ctx context.Context, msg Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}

	err := p.ch.PublishWithContext(ctx, p.exchange, msg.Topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Timestamp:    msg.Time,
		Headers:      headers,
		Body:         msg.Value,
	})
	if err != nil {
		logger.Error(ctx, "Failed to publish AMQP message", "routing_key", msg.Topic, "error", err)
		return err
	}

	select {
	case conf, ok := <-p.acks:
		if !ok {
			return errors.New("rabbitmq confirm channel closed")
		}
		if !conf.Ack {
			return fmt.Errorf("rabbitmq nacked delivery %d", conf.DeliveryTag)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close 关闭通道与连接
func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
