// Package mq 提供事件投递通道：Kafka、RabbitMQ 以及仅记录日志的空实现，并支持死信队列
package mq

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wyfcoding/pizzashop/pkg/logger"
)

// Message 待投递的消息
type Message struct {
	ID      string
	Topic   string
	Key     string
	Value   []byte
	Headers map[string]string
	Time    time.Time
}

// UnmarshalPayload 将消息值解析为 JSON
func (m *Message) UnmarshalPayload(dest any) error {
	return json.Unmarshal(m.Value, dest)
}

// Sender 消息投递接口
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// NoopSender 不连接任何中间件，只打日志，用于本地开发
type NoopSender struct{}

func (NoopSender) Send(ctx context.Context, msg Message) error {
	logger.Debug(ctx, "event dropped by noop sender", "topic", msg.Topic, "key", msg.Key, "id", msg.ID)
	return nil
}

func (NoopSender) Close() error { return nil }

// DeadLetterQueue 死信队列处理
type DeadLetterQueue struct {
	sender Sender
	topic  string
}

// NewDeadLetterQueue 创建死信队列
func NewDeadLetterQueue(sender Sender, topic string) *DeadLetterQueue {
	return &DeadLetterQueue{
		sender: sender,
		topic:  topic,
	}
}

// Topic 死信 topic
func (dlq *DeadLetterQueue) Topic() string { return dlq.topic }

// Send 发送消息到死信队列
func (dlq *DeadLetterQueue) Send(ctx context.Context, original Message, reason string, err error) error {
	failure := ""
	if err != nil {
		failure = err.Error()
	}
	body, mErr := json.Marshal(map[string]any{
		"original_id":       original.ID,
		"original_topic":    original.Topic,
		"original_key":      original.Key,
		"original_value":    string(original.Value),
		"failure_reason":    reason,
		"failure_error":     failure,
		"failure_timestamp": time.Now().UTC(),
	})
	if mErr != nil {
		return mErr
	}

	return dlq.sender.Send(ctx, Message{
		ID:    original.ID,
		Topic: dlq.topic,
		Key:   original.Key,
		Value: body,
		Time:  time.Now().UTC(),
	})
}
