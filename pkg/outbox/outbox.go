// Package outbox 实现事务性发件箱：业务写入与事件记录同库同事务，后台 Relay 负责投递到消息中间件
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/pizzashop/pkg/db"
)

// 消息状态
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusSent       = "sent"
	StatusDead       = "dead"
)

// Message outbox 记录
type Message struct {
	ID          string    `gorm:"type:varchar(36);primaryKey"`
	EventType   string    `gorm:"type:varchar(100);index"`
	AggregateID string    `gorm:"type:varchar(64);index"`
	Payload     string    `gorm:"type:text"`
	Status      string    `gorm:"type:varchar(20);index;default:'pending'"`
	Attempts    int       `gorm:"not null;default:0"`
	LastError   string    `gorm:"type:varchar(512)"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
}

// TableName 指定表名
func (Message) TableName() string {
	return "outbox_messages"
}

// Publisher 把事件写入 outbox 表。ctx 上有事务时随业务事务一起提交
type Publisher struct {
	db *db.DB
}

// NewPublisher 创建发件箱写入器
func NewPublisher(database *db.DB) *Publisher {
	return &Publisher{db: database}
}

// Publish 序列化事件并写入 outbox
func (p *Publisher) Publish(ctx context.Context, eventType, aggregateID string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	msg := Message{
		ID:          uuid.NewString(),
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     string(payload),
		Status:      StatusPending,
	}
	if err := db.Conn(ctx, p.db.DB).Create(&msg).Error; err != nil {
		return fmt.Errorf("failed to write outbox message: %w", err)
	}
	return nil
}
