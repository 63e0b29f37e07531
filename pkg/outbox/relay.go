package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/wyfcoding/pizzashop/pkg/db"
	"github.com/wyfcoding/pizzashop/pkg/logger"
	"github.com/wyfcoding/pizzashop/pkg/metrics"
	"github.com/wyfcoding/pizzashop/pkg/mq"
	"gorm.io/gorm/clause"
)

// RelayConfig 投递参数
type RelayConfig struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
	// 单次投递内的即时重试次数
	SendRetries uint
	// 认领后超过该时长仍未回写的消息可被重新认领
	ClaimTimeout time.Duration
}

// Relay 轮询 outbox 表并投递
type Relay struct {
	db      *db.DB
	sender  mq.Sender
	dlq     *mq.DeadLetterQueue
	metrics *metrics.Metrics
	cfg     RelayConfig
}

// NewRelay 创建 Relay，dlq 与 m 可为空
func NewRelay(database *db.DB, sender mq.Sender, dlq *mq.DeadLetterQueue, m *metrics.Metrics, cfg RelayConfig) *Relay {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.SendRetries == 0 {
		cfg.SendRetries = 1
	}
	if cfg.ClaimTimeout <= 0 {
		cfg.ClaimTimeout = time.Minute
	}
	return &Relay{db: database, sender: sender, dlq: dlq, metrics: m, cfg: cfg}
}

// Run 按间隔处理，直到 ctx 取消
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	logger.Info(ctx, "outbox relay started", "interval", r.cfg.Interval, "batch_size", r.cfg.BatchSize)
	for {
		select {
		case <-ctx.Done():
			logger.Info(context.Background(), "outbox relay stopped")
			return nil
		case <-ticker.C:
			if _, err := r.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
				logger.Error(ctx, "outbox relay batch failed", "error", err)
			}
		}
	}
}

// ProcessBatch 处理一批待投递消息，返回成功投递条数。
// 先在短事务内认领并提交，投递在事务外进行，行锁不跨越 broker 调用
func (r *Relay) ProcessBatch(ctx context.Context) (int, error) {
	batch, err := r.claim(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	tx := db.Conn(ctx, r.db.DB)
	for i := range batch {
		m := &batch[i]
		if err := r.deliver(ctx, m); err != nil {
			m.Status = StatusPending
			r.fail(ctx, m, err)
		} else {
			m.Status = StatusSent
			m.LastError = ""
			sent++
			r.metrics.RecordOutbox(m.EventType, "sent")
		}
		// 只回写仍由本次认领持有的记录
		res := tx.Model(&Message{}).
			Where("id = ? AND status = ?", m.ID, StatusProcessing).
			Updates(map[string]any{
				"status":     m.Status,
				"attempts":   m.Attempts,
				"last_error": m.LastError,
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return sent, fmt.Errorf("failed to update outbox message %s: %w", m.ID, res.Error)
		}
	}
	return sent, nil
}

// claim 把一批待投递或租约已过期的消息标记为 processing
func (r *Relay) claim(ctx context.Context) ([]Message, error) {
	var batch []Message
	err := r.db.Transaction(ctx, func(ctx context.Context) error {
		tx := db.Conn(ctx, r.db.DB)
		now := time.Now()

		q := tx.Where("status = ? OR (status = ? AND updated_at < ?)",
			StatusPending, StatusProcessing, now.Add(-r.cfg.ClaimTimeout)).
			Order("created_at, id").
			Limit(r.cfg.BatchSize)
		if tx.Dialector.Name() != "sqlite" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		if err := q.Find(&batch).Error; err != nil {
			return fmt.Errorf("failed to load outbox batch: %w", err)
		}
		if len(batch) == 0 {
			return nil
		}

		ids := make([]string, len(batch))
		for i := range batch {
			ids[i] = batch[i].ID
			batch[i].Status = StatusProcessing
		}
		if err := tx.Model(&Message{}).Where("id IN ?", ids).
			Updates(map[string]any{"status": StatusProcessing, "updated_at": now}).Error; err != nil {
			return fmt.Errorf("failed to claim outbox batch: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (r *Relay) deliver(ctx context.Context, m *Message) error {
	msg := toMQ(m)
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, r.sender.Send(ctx, msg)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(r.cfg.SendRetries),
	)
	return err
}

func (r *Relay) fail(ctx context.Context, m *Message, err error) {
	m.Attempts++
	m.LastError = truncate(err.Error(), 512)

	if m.Attempts < r.cfg.MaxAttempts {
		r.metrics.RecordOutbox(m.EventType, "retry")
		logger.Warn(ctx, "outbox delivery failed", "id", m.ID, "event_type", m.EventType, "attempts", m.Attempts, "error", err)
		return
	}

	m.Status = StatusDead
	r.metrics.RecordOutbox(m.EventType, "dead")
	logger.Error(ctx, "outbox message moved to dead letter", "id", m.ID, "event_type", m.EventType, "error", err)
	if r.dlq != nil {
		if dlqErr := r.dlq.Send(ctx, toMQ(m), "max attempts exceeded", err); dlqErr != nil {
			logger.Error(ctx, "dead letter send failed", "id", m.ID, "error", dlqErr)
		}
	}
}

// Cleanup 清理早于 before 的已投递消息
func (r *Relay) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	res := db.Conn(ctx, r.db.DB).Where("status = ? AND updated_at < ?", StatusSent, before).Delete(&Message{})
	return res.RowsAffected, res.Error
}

func toMQ(m *Message) mq.Message {
	return mq.Message{
		ID:      m.ID,
		Topic:   m.EventType,
		Key:     m.AggregateID,
		Value:   []byte(m.Payload),
		Headers: map[string]string{"event_type": m.EventType},
		Time:    m.CreatedAt,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
