// Package outbox persists outbound notifications as a task queue so
// transient provider failures never add latency or errors to the request
// path, and retries can be scheduled independently.
package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/example/opticstore/pkg/config"
	"github.com/example/opticstore/pkg/notify"
)

const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

type Notification struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Channel       string    `gorm:"type:varchar(10);not null;index" json:"channel"`
	Recipient     string    `gorm:"type:varchar(255);not null" json:"recipient"`
	Subject       string    `gorm:"type:varchar(255)" json:"subject"`
	Body          string    `gorm:"type:text" json:"body"`
	Status        string    `gorm:"type:varchar(10);default:'pending';index" json:"status"`
	Attempts      int       `json:"attempts"`
	NextAttemptAt time.Time `gorm:"index" json:"next_attempt_at"`
	LastError     string    `gorm:"type:varchar(512)" json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Notification) TableName() string {
	return "notification_outbox"
}

// Queue is the MySQL-backed notification queue. It implements the
// service-layer Notifier.
type Queue struct {
	db *gorm.DB
}

func NewQueue(cfg *config.MySQLConfig) (*Queue, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}
	if err := db.AutoMigrate(&Notification{}); err != nil {
		return nil, fmt.Errorf("failed to migrate outbox: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	return &Queue{db: db}, nil
}

func (q *Queue) Close() error {
	sqlDB, err := q.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (q *Queue) EnqueueEmail(ctx context.Context, recipient, subject, body string) error {
	return q.enqueue(ctx, notify.ChannelEmail, recipient, subject, body)
}

func (q *Queue) EnqueueSMS(ctx context.Context, recipient, body string) error {
	return q.enqueue(ctx, notify.ChannelSMS, recipient, "", body)
}

func (q *Queue) enqueue(ctx context.Context, channel, recipient, subject, body string) error {
	row := &Notification{
		ID:            uuid.NewString(),
		Channel:       channel,
		Recipient:     recipient,
		Subject:       subject,
		Body:          body,
		Status:        StatusPending,
		NextAttemptAt: time.Now(),
	}
	return q.db.WithContext(ctx).Create(row).Error
}

// Due returns pending rows whose next attempt time has passed, oldest
// first.
func (q *Queue) Due(ctx context.Context, now time.Time, limit int) ([]Notification, error) {
	var rows []Notification
	err := q.db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", StatusPending, now).
		Order("next_attempt_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// MarkSent finalizes a delivered row.
func (q *Queue) MarkSent(ctx context.Context, id string) error {
	return q.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     StatusSent,
			"last_error": "",
		}).Error
}

// retryDelay is the wait before attempt n+1, doubling per failed attempt.
// A zero duration means the attempt budget is spent and the row fails.
func retryDelay(attempts, maxAttempts int, base time.Duration) time.Duration {
	if attempts >= maxAttempts {
		return 0
	}
	return base << (attempts - 1)
}

// MarkFailed records a failed attempt, scheduling a retry or giving up once
// the attempt budget is spent.
func (q *Queue) MarkFailed(ctx context.Context, row *Notification, sendErr error, maxAttempts int, backoff time.Duration) error {
	row.Attempts++
	updates := map[string]interface{}{
		"attempts":   row.Attempts,
		"last_error": sendErr.Error(),
	}
	if delay := retryDelay(row.Attempts, maxAttempts, backoff); delay == 0 {
		updates["status"] = StatusFailed
	} else {
		updates["next_attempt_at"] = time.Now().Add(delay)
	}
	return q.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ?", row.ID).
		Updates(updates).Error
}
