package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Action string

const (
	ActionCreate  Action = "create"
	ActionRead    Action = "read"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionPredict Action = "predict"
)

// Log is one entry in the per-owner access trail. Entries are append-only and
// written asynchronously off the request path.
type Log struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OccurredAt time.Time `gorm:"autoCreateTime;index"`

	Owner     string `gorm:"column:owner;type:varchar(255);not null;index"`
	IPAddress string `gorm:"column:ip_address;type:varchar(45)"` // Supports IPv6

	Action     Action `gorm:"column:action;type:varchar(20);not null;index"`
	RecordID   string `gorm:"column:record_id;type:varchar(50);index"`
	RequestID  string `gorm:"column:request_id;type:varchar(50);index"`
	StatusCode int    `gorm:"column:status_code"`
}

func (Log) TableName() string {
	return "audit.logs"
}

type Repository interface {
	Create(ctx context.Context, entry *Log) error
}
