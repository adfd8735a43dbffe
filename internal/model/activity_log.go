package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ActivityLog is the append-only audit trail shown on the dashboard.
type ActivityLog struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID      *uuid.UUID        `gorm:"type:uuid;index"`
	Action      string            `gorm:"type:varchar(50);not null;index"`
	Description string            `gorm:"type:text;not null"`
	Details     datatypes.JSONMap `gorm:"type:jsonb"`
	Timestamp   time.Time         `gorm:"not null;index"`
}
