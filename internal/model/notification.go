package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification types.
const (
	NotifyUserSignup  = "user_signup"
	NotifyApproval    = "approval"
	NotifyHelpMessage = "help_message"
	NotifyHelpReply   = "help_reply"
)

// Notification is an in-app message for a single recipient.
type Notification struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RecipientID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	Message       string     `gorm:"type:varchar(500);not null"`
	Link          string     `gorm:"type:varchar(255);not null;default:''"`
	Type          string     `gorm:"column:notification_type;type:varchar(30);not null;default:''"`
	RelatedUserID *uuid.UUID `gorm:"type:uuid;index"`
	IsRead        bool       `gorm:"not null;default:false"`
	CreatedAt     time.Time  `gorm:"index"`

	Recipient *User `gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE"`
}

// HelpThread is the single help-center conversation of a user.
type HelpThread struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// HelpMessage read/deleted flags are tracked per side of the conversation.
type HelpMessage struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ThreadID       uuid.UUID `gorm:"type:uuid;not null;index"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null"`
	Content        string    `gorm:"type:text;not null"`
	IsAdminRead    bool      `gorm:"not null;default:false"`
	IsUserRead     bool      `gorm:"not null;default:false"`
	IsAdminDeleted bool      `gorm:"not null;default:false"`
	IsUserDeleted  bool      `gorm:"not null;default:false"`
	CreatedAt      time.Time `gorm:"index"`

	Thread *HelpThread `gorm:"foreignKey:ThreadID;constraint:OnDelete:CASCADE"`
}
