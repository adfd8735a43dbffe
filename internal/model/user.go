package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the actor capability carried by every authenticated request.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleStationery Role = "stationery"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r == RoleAdmin || r == RoleStationery }

// ApprovalStatus gates login for self-registered accounts.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// User is an operator of the system (admin or stationery counter staff).
type User struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username       string         `gorm:"type:varchar(150);uniqueIndex;not null"`
	Email          string         `gorm:"type:varchar(254);not null;default:''"`
	PasswordHash   string         `gorm:"not null"`
	Role           Role           `gorm:"type:varchar(20);not null;default:'stationery'"`
	ApprovalStatus ApprovalStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	IsSuperuser    bool           `gorm:"not null;default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsSuperAdmin reports whether u is the main admin: any superuser, or the
// account whose username matches superUsername.
func (u *User) IsSuperAdmin(superUsername string) bool {
	if u == nil {
		return false
	}
	if u.IsSuperuser {
		return true
	}
	name := strings.ToLower(strings.TrimSpace(u.Username))
	return name != "" && name == strings.ToLower(strings.TrimSpace(superUsername))
}
