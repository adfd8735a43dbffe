package service

import (
	"github.com/sushmag0wda/Aims-Inventory/internal/model"

	"github.com/google/uuid"
)

// Actor is the authenticated caller of a service operation. Behavior that
// differs between admins and stationery staff selects on Role.
type Actor struct {
	UserID   uuid.UUID
	Username string
	Role     model.Role
}

func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// ref returns the user id for nullable *_by_id columns.
func (a Actor) ref() *uuid.UUID {
	if a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}
