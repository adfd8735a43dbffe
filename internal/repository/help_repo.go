package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sushmag0wda/Aims-Inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Read and deleted flags of a help message exist once per side of the
// conversation; side is the role whose flags are consulted.
func readColumn(side model.Role) string {
	if side == model.RoleAdmin {
		return "is_admin_read"
	}
	return "is_user_read"
}

func deletedColumn(side model.Role) string {
	if side == model.RoleAdmin {
		return "is_admin_deleted"
	}
	return "is_user_deleted"
}

type HelpRepository interface {
	FindThreadByUser(ctx context.Context, userID uuid.UUID) (*model.HelpThread, error)
	GetOrCreateThread(ctx context.Context, userID uuid.UUID) (*model.HelpThread, error)
	TouchThread(ctx context.Context, threadID uuid.UUID) error

	// ListMessages returns the messages of a thread visible to side, oldest first.
	ListMessages(ctx context.Context, threadID uuid.UUID, side model.Role) ([]model.HelpMessage, error)
	LastMessage(ctx context.Context, threadID uuid.UUID, side model.Role) (*model.HelpMessage, error)
	CreateMessage(ctx context.Context, m *model.HelpMessage) error
	FindMessage(ctx context.Context, id uuid.UUID) (*model.HelpMessage, error)
	// SoftDeleteMessage hides one message from side.
	SoftDeleteMessage(ctx context.Context, id uuid.UUID, side model.Role) error

	// MarkRead flags as read, for side, every visible message not sent by reader.
	MarkRead(ctx context.Context, threadID uuid.UUID, side model.Role, reader uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, threadID uuid.UUID, side model.Role, reader uuid.UUID) (int64, error)
	// ClearForSide hides every message of the thread from side.
	ClearForSide(ctx context.Context, threadID uuid.UUID, side model.Role) (int64, error)
}

type helpRepo struct{ db *gorm.DB }

func NewHelpRepository(db *gorm.DB) HelpRepository { return &helpRepo{db: db} }

func (r *helpRepo) FindThreadByUser(ctx context.Context, userID uuid.UUID) (*model.HelpThread, error) {
	var t model.HelpThread
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&t).Error
	return &t, err
}

func (r *helpRepo) GetOrCreateThread(ctx context.Context, userID uuid.UUID) (*model.HelpThread, error) {
	t := &model.HelpThread{UserID: userID}
	err := r.db.WithContext(ctx).Omit("User").
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(t).Error
	if err != nil {
		return nil, err
	}
	return r.FindThreadByUser(ctx, userID)
}

func (r *helpRepo) TouchThread(ctx context.Context, threadID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.HelpThread{}).Where("id = ?", threadID).
		Update("updated_at", time.Now()).Error
}

func (r *helpRepo) visible(ctx context.Context, threadID uuid.UUID, side model.Role) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.HelpMessage{}).
		Where("thread_id = ?", threadID).
		Where(deletedColumn(side) + " = false")
}

func (r *helpRepo) ListMessages(ctx context.Context, threadID uuid.UUID, side model.Role) ([]model.HelpMessage, error) {
	var out []model.HelpMessage
	err := r.visible(ctx, threadID, side).Order("created_at ASC").Find(&out).Error
	return out, err
}

func (r *helpRepo) LastMessage(ctx context.Context, threadID uuid.UUID, side model.Role) (*model.HelpMessage, error) {
	var m model.HelpMessage
	err := r.visible(ctx, threadID, side).Order("created_at DESC").First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &m, err
}

func (r *helpRepo) CreateMessage(ctx context.Context, m *model.HelpMessage) error {
	return r.db.WithContext(ctx).Omit("Thread").Create(m).Error
}

func (r *helpRepo) FindMessage(ctx context.Context, id uuid.UUID) (*model.HelpMessage, error) {
	var m model.HelpMessage
	err := r.db.WithContext(ctx).Preload("Thread").First(&m, "id = ?", id).Error
	return &m, err
}

func (r *helpRepo) SoftDeleteMessage(ctx context.Context, id uuid.UUID, side model.Role) error {
	return r.db.WithContext(ctx).Model(&model.HelpMessage{}).Where("id = ?", id).
		Update(deletedColumn(side), true).Error
}

func (r *helpRepo) MarkRead(ctx context.Context, threadID uuid.UUID, side model.Role, reader uuid.UUID) (int64, error) {
	res := r.visible(ctx, threadID, side).
		Where("sender_id <> ?", reader).
		Where(readColumn(side) + " = false").
		Update(readColumn(side), true)
	return res.RowsAffected, res.Error
}

func (r *helpRepo) CountUnread(ctx context.Context, threadID uuid.UUID, side model.Role, reader uuid.UUID) (int64, error) {
	var n int64
	err := r.visible(ctx, threadID, side).
		Where("sender_id <> ?", reader).
		Where(readColumn(side) + " = false").
		Count(&n).Error
	return n, err
}

func (r *helpRepo) ClearForSide(ctx context.Context, threadID uuid.UUID, side model.Role) (int64, error) {
	res := r.visible(ctx, threadID, side).Update(deletedColumn(side), true)
	return res.RowsAffected, res.Error
}
