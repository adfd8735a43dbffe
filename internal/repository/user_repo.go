package repository

import (
	"context"

	"github.com/sushmag0wda/Aims-Inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserFilter narrows the user management listing.
type UserFilter struct {
	Search    string
	Status    model.ApprovalStatus
	ExcludeID *uuid.UUID
}

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	List(ctx context.Context, filter UserFilter) ([]model.User, error)
	Update(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListApprovedAdmins returns every approved admin, superusers included.
	ListApprovedAdmins(ctx context.Context) ([]model.User, error)
	// ListSuperAdmins returns the superusers, or the configured main admin
	// account when no superuser exists.
	ListSuperAdmins(ctx context.Context, superUsername string) ([]model.User, error)
	// ListHelpUsers returns approved non-superuser accounts other than exclude.
	ListHelpUsers(ctx context.Context, exclude uuid.UUID) ([]model.User, error)
}

type userRepo struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepo{db: db} }

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).Where("LOWER(username) = LOWER(?)", username).First(&u).Error
	return &u, err
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&u).Error
	return &u, err
}

func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	return &u, err
}

func (r *userRepo) List(ctx context.Context, filter UserFilter) ([]model.User, error) {
	q := r.db.WithContext(ctx).Model(&model.User{})
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("username ILIKE ? OR email ILIKE ?", like, like)
	}
	if filter.Status != "" {
		q = q.Where("approval_status = ?", filter.Status)
	}
	if filter.ExcludeID != nil {
		q = q.Where("id <> ?", *filter.ExcludeID)
	}
	var users []model.User
	err := q.Order("created_at DESC").Find(&users).Error
	return users, err
}

func (r *userRepo) Update(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.User{}, "id = ?", id).Error
}

func (r *userRepo) ListApprovedAdmins(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("(role = ? OR is_superuser = true) AND approval_status = ?", model.RoleAdmin, model.ApprovalApproved).
		Find(&users).Error
	return users, err
}

func (r *userRepo) ListSuperAdmins(ctx context.Context, superUsername string) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Where("is_superuser = true").Find(&users).Error; err != nil {
		return nil, err
	}
	if len(users) > 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Where("LOWER(username) = LOWER(?)", superUsername).Find(&users).Error
	return users, err
}

func (r *userRepo) ListHelpUsers(ctx context.Context, exclude uuid.UUID) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("approval_status = ? AND is_superuser = false AND id <> ?", model.ApprovalApproved, exclude).
		Order("username").Find(&users).Error
	return users, err
}
