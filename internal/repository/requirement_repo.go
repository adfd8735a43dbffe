package repository

import (
	"context"

	"github.com/sushmag0wda/Aims-Inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RequirementRepository interface {
	ListByDepartment(ctx context.Context, departmentID uuid.UUID) ([]model.DepartmentItemRequirement, error)
	Find(ctx context.Context, departmentID, itemID uuid.UUID) (*model.DepartmentItemRequirement, error)
	Create(ctx context.Context, req *model.DepartmentItemRequirement) error
	UpdateQty(ctx context.Context, id uuid.UUID, qty int) error
	// Upsert sets required_qty for (department, item).
	Upsert(ctx context.Context, req *model.DepartmentItemRequirement) error
}

type requirementRepo struct{ db *gorm.DB }

func NewRequirementRepository(db *gorm.DB) RequirementRepository {
	return &requirementRepo{db: db}
}

func (r *requirementRepo) ListByDepartment(ctx context.Context, departmentID uuid.UUID) ([]model.DepartmentItemRequirement, error) {
	var out []model.DepartmentItemRequirement
	err := r.db.WithContext(ctx).Preload("Item").
		Where("department_id = ?", departmentID).
		Find(&out).Error
	return out, err
}

func (r *requirementRepo) Upsert(ctx context.Context, req *model.DepartmentItemRequirement) error {
	return r.db.WithContext(ctx).Omit("Department", "Item").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "department_id"}, {Name: "item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"required_qty", "updated_at"}),
		}).
		Create(req).Error
}

func (r *requirementRepo) Find(ctx context.Context, departmentID, itemID uuid.UUID) (*model.DepartmentItemRequirement, error) {
	var req model.DepartmentItemRequirement
	err := r.db.WithContext(ctx).
		Where("department_id = ? AND item_id = ?", departmentID, itemID).
		First(&req).Error
	return &req, err
}

func (r *requirementRepo) Create(ctx context.Context, req *model.DepartmentItemRequirement) error {
	return r.db.WithContext(ctx).Omit("Department", "Item").Create(req).Error
}

func (r *requirementRepo) UpdateQty(ctx context.Context, id uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).Model(&model.DepartmentItemRequirement{}).
		Where("id = ?", id).
		Update("required_qty", qty).Error
}
