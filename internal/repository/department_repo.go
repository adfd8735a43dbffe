package repository

import (
	"context"
	"strings"

	"github.com/sushmag0wda/Aims-Inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DepartmentFilter narrows department listings; empty fields are ignored.
type DepartmentFilter struct {
	CourseCode   string
	Course       string
	AcademicYear string
	Year         string
	Page         int
	Limit        int
}

type DepartmentRepository interface {
	Create(ctx context.Context, d *model.Department) error
	Update(ctx context.Context, d *model.Department) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Department, error)
	List(ctx context.Context, filter DepartmentFilter) ([]model.Department, int64, error)
	All(ctx context.Context) ([]model.Department, error)
	// FindByCohortFold is a case-insensitive exact match on all four cohort fields.
	FindByCohortFold(ctx context.Context, code, course, ay, year string) (*model.Department, error)
	// FindByUniqueKey matches the columns of the DB unique index (course ignored).
	FindByUniqueKey(ctx context.Context, code, ay, year string) (*model.Department, error)
	Count(ctx context.Context) (int64, error)
	// WithTx returns a repository bound to tx; a nil tx returns the receiver.
	WithTx(tx *gorm.DB) DepartmentRepository
}

type departmentRepo struct{ db *gorm.DB }

func NewDepartmentRepository(db *gorm.DB) DepartmentRepository { return &departmentRepo{db: db} }

func (r *departmentRepo) WithTx(tx *gorm.DB) DepartmentRepository {
	if tx == nil {
		return r
	}
	return &departmentRepo{db: tx}
}

// Create runs in its own savepoint when r is bound to a transaction, so a
// unique violation leaves the outer transaction usable.
func (r *departmentRepo) Create(ctx context.Context, d *model.Department) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(d).Error
	})
}

func (r *departmentRepo) Update(ctx context.Context, d *model.Department) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *departmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Department{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *departmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	var d model.Department
	err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error
	return &d, err
}

func (r *departmentRepo) List(ctx context.Context, filter DepartmentFilter) ([]model.Department, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Department{})
	if filter.CourseCode != "" {
		q = q.Where("UPPER(course_code) = ?", strings.ToUpper(filter.CourseCode))
	}
	if filter.Course != "" {
		q = q.Where("UPPER(course) = ?", strings.ToUpper(filter.Course))
	}
	if filter.AcademicYear != "" {
		q = q.Where("UPPER(academic_year) = ?", strings.ToUpper(filter.AcademicYear))
	}
	if filter.Year != "" {
		q = q.Where("year = ?", filter.Year)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := page(filter.Page, filter.Limit)
	var out []model.Department
	err := q.Order("course_code, academic_year DESC, year").Offset(offset).Limit(limit).Find(&out).Error
	return out, total, err
}

func (r *departmentRepo) All(ctx context.Context) ([]model.Department, error) {
	var out []model.Department
	err := r.db.WithContext(ctx).Order("created_at").Find(&out).Error
	return out, err
}

func (r *departmentRepo) FindByCohortFold(ctx context.Context, code, course, ay, year string) (*model.Department, error) {
	var d model.Department
	err := r.db.WithContext(ctx).
		Where("UPPER(TRIM(course_code)) = ? AND UPPER(TRIM(course)) = ? AND UPPER(TRIM(academic_year)) = ? AND UPPER(TRIM(year)) = ?",
			strings.ToUpper(code), strings.ToUpper(course), strings.ToUpper(ay), strings.ToUpper(year)).
		First(&d).Error
	return &d, err
}

func (r *departmentRepo) FindByUniqueKey(ctx context.Context, code, ay, year string) (*model.Department, error) {
	var d model.Department
	err := r.db.WithContext(ctx).
		Where("course_code = ? AND academic_year = ? AND year = ?", code, ay, year).
		First(&d).Error
	return &d, err
}

func (r *departmentRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Department{}).Count(&n).Error
	return n, err
}
