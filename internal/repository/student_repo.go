package repository

import (
	"context"
	"strings"

	"github.com/sushmag0wda/Aims-Inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StudentFilter narrows student listings.
type StudentFilter struct {
	DepartmentID *uuid.UUID
	Search       string // matches usn or name
	Page         int
	Limit        int
}

type StudentRepository interface {
	Create(ctx context.Context, s *model.Student) error
	Update(ctx context.Context, s *model.Student) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByUSN(ctx context.Context, usn string) (*model.Student, error)
	List(ctx context.Context, filter StudentFilter) ([]model.Student, int64, error)
	ListAll(ctx context.Context) ([]model.Student, error)
	// CreateBatchIgnoreConflicts inserts rows and silently drops those whose
	// usn already exists.
	CreateBatchIgnoreConflicts(ctx context.Context, students []model.Student) error
	Count(ctx context.Context) (int64, error)
	DeleteAllTx(tx *gorm.DB) error
	// WithTx returns a repository bound to tx; a nil tx returns the receiver.
	WithTx(tx *gorm.DB) StudentRepository
}

type studentRepo struct{ db *gorm.DB }

func NewStudentRepository(db *gorm.DB) StudentRepository { return &studentRepo{db: db} }

func (r *studentRepo) WithTx(tx *gorm.DB) StudentRepository {
	if tx == nil {
		return r
	}
	return &studentRepo{db: tx}
}

func (r *studentRepo) Create(ctx context.Context, s *model.Student) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *studentRepo) Update(ctx context.Context, s *model.Student) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(s).Error
}

func (r *studentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Student{}, "id = ?", id).Error
}

func (r *studentRepo) FindByUSN(ctx context.Context, usn string) (*model.Student, error) {
	var s model.Student
	err := r.db.WithContext(ctx).Preload("Department").Where("usn = ?", usn).First(&s).Error
	return &s, err
}

func (r *studentRepo) List(ctx context.Context, filter StudentFilter) ([]model.Student, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Student{})
	if filter.DepartmentID != nil {
		q = q.Where("department_id = ?", *filter.DepartmentID)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToUpper(s) + "%"
		q = q.Where("UPPER(usn) LIKE ? OR UPPER(name) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := page(filter.Page, filter.Limit)
	var out []model.Student
	err := q.Preload("Department").Order("usn").Offset(offset).Limit(limit).Find(&out).Error
	return out, total, err
}

func (r *studentRepo) ListAll(ctx context.Context) ([]model.Student, error) {
	var out []model.Student
	err := r.db.WithContext(ctx).Preload("Department").Order("usn").Find(&out).Error
	return out, err
}

func (r *studentRepo) CreateBatchIgnoreConflicts(ctx context.Context, students []model.Student) error {
	if len(students) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "usn"}}, DoNothing: true}).
		CreateInBatches(students, 200).Error
}

func (r *studentRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Student{}).Count(&n).Error
	return n, err
}

func (r *studentRepo) DeleteAllTx(tx *gorm.DB) error {
	return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Student{}).Error
}

// ── Enrollments ─────────────────────────────────────────────────────────────

// EnrollmentFilter narrows enrollment listings.
type EnrollmentFilter struct {
	StudentID    *uuid.UUID
	DepartmentID *uuid.UUID
	AcademicYear string
	Year         string
	Page         int
	Limit        int
}

type EnrollmentRepository interface {
	// GetOrCreate inserts e unless the (student, department, academic_year, year)
	// tuple already exists; created reports which happened.
	GetOrCreate(ctx context.Context, e *model.Enrollment) (created bool, err error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Enrollment, error)
	List(ctx context.Context, filter EnrollmentFilter) ([]model.Enrollment, int64, error)
	ListAll(ctx context.Context) ([]model.Enrollment, error)
	Count(ctx context.Context) (int64, error)
	DeleteAllTx(tx *gorm.DB) error
	WithTx(tx *gorm.DB) EnrollmentRepository
}

type enrollmentRepo struct{ db *gorm.DB }

func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository { return &enrollmentRepo{db: db} }

func (r *enrollmentRepo) WithTx(tx *gorm.DB) EnrollmentRepository {
	if tx == nil {
		return r
	}
	return &enrollmentRepo{db: tx}
}

func (r *enrollmentRepo) GetOrCreate(ctx context.Context, e *model.Enrollment) (bool, error) {
	res := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(e)
	return res.RowsAffected == 1, res.Error
}

func (r *enrollmentRepo) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Enrollment, error) {
	var out []model.Enrollment
	err := r.db.WithContext(ctx).Preload("Department").
		Where("student_id = ?", studentID).
		Order("year, created_at").
		Find(&out).Error
	return out, err
}

func (r *enrollmentRepo) List(ctx context.Context, filter EnrollmentFilter) ([]model.Enrollment, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Enrollment{})
	if filter.StudentID != nil {
		q = q.Where("student_id = ?", *filter.StudentID)
	}
	if filter.DepartmentID != nil {
		q = q.Where("department_id = ?", *filter.DepartmentID)
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
	var out []model.Enrollment
	err := q.Preload("Student").Preload("Department").
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&out).Error
	return out, total, err
}

func (r *enrollmentRepo) ListAll(ctx context.Context) ([]model.Enrollment, error) {
	var out []model.Enrollment
	err := r.db.WithContext(ctx).Preload("Student").Preload("Department").Find(&out).Error
	return out, err
}

func (r *enrollmentRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Enrollment{}).Count(&n).Error
	return n, err
}

func (r *enrollmentRepo) DeleteAllTx(tx *gorm.DB) error {
	return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Enrollment{}).Error
}
