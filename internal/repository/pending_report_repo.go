package repository

import (
	"context"
	"errors"

	"github.com/sushmag0wda/Aims-Inventory/internal/model"

	"gorm.io/gorm"
)

type PendingReportRepository interface {
	// Upsert keys on (student, academic_year, year).
	Upsert(ctx context.Context, p *model.PendingReport) (created bool, err error)
	List(ctx context.Context, page, limit int) ([]model.PendingReport, int64, error)
	Count(ctx context.Context) (int64, error)
	// DeleteOrphans removes reports whose student no longer exists.
	DeleteOrphans(ctx context.Context) (int64, error)
	DeleteAllTx(tx *gorm.DB) error
}

type pendingReportRepo struct{ db *gorm.DB }

func NewPendingReportRepository(db *gorm.DB) PendingReportRepository {
	return &pendingReportRepo{db: db}
}

func (r *pendingReportRepo) Upsert(ctx context.Context, p *model.PendingReport) (bool, error) {
	var existing model.PendingReport
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND academic_year = ? AND year = ?", p.StudentID, p.AcademicYear, p.Year).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, r.db.WithContext(ctx).Omit("Student").Create(p).Error
	}
	if err != nil {
		return false, err
	}
	p.ID = existing.ID
	return false, r.db.WithContext(ctx).Omit("Student").Save(p).Error
}

func (r *pendingReportRepo) List(ctx context.Context, p, limit int) ([]model.PendingReport, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.PendingReport{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, size := page(p, limit)
	var out []model.PendingReport
	err := q.Order("usn, academic_year, year").Offset(offset).Limit(size).Find(&out).Error
	return out, total, err
}

func (r *pendingReportRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.PendingReport{}).Count(&n).Error
	return n, err
}

func (r *pendingReportRepo) DeleteOrphans(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("student_id NOT IN (?)", r.db.Model(&model.Student{}).Select("id")).
		Delete(&model.PendingReport{})
	return res.RowsAffected, res.Error
}

func (r *pendingReportRepo) DeleteAllTx(tx *gorm.DB) error {
	return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.PendingReport{}).Error
}
