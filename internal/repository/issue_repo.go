package repository

import (
	"context"
	"strings"

	"github.com/sushmag0wda/Aims-Inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IssueFilter narrows issue record listings.
type IssueFilter struct {
	StudentID *uuid.UUID
	ItemCode  string
	Page      int
	Limit     int
}

type IssueRepository interface {
	CreateTx(tx *gorm.DB, rec *model.IssueRecord) error
	// ListByStudent scopes to a cohort: academic year compared case-insensitively,
	// year exactly; empty values do not filter.
	ListByStudent(ctx context.Context, studentID uuid.UUID, ay, year string) ([]model.IssueRecord, error)
	List(ctx context.Context, filter IssueFilter) ([]model.IssueRecord, int64, error)
	SumIssued(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
	DeleteAllTx(tx *gorm.DB) error
}

type issueRepo struct{ db *gorm.DB }

func NewIssueRepository(db *gorm.DB) IssueRepository { return &issueRepo{db: db} }

func (r *issueRepo) CreateTx(tx *gorm.DB, rec *model.IssueRecord) error {
	return tx.Create(rec).Error
}

func (r *issueRepo) ListByStudent(ctx context.Context, studentID uuid.UUID, ay, year string) ([]model.IssueRecord, error) {
	q := r.db.WithContext(ctx).Where("student_id = ?", studentID)
	if ay != "" {
		q = q.Where("UPPER(academic_year) = ?", strings.ToUpper(ay))
	}
	if year != "" {
		q = q.Where("year = ?", year)
	}
	var out []model.IssueRecord
	err := q.Order("date_issued, created_at").Find(&out).Error
	return out, err
}

func (r *issueRepo) List(ctx context.Context, filter IssueFilter) ([]model.IssueRecord, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.IssueRecord{})
	if filter.StudentID != nil {
		q = q.Where("student_id = ?", *filter.StudentID)
	}
	if filter.ItemCode != "" {
		q = q.Where("UPPER(item_code) = ?", strings.ToUpper(filter.ItemCode))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := page(filter.Page, filter.Limit)
	var out []model.IssueRecord
	err := q.Preload("Student").Order("created_at DESC").Offset(offset).Limit(limit).Find(&out).Error
	return out, total, err
}

func (r *issueRepo) SumIssued(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.IssueRecord{}).Select("COALESCE(SUM(qty_issued), 0)").Scan(&total).Error
	return total, err
}

func (r *issueRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.IssueRecord{}).Count(&n).Error
	return n, err
}

func (r *issueRepo) DeleteAllTx(tx *gorm.DB) error {
	return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.IssueRecord{}).Error
}
