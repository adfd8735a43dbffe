package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sushmag0wda/Aims-Inventory/internal/cohort"
	"github.com/sushmag0wda/Aims-Inventory/internal/dto"
	"github.com/sushmag0wda/Aims-Inventory/internal/model"
	"github.com/sushmag0wda/Aims-Inventory/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// MaintenanceService holds the bulk repair jobs run by admins, either over
// HTTP or from cmd/maintenance.
type MaintenanceService interface {
	BackfillEnrollments(ctx context.Context, actor Actor) (*dto.BackfillEnrollmentsResponse, error)
	PurgeStudents(ctx context.Context, actor Actor) (*dto.PurgeResponse, error)
	GeneratePendingReports(ctx context.Context, actor Actor) (*dto.GeneratePendingResponse, error)
	ListPendingReports(ctx context.Context, page, limit int) (*dto.PageResponse[dto.PendingReportResponse], error)
}

type maintenanceService struct {
	tx             repository.Transactor
	departments    repository.DepartmentRepository
	students       repository.StudentRepository
	enrollments    repository.EnrollmentRepository
	items          repository.ItemRepository
	issues         repository.IssueRepository
	pendingReports repository.PendingReportRepository
	audit          AuditService
}

func NewMaintenanceService(
	tx repository.Transactor,
	departments repository.DepartmentRepository,
	students repository.StudentRepository,
	enrollments repository.EnrollmentRepository,
	items repository.ItemRepository,
	issues repository.IssueRepository,
	pendingReports repository.PendingReportRepository,
	audit AuditService,
) MaintenanceService {
	return &maintenanceService{
		tx:             tx,
		departments:    departments,
		students:       students,
		enrollments:    enrollments,
		items:          items,
		issues:         issues,
		pendingReports: pendingReports,
		audit:          audit,
	}
}

// BackfillEnrollments gives every student an enrollment in its home
// department's cohort. Students whose cohort is incomplete are skipped.
func (s *maintenanceService) BackfillEnrollments(ctx context.Context, actor Actor) (*dto.BackfillEnrollmentsResponse, error) {
	students, err := s.students.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	created := 0
	for i := range students {
		st := &students[i]
		if st.Department == nil {
			continue
		}
		ay := cohort.NormalizeAcademicYear(st.Department.AcademicYear)
		year := cohort.NormalizeYear(st.Year)
		if ay == "" || year == "" {
			continue
		}
		ok, err := s.enrollments.GetOrCreate(ctx, &model.Enrollment{
			StudentID:    st.ID,
			DepartmentID: st.DepartmentID,
			AcademicYear: ay,
			Year:         year,
		})
		if err != nil {
			return nil, err
		}
		if ok {
			created++
		}
	}
	s.audit.Record(ctx, actor, ActionEnrollmentBackfill, fmt.Sprintf("Backfilled enrollments: %d", created), nil)
	return &dto.BackfillEnrollmentsResponse{Created: created}, nil
}

func (s *maintenanceService) counts(ctx context.Context) (dto.DataCounts, error) {
	var c dto.DataCounts
	var err error
	if c.Students, err = s.students.Count(ctx); err != nil {
		return c, err
	}
	if c.Enrollments, err = s.enrollments.Count(ctx); err != nil {
		return c, err
	}
	if c.PendingReports, err = s.pendingReports.Count(ctx); err != nil {
		return c, err
	}
	if c.IssueRecords, err = s.issues.Count(ctx); err != nil {
		return c, err
	}
	if c.Departments, err = s.departments.Count(ctx); err != nil {
		return c, err
	}
	c.Items, err = s.items.Count(ctx)
	return c, err
}

// PurgeStudents deletes every student with its enrollments, issue records and
// pending reports. Departments and items are kept.
func (s *maintenanceService) PurgeStudents(ctx context.Context, actor Actor) (*dto.PurgeResponse, error) {
	before, err := s.counts(ctx)
	if err != nil {
		return nil, err
	}
	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.enrollments.DeleteAllTx(tx); err != nil {
			return err
		}
		if err := s.issues.DeleteAllTx(tx); err != nil {
			return err
		}
		if err := s.pendingReports.DeleteAllTx(tx); err != nil {
			return err
		}
		return s.students.DeleteAllTx(tx)
	})
	if err != nil {
		return nil, err
	}
	after, err := s.counts(ctx)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, ActionPurgeStudents, "Purged students, enrollments, pending reports, and issue records.",
		map[string]any{"students": before.Students, "issue_records": before.IssueRecords})
	log.Warn().Str("user", actor.Username).Int64("students", before.Students).Msg("student data purged")

	return &dto.PurgeResponse{
		Message: "Student-related data purged successfully.",
		Before:  before,
		After:   after,
	}, nil
}

// GeneratePendingReports upserts one report per enrollment holding the
// quantities the student still owes for that cohort.
func (s *maintenanceService) GeneratePendingReports(ctx context.Context, actor Actor) (*dto.GeneratePendingResponse, error) {
	enrollments, err := s.enrollments.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	created := 0
	now := time.Now()
	for i := range enrollments {
		e := &enrollments[i]
		if e.Student == nil || e.Department == nil {
			continue
		}
		records, err := s.issues.ListByStudent(ctx, e.StudentID, e.AcademicYear, e.Year)
		if err != nil {
			return nil, err
		}
		report := &model.PendingReport{
			StudentID:    e.StudentID,
			AcademicYear: e.AcademicYear,
			Year:         e.Year,
			USN:          e.Student.USN,
			Name:         e.Student.Name,
			CourseCode:   e.Department.CourseCode,
			Course:       e.Department.Course,
			GeneratedAt:  now,
		}
		report.SetPending(ComputePending(e.Department, issuedTotals(records)))
		ok, err := s.pendingReports.Upsert(ctx, report)
		if err != nil {
			return nil, err
		}
		if ok {
			created++
		}
	}
	if created > 0 {
		s.audit.Record(ctx, actor, ActionPendingGenerated,
			fmt.Sprintf("Generated pending reports: %d (per enrollment)", created), nil)
	}
	return &dto.GeneratePendingResponse{
		Message:      fmt.Sprintf("Generated %d pending reports successfully.", created),
		CreatedCount: created,
	}, nil
}

func (s *maintenanceService) ListPendingReports(ctx context.Context, page, limit int) (*dto.PageResponse[dto.PendingReportResponse], error) {
	reports, total, err := s.pendingReports.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PendingReportResponse, len(reports))
	for i, p := range reports {
		out[i] = dto.PendingReportResponse{
			ID:           p.ID.String(),
			StudentID:    p.StudentID.String(),
			USN:          p.USN,
			Name:         p.Name,
			CourseCode:   p.CourseCode,
			Course:       p.Course,
			AcademicYear: p.AcademicYear,
			Year:         p.Year,
			PN2:          p.PN2,
			PR2:          p.PR2,
			PO2:          p.PO2,
			PN1:          p.PN1,
			PR1:          p.PR1,
			PO1:          p.PO1,
			GeneratedAt:  p.GeneratedAt.Format(time.RFC3339),
		}
	}
	resp := dto.NewPage(out, total, page, limit)
	return &resp, nil
}
