package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sushmag0wda/Aims-Inventory/internal/apierror"
	"github.com/sushmag0wda/Aims-Inventory/internal/cohort"
	"github.com/sushmag0wda/Aims-Inventory/internal/dto"
	"github.com/sushmag0wda/Aims-Inventory/internal/model"
	"github.com/sushmag0wda/Aims-Inventory/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const maxRemarks = 255

type IssueService interface {
	// Issue hands every line of req to one student atomically: either all
	// stock decrements and records are committed or none is.
	Issue(ctx context.Context, actor Actor, req dto.IssueRequest) ([]dto.IssueRecordResponse, error)
	StudentRecords(ctx context.Context, usn string, q dto.CohortQuery) (*dto.StudentRecordsResponse, error)
	List(ctx context.Context, filter dto.IssueFilter) (*dto.PageResponse[dto.IssueRecordResponse], error)
}

type issueService struct {
	tx             repository.Transactor
	students       repository.StudentRepository
	departments    repository.DepartmentRepository
	enrollments    repository.EnrollmentRepository
	items          repository.ItemRepository
	issues         repository.IssueRepository
	stockLogs      repository.StockLogRepository
	pendingReports repository.PendingReportRepository
	audit          AuditService
	retry          LockRetry
}

func NewIssueService(
	tx repository.Transactor,
	students repository.StudentRepository,
	departments repository.DepartmentRepository,
	enrollments repository.EnrollmentRepository,
	items repository.ItemRepository,
	issues repository.IssueRepository,
	stockLogs repository.StockLogRepository,
	pendingReports repository.PendingReportRepository,
	audit AuditService,
	retry LockRetry,
) IssueService {
	return &issueService{
		tx:             tx,
		students:       students,
		departments:    departments,
		enrollments:    enrollments,
		items:          items,
		issues:         issues,
		stockLogs:      stockLogs,
		pendingReports: pendingReports,
		audit:          audit,
		retry:          retry,
	}
}

func (s *issueService) Issue(ctx context.Context, actor Actor, req dto.IssueRequest) ([]dto.IssueRecordResponse, error) {
	usn := strings.TrimSpace(req.StudentUSN)
	if usn == "" || len(req.Issues) == 0 {
		return nil, apierror.Validation("Missing student_usn or issues list.")
	}
	student, err := s.students.FindByUSN(ctx, usn)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Student with USN %s not found.", usn)
		}
		return nil, err
	}

	ay, year := s.issueCohort(ctx, student.ID, req)

	var records []model.IssueRecord
	run := func() error {
		return withLockRetry(ctx, s.retry, "issue", func() error {
			records = records[:0]
			return s.tx.Transaction(ctx, func(tx *gorm.DB) error {
				for _, line := range req.Issues {
					rec, err := s.issueLine(tx, actor, student, line, ay, year)
					if err != nil {
						return err
					}
					if rec != nil {
						records = append(records, *rec)
					}
				}
				return nil
			})
		})
	}

	err = run()
	if err != nil && repository.IsForeignKeyViolation(err) {
		// Reports left behind by deleted students break the FK check; drop them once and retry.
		removed, cleanupErr := s.pendingReports.DeleteOrphans(ctx)
		log.Warn().Err(err).Int64("orphans_removed", removed).Str("usn", usn).Msg("issue: integrity error, retrying after cleanup")
		if cleanupErr == nil {
			err = run()
		}
		if err != nil && repository.IsForeignKeyViolation(err) {
			return nil, apierror.Wrap(apierror.KindBusinessRule, fmt.Errorf("%w: %v", ErrIntegrityConflict, err),
				"Database integrity error during issue")
		}
	}
	if err != nil {
		return nil, err
	}

	total := 0
	out := make([]dto.IssueRecordResponse, len(records))
	for i := range records {
		total += records[i].QtyIssued
		out[i] = issueToResponse(&records[i], student.USN)
	}
	s.audit.Record(ctx, actor, ActionBooksIssued,
		fmt.Sprintf("Issued %d books to student %s", total, student.USN),
		map[string]any{"usn": student.USN, "academic_year": ay, "year": year, "lines": len(records)})
	return out, nil
}

// issueLine applies one request line inside the transaction. Lines with a
// blank code or a non-positive quantity are skipped (nil record, nil error).
func (s *issueService) issueLine(tx *gorm.DB, actor Actor, student *model.Student, line dto.IssueLine, ay, year string) (*model.IssueRecord, error) {
	code := strings.TrimSpace(line.ItemCode)
	if code == "" || line.Quantity <= 0 {
		return nil, nil
	}
	item, err := s.items.FindByCodeForUpdateTx(tx, code)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Inventory item code %s not found.", code)
		}
		return nil, err
	}
	if item.Quantity < line.Quantity {
		return nil, insufficientStock(code, item.Quantity, line.Quantity)
	}
	prev := item.Quantity
	item.Quantity -= line.Quantity
	if err := s.items.UpdateQuantityTx(tx, item.ID, item.Quantity); err != nil {
		return nil, err
	}
	if err := s.stockLogs.CreateTx(tx, &model.StockLogEntry{
		ItemID:           item.ID,
		Change:           -line.Quantity,
		Reason:           "Issued to " + student.USN,
		PreviousQuantity: prev,
		NewQuantity:      item.Quantity,
		CreatedByID:      actor.ref(),
	}); err != nil {
		return nil, err
	}

	rec := &model.IssueRecord{
		StudentID:    student.ID,
		ItemCode:     item.ItemCode,
		QtyIssued:    line.Quantity,
		Status:       model.IssueStatusIssued,
		Remarks:      truncateRunes(line.Remarks, maxRemarks),
		DateIssued:   time.Now(),
		AcademicYear: ay,
		Year:         year,
		IssuedByID:   actor.ref(),
	}
	if err := s.issues.CreateTx(tx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// issueCohort completes the cohort the records are tagged with. Missing parts
// come from the student's enrollments narrowed by whatever hints were given:
// with a year hint the first match wins, otherwise the earliest year.
func (s *issueService) issueCohort(ctx context.Context, studentID uuid.UUID, req dto.IssueRequest) (ay, year string) {
	ay = strings.TrimSpace(req.AcademicYear)
	year = strings.TrimSpace(req.Year)
	if ay == "" || year == "" {
		enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
		if err != nil {
			log.Warn().Err(err).Msg("issue: could not read enrollments for cohort inference")
		}
		hints := dto.CohortQuery{CourseCode: req.CourseCode, Course: req.Course, AcademicYear: ay, Year: year}
		if e := pickEnrollment(enrollments, hints); e != nil {
			if ay == "" {
				ay = e.AcademicYear
			}
			if year == "" {
				year = e.Year
			}
		}
	}
	return cohort.NormalizeAcademicYear(ay), cohort.NormalizeYear(year)
}

// pickEnrollment returns the first enrollment matching every non-empty hint.
// The slice is expected in ascending year order.
func pickEnrollment(enrollments []model.Enrollment, q dto.CohortQuery) *model.Enrollment {
	code := cohort.NormalizeKey(q.CourseCode)
	course := cohort.NormalizeKey(q.Course)
	ay := cohort.NormalizeAcademicYear(q.AcademicYear)
	year := cohort.NormalizeYear(q.Year)
	for i := range enrollments {
		e := &enrollments[i]
		d := e.Department
		if (code != "" || course != "") && d == nil {
			continue
		}
		if code != "" && cohort.NormalizeKey(d.CourseCode) != code {
			continue
		}
		if course != "" && cohort.NormalizeKey(d.Course) != course {
			continue
		}
		if ay != "" && cohort.NormalizeAcademicYear(e.AcademicYear) != ay {
			continue
		}
		if year != "" && cohort.NormalizeYear(e.Year) != year {
			continue
		}
		return e
	}
	return nil
}

func (s *issueService) StudentRecords(ctx context.Context, usn string, q dto.CohortQuery) (*dto.StudentRecordsResponse, error) {
	student, err := s.students.FindByUSN(ctx, strings.TrimSpace(usn))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Student not found.")
		}
		return nil, err
	}
	dept, err := s.homeDepartment(ctx, student)
	if err != nil {
		return nil, err
	}

	if q.CourseCode != "" || q.Course != "" || q.AcademicYear != "" || q.Year != "" {
		enrollments, err := s.enrollments.ListByStudent(ctx, student.ID)
		if err != nil {
			return nil, err
		}
		if e := pickEnrollment(enrollments, q); e != nil && e.Department != nil {
			dept = e.Department
		}
	}

	ay := cohort.NormalizeAcademicYear(q.AcademicYear)
	year := cohort.NormalizeYear(q.Year)
	records, err := s.issues.ListByStudent(ctx, student.ID, ay, year)
	if err != nil {
		return nil, err
	}

	resp := &dto.StudentRecordsResponse{
		Issued:  make([]dto.IssueRecordResponse, len(records)),
		Pending: ComputePending(dept, issuedTotals(records)),
	}
	for i := range records {
		resp.Issued[i] = issueToResponse(&records[i], student.USN)
	}
	return resp, nil
}

func (s *issueService) homeDepartment(ctx context.Context, student *model.Student) (*model.Department, error) {
	if student.Department != nil {
		return student.Department, nil
	}
	d, err := s.departments.FindByID(ctx, student.DepartmentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.Validation("Student has no department assigned.")
		}
		return nil, err
	}
	return d, nil
}

func (s *issueService) List(ctx context.Context, filter dto.IssueFilter) (*dto.PageResponse[dto.IssueRecordResponse], error) {
	rf := repository.IssueFilter{ItemCode: strings.TrimSpace(filter.ItemCode), Page: filter.Page, Limit: filter.Limit}
	if usn := strings.TrimSpace(filter.StudentUSN); usn != "" {
		student, err := s.students.FindByUSN(ctx, usn)
		if err != nil {
			if repository.IsNotFound(err) {
				page := dto.NewPage[dto.IssueRecordResponse](nil, 0, filter.Page, filter.Limit)
				return &page, nil
			}
			return nil, err
		}
		rf.StudentID = &student.ID
	}
	records, total, err := s.issues.List(ctx, rf)
	if err != nil {
		return nil, err
	}
	out := make([]dto.IssueRecordResponse, len(records))
	for i := range records {
		usn := ""
		if records[i].Student != nil {
			usn = records[i].Student.USN
		}
		out[i] = issueToResponse(&records[i], usn)
	}
	page := dto.NewPage(out, total, filter.Page, filter.Limit)
	return &page, nil
}

func issueToResponse(r *model.IssueRecord, usn string) dto.IssueRecordResponse {
	return dto.IssueRecordResponse{
		ID:           r.ID.String(),
		StudentID:    r.StudentID.String(),
		StudentUSN:   usn,
		ItemCode:     r.ItemCode,
		QtyIssued:    r.QtyIssued,
		Status:       r.Status,
		Remarks:      r.Remarks,
		DateIssued:   r.DateIssued.Format("2006-01-02"),
		AcademicYear: r.AcademicYear,
		Year:         r.Year,
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
