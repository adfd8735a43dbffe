package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sushmag0wda/Aims-Inventory/internal/apierror"
	"github.com/sushmag0wda/Aims-Inventory/internal/cohort"
	"github.com/sushmag0wda/Aims-Inventory/internal/dto"
	"github.com/sushmag0wda/Aims-Inventory/internal/infra"
	"github.com/sushmag0wda/Aims-Inventory/internal/model"
	"github.com/sushmag0wda/Aims-Inventory/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// importLockKey serializes bulk uploads across every API replica.
const importLockKey = "lock:student-import"

// BatchLocker grants an exclusive, expiring lock. *infra.Locker implements it.
type BatchLocker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

type ImportOptions struct {
	PhoneRegion string
	LockTTL     time.Duration
}

type ImportService interface {
	ImportStudents(ctx context.Context, actor Actor, rows []dto.StudentImportRow) (*dto.ImportResult, error)
	// ImportStudentsXLSX reads the first sheet of a workbook whose header row
	// names the StudentImportRow columns.
	ImportStudentsXLSX(ctx context.Context, actor Actor, r io.Reader) (*dto.ImportResult, error)
}

type importService struct {
	tx          repository.Transactor
	departments repository.DepartmentRepository
	students    repository.StudentRepository
	enrollments repository.EnrollmentRepository
	audit       AuditService
	locker      BatchLocker
	opts        ImportOptions
}

// NewImportService accepts a nil locker, in which case imports are not
// serialized.
func NewImportService(
	tx repository.Transactor,
	departments repository.DepartmentRepository,
	students repository.StudentRepository,
	enrollments repository.EnrollmentRepository,
	audit AuditService,
	locker BatchLocker,
	opts ImportOptions,
) ImportService {
	if opts.LockTTL <= 0 {
		opts.LockTTL = 5 * time.Minute
	}
	return &importService{
		tx:          tx,
		departments: departments,
		students:    students,
		enrollments: enrollments,
		audit:       audit,
		locker:      locker,
		opts:        opts,
	}
}

// importRow is a StudentImportRow after normalization.
type importRow struct {
	usn, name    string
	cohort       CohortInput
	email, phone string
}

func (r importRow) valid() bool {
	return r.usn != "" && r.name != "" && r.cohort.CourseCode != "" && r.cohort.Course != ""
}

func (s *importService) normalizeRow(raw dto.StudentImportRow) importRow {
	return importRow{
		usn:  strings.ToUpper(strings.TrimSpace(raw.USN.String())),
		name: strings.TrimSpace(raw.Name.String()),
		cohort: CohortInput{
			CourseCode:   cohort.NormalizeKey(raw.CourseCode.String()),
			Course:       cohort.NormalizeKey(raw.Course.String()),
			AcademicYear: cohort.NormalizeAcademicYear(raw.AcademicYear.String()),
			Year:         cohort.NormalizeYear(raw.Year.String()),
			ProgramType:  strings.TrimSpace(raw.ProgramType.String()),
			Intake:       parseCount(raw.Intake.String()),
			Existing:     parseCount(raw.Existing.String()),
		},
		email: strings.TrimSpace(raw.Email.String()),
		phone: infra.NormalizePhone(raw.Phone.String(), s.opts.PhoneRegion),
	}
}

// parseCount reads spreadsheet numbers such as "60" or "60.0". Values that
// are not finite or fall outside the int32 range yield nil.
func parseCount(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return nil
	}
	n := int(f)
	return &n
}

func (s *importService) ImportStudents(ctx context.Context, actor Actor, raw []dto.StudentImportRow) (*dto.ImportResult, error) {
	if len(raw) == 0 {
		return nil, apierror.Validation("Invalid or empty data list provided.")
	}

	if s.locker != nil {
		release, err := s.locker.Obtain(ctx, importLockKey, s.opts.LockTTL)
		if errors.Is(err, infra.ErrLockHeld) {
			return nil, apierror.Conflict("A student import is already running.")
		}
		if err != nil {
			return nil, fmt.Errorf("import lock: %w", err)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.Warn().Err(err).Msg("import: failed to release lock")
			}
		}()
	}

	rows := make([]importRow, len(raw))
	for i := range raw {
		rows[i] = s.normalizeRow(raw[i])
	}

	// Both passes commit together: a failure leaves no student, department
	// or enrollment of this upload behind.
	var counts importCounts
	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		counts, err = s.importRows(ctx, tx, rows)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, ActionBulkUpload,
		fmt.Sprintf("Bulk upload completed. Students - Created: %d, Updated: %d; Enrollments - Created: %d; Received rows: %d",
			counts.created, counts.updated, counts.enrollments, len(raw)),
		map[string]any{"created": counts.created, "updated": counts.updated, "created_enrollments": counts.enrollments, "received": len(raw)})

	log.Info().
		Int("created", counts.created).
		Int("updated", counts.updated).
		Int("enrollments", counts.enrollments).
		Int("received", len(raw)).
		Msg("bulk upload completed")

	return &dto.ImportResult{
		Message:            "Bulk upload completed.",
		Created:            counts.created,
		Updated:            counts.updated,
		CreatedEnrollments: counts.enrollments,
		Received:           len(raw),
	}, nil
}

type importCounts struct{ created, updated, enrollments int }

// importRows runs both import passes against repositories bound to tx.
func (s *importService) importRows(ctx context.Context, tx *gorm.DB, rows []importRow) (importCounts, error) {
	var counts importCounts
	departments := s.departments.WithTx(tx)
	students := s.students.WithTx(tx)
	enrollments := s.enrollments.WithTx(tx)

	depts, err := departments.All(ctx)
	if err != nil {
		return counts, err
	}
	resolver := NewDepartmentResolver(departments, NewDepartmentIndex(depts))

	// Pass 1: students.
	staged := make(map[string]int)
	var pending []model.Student
	for _, row := range rows {
		if !row.valid() {
			continue
		}
		dept, err := resolver.ResolveOrCreate(ctx, row.cohort)
		if err != nil {
			return counts, fmt.Errorf("resolve department for %s: %w", row.usn, err)
		}

		student, err := students.FindByUSN(ctx, row.usn)
		switch {
		case err == nil:
			student.Name = row.name
			student.DepartmentID = dept.ID
			student.Department = nil
			student.Year = row.cohort.Year
			student.Email = row.email
			student.Phone = row.phone
			if err := students.Update(ctx, student); err != nil {
				return counts, err
			}
			counts.updated++
		case repository.IsNotFound(err):
			st := model.Student{
				USN:          row.usn,
				Name:         row.name,
				DepartmentID: dept.ID,
				Year:         row.cohort.Year,
				Email:        row.email,
				Phone:        row.phone,
			}
			if i, ok := staged[row.usn]; ok {
				pending[i] = st
			} else {
				staged[row.usn] = len(pending)
				pending = append(pending, st)
			}
		default:
			return counts, err
		}
	}

	if len(pending) > 0 {
		before, err := students.Count(ctx)
		if err != nil {
			return counts, err
		}
		if err := students.CreateBatchIgnoreConflicts(ctx, pending); err != nil {
			return counts, err
		}
		after, err := students.Count(ctx)
		if err != nil {
			return counts, err
		}
		if after > before {
			counts.created = int(after - before)
		}
	}

	// Pass 2: enrollments, now that every student has an id.
	for _, row := range rows {
		if row.usn == "" || row.cohort.CourseCode == "" || row.cohort.Course == "" {
			continue
		}
		student, err := students.FindByUSN(ctx, row.usn)
		if repository.IsNotFound(err) {
			continue
		}
		if err != nil {
			return counts, err
		}
		dept, err := resolver.ResolveOrCreate(ctx, row.cohort)
		if err != nil {
			return counts, err
		}
		ay := row.cohort.AcademicYear
		if ay == "" {
			ay = dept.AcademicYear
		}
		ok, err := enrollments.GetOrCreate(ctx, &model.Enrollment{
			StudentID:    student.ID,
			DepartmentID: dept.ID,
			AcademicYear: cohort.NormalizeAcademicYear(ay),
			Year:         row.cohort.Year,
		})
		if err != nil {
			return counts, err
		}
		if ok {
			counts.enrollments++
		}
	}
	return counts, nil
}

// xlsxColumns maps a folded header cell to the row field it fills.
var xlsxColumns = map[string]func(*dto.StudentImportRow, string){
	"usn":           func(r *dto.StudentImportRow, v string) { r.USN = dto.FlexString(v) },
	"name":          func(r *dto.StudentImportRow, v string) { r.Name = dto.FlexString(v) },
	"course_code":   func(r *dto.StudentImportRow, v string) { r.CourseCode = dto.FlexString(v) },
	"course":        func(r *dto.StudentImportRow, v string) { r.Course = dto.FlexString(v) },
	"year":          func(r *dto.StudentImportRow, v string) { r.Year = dto.FlexString(v) },
	"academic_year": func(r *dto.StudentImportRow, v string) { r.AcademicYear = dto.FlexString(v) },
	"program_type":  func(r *dto.StudentImportRow, v string) { r.ProgramType = dto.FlexString(v) },
	"intake":        func(r *dto.StudentImportRow, v string) { r.Intake = dto.FlexString(v) },
	"existing":      func(r *dto.StudentImportRow, v string) { r.Existing = dto.FlexString(v) },
	"email":         func(r *dto.StudentImportRow, v string) { r.Email = dto.FlexString(v) },
	"phone":         func(r *dto.StudentImportRow, v string) { r.Phone = dto.FlexString(v) },
}

func foldHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "_", "-", "_", ".", "").Replace(h)
}

func (s *importService) ImportStudentsXLSX(ctx context.Context, actor Actor, r io.Reader) (*dto.ImportResult, error) {
	rows, err := ReadStudentSheet(r)
	if err != nil {
		return nil, err
	}
	return s.ImportStudents(ctx, actor, rows)
}

// ReadStudentSheet parses the first worksheet of an XLSX workbook into import
// rows. Unknown columns are ignored; blank lines are dropped.
func ReadStudentSheet(r io.Reader) ([]dto.StudentImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apierror.Wrap(apierror.KindValidation, err, "The uploaded file is not a valid XLSX workbook.")
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, apierror.Wrap(apierror.KindValidation, err, "The uploaded workbook could not be read.")
	}
	if len(cells) < 2 {
		return nil, apierror.Validation("Invalid or empty data list provided.")
	}

	setters := make([]func(*dto.StudentImportRow, string), len(cells[0]))
	for i, h := range cells[0] {
		setters[i] = xlsxColumns[foldHeader(h)]
	}

	var out []dto.StudentImportRow
	for _, line := range cells[1:] {
		var row dto.StudentImportRow
		blank := true
		for i, v := range line {
			if i >= len(setters) || setters[i] == nil {
				continue
			}
			if strings.TrimSpace(v) != "" {
				blank = false
			}
			setters[i](&row, v)
		}
		if !blank {
			out = append(out, row)
		}
	}
	return out, nil
}
