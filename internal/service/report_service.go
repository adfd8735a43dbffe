package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/sushmag0wda/Aims-Inventory/internal/apierror"
	"github.com/sushmag0wda/Aims-Inventory/internal/cohort"
	"github.com/sushmag0wda/Aims-Inventory/internal/dto"
	"github.com/sushmag0wda/Aims-Inventory/internal/infra"
	"github.com/sushmag0wda/Aims-Inventory/internal/model"
	"github.com/sushmag0wda/Aims-Inventory/internal/repository"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// ReportService renders downloadable documents: the pending sheet of a
// department cohort (XLSX) and a student's issue slip (PDF).
type ReportService interface {
	PendingWorkbook(ctx context.Context, departmentID uuid.UUID) (data []byte, filename string, err error)
	StudentSlip(ctx context.Context, usn string, q dto.CohortQuery) (data []byte, filename string, err error)
}

type reportService struct {
	students    repository.StudentRepository
	departments repository.DepartmentRepository
	enrollments repository.EnrollmentRepository
	issues      repository.IssueRepository
}

func NewReportService(
	students repository.StudentRepository,
	departments repository.DepartmentRepository,
	enrollments repository.EnrollmentRepository,
	issues repository.IssueRepository,
) ReportService {
	return &reportService{students: students, departments: departments, enrollments: enrollments, issues: issues}
}

const exportPageSize = 500

func (s *reportService) PendingWorkbook(ctx context.Context, departmentID uuid.UUID) ([]byte, string, error) {
	dept, err := s.departments.FindByID(ctx, departmentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, "", notFound("Department not found")
		}
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Pending"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, "", err
	}

	header := []any{"USN", "Name", "Academic Year", "Year"}
	for _, li := range model.LegacyItems {
		header = append(header, li.Code)
	}
	header = append(header, "Total Pending")
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, "", err
	}

	row := 2
	for page := 1; ; page++ {
		enrollments, _, err := s.enrollments.List(ctx, repository.EnrollmentFilter{DepartmentID: &dept.ID, Page: page, Limit: exportPageSize})
		if err != nil {
			return nil, "", err
		}
		for _, e := range enrollments {
			if e.Student == nil {
				continue
			}
			records, err := s.issues.ListByStudent(ctx, e.StudentID, e.AcademicYear, e.Year)
			if err != nil {
				return nil, "", err
			}
			pending := ComputePending(dept, issuedTotals(records))
			line := []any{e.Student.USN, e.Student.Name, e.AcademicYear, e.Year}
			total := 0
			for _, li := range model.LegacyItems {
				line = append(line, pending[li.Code])
				total += pending[li.Code]
			}
			line = append(line, total)
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(sheet, cell, &line); err != nil {
				return nil, "", err
			}
			row++
		}
		if len(enrollments) < exportPageSize {
			break
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", err
	}
	name := fmt.Sprintf("pending_%s_%s_%s.xlsx", dept.CourseCode, dept.AcademicYear, dept.Year)
	return buf.Bytes(), strings.ReplaceAll(name, " ", "_"), nil
}

func (s *reportService) StudentSlip(ctx context.Context, usn string, q dto.CohortQuery) ([]byte, string, error) {
	student, err := s.students.FindByUSN(ctx, strings.TrimSpace(usn))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, "", notFound("Student not found.")
		}
		return nil, "", err
	}
	dept := student.Department
	if dept == nil {
		return nil, "", apierror.Validation("Student has no department assigned.")
	}

	ay := cohort.NormalizeAcademicYear(q.AcademicYear)
	year := cohort.NormalizeYear(q.Year)
	if q.CourseCode != "" || q.Course != "" || ay != "" || year != "" {
		enrollments, err := s.enrollments.ListByStudent(ctx, student.ID)
		if err != nil {
			return nil, "", err
		}
		if e := pickEnrollment(enrollments, q); e != nil && e.Department != nil {
			dept = e.Department
		}
	}

	records, err := s.issues.ListByStudent(ctx, student.ID, ay, year)
	if err != nil {
		return nil, "", err
	}
	if ay == "" {
		ay = dept.AcademicYear
	}
	if year == "" {
		year = student.Year
	}
	data, err := infra.GenerateStudentSlipPDF(infra.StudentSlip{
		Student:      student,
		Department:   dept,
		AcademicYear: ay,
		Year:         year,
		Issued:       records,
		Pending:      ComputePending(dept, issuedTotals(records)),
	})
	if err != nil {
		return nil, "", err
	}
	return data, fmt.Sprintf("slip_%s.pdf", student.USN), nil
}
