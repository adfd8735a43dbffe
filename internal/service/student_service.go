package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sushmag0wda/Aims-Inventory/internal/apierror"
	"github.com/sushmag0wda/Aims-Inventory/internal/cohort"
	"github.com/sushmag0wda/Aims-Inventory/internal/dto"
	"github.com/sushmag0wda/Aims-Inventory/internal/infra"
	"github.com/sushmag0wda/Aims-Inventory/internal/model"
	"github.com/sushmag0wda/Aims-Inventory/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type StudentService interface {
	Create(ctx context.Context, actor Actor, req dto.CreateStudentRequest) (*dto.StudentResponse, error)
	Get(ctx context.Context, usn string) (*dto.StudentResponse, error)
	List(ctx context.Context, filter dto.StudentFilter) (*dto.PageResponse[dto.StudentResponse], error)
	Update(ctx context.Context, actor Actor, usn string, req dto.UpdateStudentRequest) (*dto.StudentResponse, error)
	Delete(ctx context.Context, actor Actor, usn string) error
	ListEnrollments(ctx context.Context, filter dto.EnrollmentFilter) (*dto.PageResponse[dto.EnrollmentResponse], error)
}

type studentService struct {
	students    repository.StudentRepository
	departments repository.DepartmentRepository
	enrollments repository.EnrollmentRepository
	audit       AuditService
	phoneRegion string
}

func NewStudentService(
	students repository.StudentRepository,
	departments repository.DepartmentRepository,
	enrollments repository.EnrollmentRepository,
	audit AuditService,
	phoneRegion string,
) StudentService {
	return &studentService{
		students:    students,
		departments: departments,
		enrollments: enrollments,
		audit:       audit,
		phoneRegion: phoneRegion,
	}
}

func (s *studentService) department(ctx context.Context, raw string) (*model.Department, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, apierror.Validation("department_id is not a valid id.")
	}
	d, err := s.departments.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Department not found")
		}
		return nil, err
	}
	return d, nil
}

func (s *studentService) Create(ctx context.Context, actor Actor, req dto.CreateStudentRequest) (*dto.StudentResponse, error) {
	usn := strings.ToUpper(strings.TrimSpace(req.USN))
	if _, err := s.students.FindByUSN(ctx, usn); err == nil {
		return nil, apierror.Conflict("Student with this USN already exists.")
	} else if !repository.IsNotFound(err) {
		return nil, err
	}
	dept, err := s.department(ctx, req.DepartmentID)
	if err != nil {
		return nil, err
	}

	st := &model.Student{
		USN:          usn,
		Name:         strings.TrimSpace(req.Name),
		DepartmentID: dept.ID,
		Year:         cohort.NormalizeYear(req.Year),
		Email:        strings.TrimSpace(req.Email),
		Phone:        infra.NormalizePhone(req.Phone, s.phoneRegion),
	}
	if err := s.students.Create(ctx, st); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierror.Conflict("Student with this USN already exists.")
		}
		return nil, err
	}
	st.Department = dept
	s.audit.Record(ctx, actor, ActionStudentAdded, fmt.Sprintf("Added student: %s - %s", st.USN, st.Name), nil)
	s.ensureHomeEnrollment(ctx, st, dept)
	resp := studentToResponse(st)
	return &resp, nil
}

// ensureHomeEnrollment records the student in its home department's cohort
// when both the academic year and the year are known. Failures are logged.
func (s *studentService) ensureHomeEnrollment(ctx context.Context, st *model.Student, dept *model.Department) {
	ay := cohort.NormalizeAcademicYear(dept.AcademicYear)
	year := cohort.NormalizeYear(st.Year)
	if ay == "" || year == "" {
		return
	}
	_, err := s.enrollments.GetOrCreate(ctx, &model.Enrollment{
		StudentID:    st.ID,
		DepartmentID: dept.ID,
		AcademicYear: ay,
		Year:         year,
	})
	if err != nil {
		log.Warn().Err(err).Str("usn", st.USN).Msg("student: failed to record home enrollment")
	}
}

func (s *studentService) find(ctx context.Context, usn string) (*model.Student, error) {
	st, err := s.students.FindByUSN(ctx, strings.ToUpper(strings.TrimSpace(usn)))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Student not found.")
		}
		return nil, err
	}
	return st, nil
}

func (s *studentService) Get(ctx context.Context, usn string) (*dto.StudentResponse, error) {
	st, err := s.find(ctx, usn)
	if err != nil {
		return nil, err
	}
	resp := studentToResponse(st)
	return &resp, nil
}

func (s *studentService) List(ctx context.Context, filter dto.StudentFilter) (*dto.PageResponse[dto.StudentResponse], error) {
	students, total, err := s.students.List(ctx, repository.StudentFilter{
		DepartmentID: parseOptionalID(filter.DepartmentID),
		Search:       filter.Search,
		Page:         filter.Page,
		Limit:        filter.Limit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.StudentResponse, len(students))
	for i := range students {
		out[i] = studentToResponse(&students[i])
	}
	page := dto.NewPage(out, total, filter.Page, filter.Limit)
	return &page, nil
}

func (s *studentService) Update(ctx context.Context, actor Actor, usn string, req dto.UpdateStudentRequest) (*dto.StudentResponse, error) {
	st, err := s.find(ctx, usn)
	if err != nil {
		return nil, err
	}
	dept := st.Department
	if req.DepartmentID != nil {
		if dept, err = s.department(ctx, *req.DepartmentID); err != nil {
			return nil, err
		}
		st.DepartmentID = dept.ID
	}
	if req.Name != nil {
		st.Name = strings.TrimSpace(*req.Name)
	}
	if req.Year != nil {
		st.Year = cohort.NormalizeYear(*req.Year)
	}
	if req.Email != nil {
		st.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		st.Phone = infra.NormalizePhone(*req.Phone, s.phoneRegion)
	}
	st.Department = nil
	if err := s.students.Update(ctx, st); err != nil {
		return nil, err
	}
	st.Department = dept
	s.audit.Record(ctx, actor, ActionStudentEdited, fmt.Sprintf("Edited student: %s - %s", st.USN, st.Name), nil)
	if dept != nil {
		s.ensureHomeEnrollment(ctx, st, dept)
	}
	resp := studentToResponse(st)
	return &resp, nil
}

func (s *studentService) Delete(ctx context.Context, actor Actor, usn string) error {
	st, err := s.find(ctx, usn)
	if err != nil {
		return err
	}
	s.audit.Record(ctx, actor, ActionStudentDeleted, fmt.Sprintf("Deleted student: %s - %s", st.USN, st.Name), nil)
	return s.students.Delete(ctx, st.ID)
}

func (s *studentService) ListEnrollments(ctx context.Context, filter dto.EnrollmentFilter) (*dto.PageResponse[dto.EnrollmentResponse], error) {
	rf := repository.EnrollmentFilter{
		DepartmentID: parseOptionalID(filter.DepartmentID),
		AcademicYear: cohort.NormalizeAcademicYear(filter.AcademicYear),
		Year:         cohort.NormalizeYear(filter.Year),
		Page:         filter.Page,
		Limit:        filter.Limit,
	}
	if usn := strings.TrimSpace(filter.StudentUSN); usn != "" {
		st, err := s.find(ctx, usn)
		if err != nil {
			return nil, err
		}
		rf.StudentID = &st.ID
	}
	enrollments, total, err := s.enrollments.List(ctx, rf)
	if err != nil {
		return nil, err
	}
	out := make([]dto.EnrollmentResponse, len(enrollments))
	for i, e := range enrollments {
		r := dto.EnrollmentResponse{
			ID:           e.ID.String(),
			StudentID:    e.StudentID.String(),
			DepartmentID: e.DepartmentID.String(),
			AcademicYear: e.AcademicYear,
			Year:         e.Year,
			CreatedAt:    e.CreatedAt.Format(time.RFC3339),
		}
		if e.Student != nil {
			r.StudentUSN = e.Student.USN
			r.StudentName = e.Student.Name
		}
		if e.Department != nil {
			r.CourseCode = e.Department.CourseCode
			r.Course = e.Department.Course
		}
		out[i] = r
	}
	page := dto.NewPage(out, total, filter.Page, filter.Limit)
	return &page, nil
}

func studentToResponse(st *model.Student) dto.StudentResponse {
	resp := dto.StudentResponse{
		ID:           st.ID.String(),
		USN:          st.USN,
		Name:         st.Name,
		DepartmentID: st.DepartmentID.String(),
		Year:         st.Year,
		Email:        st.Email,
		Phone:        st.Phone,
	}
	if d := st.Department; d != nil {
		resp.CourseCode = d.CourseCode
		resp.Course = d.Course
		resp.AcademicYear = d.AcademicYear
	}
	return resp
}
