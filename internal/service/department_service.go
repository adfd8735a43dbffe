package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sushmag0wda/Aims-Inventory/internal/apierror"
	"github.com/sushmag0wda/Aims-Inventory/internal/cohort"
	"github.com/sushmag0wda/Aims-Inventory/internal/dto"
	"github.com/sushmag0wda/Aims-Inventory/internal/model"
	"github.com/sushmag0wda/Aims-Inventory/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DepartmentService interface {
	Create(ctx context.Context, actor Actor, req dto.DepartmentRequest) (*dto.DepartmentResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.DepartmentResponse, error)
	List(ctx context.Context, filter dto.DepartmentFilter) (*dto.PageResponse[dto.DepartmentResponse], error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.DepartmentRequest) (*dto.DepartmentResponse, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
}

type departmentService struct {
	repo  repository.DepartmentRepository
	audit AuditService
}

func NewDepartmentService(repo repository.DepartmentRepository, audit AuditService) DepartmentService {
	return &departmentService{repo: repo, audit: audit}
}

var errDuplicateDepartment = apierror.Conflict("A department with this course code, academic year and year already exists.")

func applyDepartmentRequest(d *model.Department, req dto.DepartmentRequest) {
	d.CourseCode = cohort.NormalizeKey(req.CourseCode)
	d.Course = cohort.NormalizeKey(req.Course)
	d.AcademicYear = cohort.NormalizeAcademicYear(req.AcademicYear)
	d.Year = cohort.NormalizeYear(req.Year)
	d.ProgramType = strings.TrimSpace(req.ProgramType)
	d.Intake = req.Intake
	d.Existing = req.Existing
	d.TwoHundredNotebook = req.TwoHundredNotebook
	d.TwoHundredRecord = req.TwoHundredRecord
	d.TwoHundredObservation = req.TwoHundredObservation
	d.OneHundredNotebook = req.OneHundredNotebook
	d.OneHundredRecord = req.OneHundredRecord
	d.OneHundredObservation = req.OneHundredObservation
}

func (s *departmentService) Create(ctx context.Context, actor Actor, req dto.DepartmentRequest) (*dto.DepartmentResponse, error) {
	d := &model.Department{}
	applyDepartmentRequest(d, req)
	if err := s.repo.Create(ctx, d); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errDuplicateDepartment
		}
		return nil, err
	}
	s.audit.Record(ctx, actor, ActionDepartmentAdded, fmt.Sprintf("Added department: %s - %s", d.CourseCode, d.Course), nil)
	resp := departmentToResponse(d)
	return &resp, nil
}

func (s *departmentService) Get(ctx context.Context, id uuid.UUID) (*dto.DepartmentResponse, error) {
	d, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := departmentToResponse(d)
	return &resp, nil
}

func (s *departmentService) find(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Department not found")
		}
		return nil, err
	}
	return d, nil
}

func (s *departmentService) List(ctx context.Context, filter dto.DepartmentFilter) (*dto.PageResponse[dto.DepartmentResponse], error) {
	depts, total, err := s.repo.List(ctx, repository.DepartmentFilter{
		CourseCode:   strings.TrimSpace(filter.CourseCode),
		Course:       strings.TrimSpace(filter.Course),
		AcademicYear: cohort.NormalizeAcademicYear(filter.AcademicYear),
		Year:         cohort.NormalizeYear(filter.Year),
		Page:         filter.Page,
		Limit:        filter.Limit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.DepartmentResponse, len(depts))
	for i := range depts {
		out[i] = departmentToResponse(&depts[i])
	}
	page := dto.NewPage(out, total, filter.Page, filter.Limit)
	return &page, nil
}

func (s *departmentService) Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.DepartmentRequest) (*dto.DepartmentResponse, error) {
	d, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	applyDepartmentRequest(d, req)
	if err := s.repo.Update(ctx, d); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errDuplicateDepartment
		}
		return nil, err
	}
	s.audit.Record(ctx, actor, ActionDepartmentEdited, fmt.Sprintf("Edited department: %s - %s", d.CourseCode, d.Course), nil)
	resp := departmentToResponse(d)
	return &resp, nil
}

func (s *departmentService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	d, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, d.ID); err != nil {
		return err
	}
	s.audit.Record(ctx, actor, ActionDepartmentDeleted, fmt.Sprintf("Deleted department: %s - %s", d.CourseCode, d.Course), nil)
	return nil
}

func departmentToResponse(d *model.Department) dto.DepartmentResponse {
	return dto.DepartmentResponse{
		ID:                    d.ID.String(),
		CourseCode:            d.CourseCode,
		Course:                d.Course,
		AcademicYear:          d.AcademicYear,
		Year:                  d.Year,
		ProgramType:           d.ProgramType,
		Intake:                d.Intake,
		Existing:              d.Existing,
		TwoHundredNotebook:    d.TwoHundredNotebook,
		TwoHundredRecord:      d.TwoHundredRecord,
		TwoHundredObservation: d.TwoHundredObservation,
		OneHundredNotebook:    d.OneHundredNotebook,
		OneHundredRecord:      d.OneHundredRecord,
		OneHundredObservation: d.OneHundredObservation,
		Total:                 d.Total(),
	}
}
