package service

import (
	"context"
	"sort"
	"strings"

	"github.com/sushmag0wda/Aims-Inventory/internal/apierror"
	"github.com/sushmag0wda/Aims-Inventory/internal/dto"
	"github.com/sushmag0wda/Aims-Inventory/internal/model"
	"github.com/sushmag0wda/Aims-Inventory/internal/repository"

	"github.com/google/uuid"
)

// RequirementService manages the per-item requirement table that runs next
// to the six fixed department columns.
type RequirementService interface {
	// Backfill creates the legacy items and mirrors every department's six
	// slots into requirement rows. Safe to repeat.
	Backfill(ctx context.Context, actor Actor) (*dto.RequirementsBackfillResponse, error)
	Get(ctx context.Context, q dto.CohortQuery) (*dto.RequirementsResponse, error)
	Update(ctx context.Context, actor Actor, req dto.UpdateRequirementsRequest) (*dto.UpdateRequirementsResponse, error)
}

type requirementService struct {
	departments  repository.DepartmentRepository
	items        repository.ItemRepository
	requirements repository.RequirementRepository
	audit        AuditService
}

func NewRequirementService(
	departments repository.DepartmentRepository,
	items repository.ItemRepository,
	requirements repository.RequirementRepository,
	audit AuditService,
) RequirementService {
	return &requirementService{departments: departments, items: items, requirements: requirements, audit: audit}
}

// EnsureLegacyItems creates any missing legacy item with zero stock and
// returns the six items keyed by code.
func EnsureLegacyItems(ctx context.Context, items repository.ItemRepository) (map[string]*model.Item, int, error) {
	out := make(map[string]*model.Item, len(model.LegacyItems))
	created := 0
	for _, li := range model.LegacyItems {
		item, err := items.FindByCode(ctx, li.Code)
		if repository.IsNotFound(err) {
			item = &model.Item{ItemCode: li.Code, Name: li.Name}
			err = items.Create(ctx, item)
			if err == nil {
				created++
			}
		}
		if err != nil {
			return nil, created, err
		}
		out[li.Code] = item
	}
	return out, created, nil
}

func (s *requirementService) Backfill(ctx context.Context, actor Actor) (*dto.RequirementsBackfillResponse, error) {
	legacy, itemsCreated, err := EnsureLegacyItems(ctx, s.items)
	if err != nil {
		return nil, err
	}
	depts, err := s.departments.All(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.RequirementsBackfillResponse{ItemsCreated: itemsCreated}
	for i := range depts {
		d := &depts[i]
		for _, li := range model.LegacyItems {
			item := legacy[li.Code]
			qty := d.Required(li.Code)
			existing, err := s.requirements.Find(ctx, d.ID, item.ID)
			switch {
			case repository.IsNotFound(err):
				if err := s.requirements.Create(ctx, &model.DepartmentItemRequirement{
					DepartmentID: d.ID, ItemID: item.ID, RequiredQty: qty,
				}); err != nil {
					return nil, err
				}
				resp.RequirementsCreated++
			case err != nil:
				return nil, err
			case existing.RequiredQty != qty:
				if err := s.requirements.UpdateQty(ctx, existing.ID, qty); err != nil {
					return nil, err
				}
				resp.RequirementsUpdated++
			}
		}
	}
	s.audit.Record(ctx, actor, ActionRequirementsUpdated, "Backfilled item requirements from department columns",
		map[string]any{"items_created": resp.ItemsCreated, "created": resp.RequirementsCreated, "updated": resp.RequirementsUpdated})
	return resp, nil
}

func (s *requirementService) Get(ctx context.Context, q dto.CohortQuery) (*dto.RequirementsResponse, error) {
	code := strings.TrimSpace(q.CourseCode)
	course := strings.TrimSpace(q.Course)
	ay := strings.TrimSpace(q.AcademicYear)
	year := strings.TrimSpace(q.Year)
	if code == "" || course == "" || ay == "" || year == "" {
		return nil, apierror.Validation("Provide course_code, course, academic_year, and year.")
	}

	resp := &dto.RequirementsResponse{Requirements: []dto.RequirementResponse{}}
	dept, err := s.departments.FindByCohortFold(ctx, code, course, ay, year)
	if err != nil {
		if repository.IsNotFound(err) {
			return resp, nil
		}
		return nil, err
	}
	deptID := dept.ID.String()
	resp.DepartmentID = &deptID

	reqs, err := s.requirements.ListByDepartment(ctx, dept.ID)
	if err != nil {
		return nil, err
	}
	for _, r := range reqs {
		line := dto.RequirementResponse{ID: r.ID.String(), ItemID: r.ItemID.String(), RequiredQty: r.RequiredQty}
		if r.Item != nil {
			line.ItemCode = r.Item.ItemCode
			line.ItemName = r.Item.Name
		}
		resp.Requirements = append(resp.Requirements, line)
	}
	sort.SliceStable(resp.Requirements, func(i, j int) bool {
		return resp.Requirements[i].ItemCode < resp.Requirements[j].ItemCode
	})
	return resp, nil
}

func (s *requirementService) Update(ctx context.Context, actor Actor, req dto.UpdateRequirementsRequest) (*dto.UpdateRequirementsResponse, error) {
	deptID, err := uuid.Parse(req.DepartmentID)
	if err != nil {
		return nil, apierror.Validation("department_id and requirements[] are required")
	}
	dept, err := s.departments.FindByID(ctx, deptID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Department not found")
		}
		return nil, err
	}

	upserted := 0
	for _, line := range req.Requirements {
		item, err := s.resolveItem(ctx, line)
		if err != nil {
			return nil, err
		}
		if item == nil {
			continue
		}
		if err := s.requirements.Upsert(ctx, &model.DepartmentItemRequirement{
			DepartmentID: dept.ID,
			ItemID:       item.ID,
			RequiredQty:  max(0, line.RequiredQty),
		}); err != nil {
			return nil, err
		}
		upserted++
	}

	s.audit.Record(ctx, actor, ActionRequirementsUpdated,
		"Updated item requirements for "+dept.CourseCode+" - "+dept.Course,
		map[string]any{"department_id": dept.ID.String(), "upserted": upserted})
	return &dto.UpdateRequirementsResponse{Upserted: upserted}, nil
}

// resolveItem finds a line's item by id, then by code, creating it when only
// a code is known. Lines naming neither are skipped (nil item).
func (s *requirementService) resolveItem(ctx context.Context, line dto.RequirementLine) (*model.Item, error) {
	if id, err := uuid.Parse(strings.TrimSpace(line.ItemID)); err == nil {
		item, err := s.items.FindByID(ctx, id)
		if err == nil {
			return item, nil
		}
		if !repository.IsNotFound(err) {
			return nil, err
		}
	}
	code := strings.TrimSpace(line.ItemCode)
	if code == "" {
		return nil, nil
	}
	item, err := s.items.FindByCode(ctx, code)
	if err == nil {
		return item, nil
	}
	if !repository.IsNotFound(err) {
		return nil, err
	}
	name := strings.TrimSpace(line.ItemName)
	if name == "" {
		name = code
	}
	item = &model.Item{ItemCode: code, Name: name}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}
