package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/sushmag0wda/Aims-Inventory/internal/cohort"
	"github.com/sushmag0wda/Aims-Inventory/internal/model"
	"github.com/sushmag0wda/Aims-Inventory/internal/repository"

	"gorm.io/gorm"
)

// CohortInput identifies the department of an imported row plus the optional
// attributes used to enrich it.
type CohortInput struct {
	CourseCode   string
	Course       string
	AcademicYear string
	Year         string
	ProgramType  string
	Intake       *int
	Existing     *int
}

func (in CohortInput) normalized() CohortInput {
	in.CourseCode = cohort.NormalizeKey(in.CourseCode)
	in.Course = cohort.NormalizeKey(in.Course)
	in.AcademicYear = cohort.NormalizeAcademicYear(in.AcademicYear)
	in.Year = cohort.NormalizeYear(in.Year)
	in.ProgramType = strings.TrimSpace(in.ProgramType)
	return in
}

type exactKey struct{ code, course, ay, year string }
type groupKey struct{ code, course, ay string }
type pairKey struct{ code, course string }

// DepartmentIndex is the in-memory lookup table of one import call. It is
// built from a full scan and discarded when the call returns.
type DepartmentIndex struct {
	exact   map[exactKey]*model.Department
	byGroup map[groupKey][]*model.Department
	byPair  map[pairKey][]*model.Department
}

func NewDepartmentIndex(depts []model.Department) *DepartmentIndex {
	ix := &DepartmentIndex{
		exact:   make(map[exactKey]*model.Department, len(depts)),
		byGroup: make(map[groupKey][]*model.Department),
		byPair:  make(map[pairKey][]*model.Department),
	}
	for i := range depts {
		ix.add(&depts[i])
	}
	return ix
}

func (ix *DepartmentIndex) add(d *model.Department) {
	code := cohort.NormalizeKey(d.CourseCode)
	course := cohort.NormalizeKey(d.Course)
	ay := cohort.NormalizeAcademicYear(d.AcademicYear)
	ix.exact[exactKey{code, course, ay, cohort.NormalizeYear(d.Year)}] = d
	gk := groupKey{code, course, ay}
	ix.byGroup[gk] = append(ix.byGroup[gk], d)
	pk := pairKey{code, course}
	ix.byPair[pk] = append(ix.byPair[pk], d)
}

// alias files d under the exact key of in as well, for a row reached
// through a key other than its stored one.
func (ix *DepartmentIndex) alias(in CohortInput, d *model.Department) {
	ix.exact[exactKey{in.CourseCode, in.Course, in.AcademicYear, in.Year}] = d
}

// Lookup runs the in-memory tiers against an already normalized input and
// returns nil when none of them matches.
func (ix *DepartmentIndex) Lookup(in CohortInput) *model.Department {
	if d, ok := ix.exact[exactKey{in.CourseCode, in.Course, in.AcademicYear, in.Year}]; ok {
		return d
	}
	for _, d := range ix.byGroup[groupKey{in.CourseCode, in.Course, in.AcademicYear}] {
		if cohort.NormalizeYear(d.Year) == in.Year {
			return d
		}
	}

	candidates := append([]*model.Department(nil), ix.byPair[pairKey{in.CourseCode, in.Course}]...)
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return cohort.StartYear(candidates[i].AcademicYear) > cohort.StartYear(candidates[j].AcademicYear)
	})
	for _, d := range candidates {
		if cohort.NormalizeAcademicYear(d.AcademicYear) == in.AcademicYear && cohort.NormalizeYear(d.Year) == in.Year {
			return d
		}
	}
	// A supplied academic year never falls back to another period.
	if in.AcademicYear != "" {
		return nil
	}
	for _, d := range candidates {
		if cohort.NormalizeYear(d.Year) == in.Year {
			return d
		}
	}
	return candidates[0]
}

// DepartmentResolver maps an imported row to a Department, creating the
// department when no existing one matches.
type DepartmentResolver struct {
	repo  repository.DepartmentRepository
	index *DepartmentIndex
}

func NewDepartmentResolver(repo repository.DepartmentRepository, index *DepartmentIndex) *DepartmentResolver {
	return &DepartmentResolver{repo: repo, index: index}
}

// ResolveOrCreate never fails on data; only store errors are returned.
func (r *DepartmentResolver) ResolveOrCreate(ctx context.Context, in CohortInput) (*model.Department, error) {
	in = in.normalized()

	dept := r.index.Lookup(in)
	if dept == nil {
		found, err := r.repo.FindByCohortFold(ctx, in.CourseCode, in.Course, in.AcademicYear, in.Year)
		switch {
		case err == nil:
			dept = found
			r.index.add(dept)
		case repository.IsNotFound(err):
			return r.create(ctx, in)
		default:
			return nil, err
		}
	}
	return dept, r.enrich(ctx, dept, in)
}

func (r *DepartmentResolver) create(ctx context.Context, in CohortInput) (*model.Department, error) {
	d := &model.Department{
		CourseCode:   in.CourseCode,
		Course:       in.Course,
		AcademicYear: in.AcademicYear,
		Year:         in.Year,
		ProgramType:  in.ProgramType,
		Intake:       in.Intake,
		Existing:     in.Existing,
	}
	err := r.repo.Create(ctx, d)
	if err == nil {
		r.index.add(d)
		return d, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, err
	}
	// The unique index ignores the course name: reuse the row that holds the key.
	existing, findErr := r.repo.FindByUniqueKey(ctx, in.CourseCode, in.AcademicYear, in.Year)
	if findErr != nil {
		return nil, err
	}
	r.index.add(existing)
	r.index.alias(in, existing)
	return existing, r.enrich(ctx, existing, in)
}

func (r *DepartmentResolver) enrich(ctx context.Context, d *model.Department, in CohortInput) error {
	changed := false
	if in.ProgramType != "" && strings.TrimSpace(d.ProgramType) != in.ProgramType {
		d.ProgramType = in.ProgramType
		changed = true
	}
	if in.Intake != nil && (d.Intake == nil || *d.Intake != *in.Intake) {
		v := *in.Intake
		d.Intake = &v
		changed = true
	}
	if in.Existing != nil && (d.Existing == nil || *d.Existing != *in.Existing) {
		v := *in.Existing
		d.Existing = &v
		changed = true
	}
	if !changed {
		return nil
	}
	return r.repo.Update(ctx, d)
}
