package service

import (
	"context"

	"github.com/sushmag0wda/Aims-Inventory/internal/dto"
	"github.com/sushmag0wda/Aims-Inventory/internal/repository"

	"golang.org/x/sync/errgroup"
)

type DashboardService interface {
	Summary(ctx context.Context) (*dto.DashboardSummary, error)
}

type dashboardService struct {
	departments repository.DepartmentRepository
	enrollments repository.EnrollmentRepository
	items       repository.ItemRepository
	issues      repository.IssueRepository
	inventory   repository.InventoryRepository
}

func NewDashboardService(
	departments repository.DepartmentRepository,
	enrollments repository.EnrollmentRepository,
	items repository.ItemRepository,
	issues repository.IssueRepository,
	inventory repository.InventoryRepository,
) DashboardService {
	return &dashboardService{departments: departments, enrollments: enrollments, items: items, issues: issues, inventory: inventory}
}

// Summary runs the independent counters concurrently.
func (s *dashboardService) Summary(ctx context.Context) (*dto.DashboardSummary, error) {
	var out dto.DashboardSummary
	var stock int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { out.TotalDepartments, err = s.departments.Count(gctx); return })
	g.Go(func() (err error) { out.TotalStudents, err = s.enrollments.Count(gctx); return })
	g.Go(func() (err error) { out.TotalIssued, err = s.issues.SumIssued(gctx); return })
	g.Go(func() (err error) { stock, err = s.items.SumQuantity(gctx); return })
	g.Go(func() (err error) { out.OpenOrders, err = s.inventory.CountOpenOrders(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out.BooksInHand = max(0, stock-out.TotalIssued)
	return &out, nil
}
