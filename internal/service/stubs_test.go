package service_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sushmag0wda/Aims-Inventory/internal/model"
	"github.com/sushmag0wda/Aims-Inventory/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── In-memory store ──────────────────────────────────────────────────────────

// memDB backs every stub repository. Transactions snapshot the tables and
// restore them when fn fails, so rollback is observable from tests.
type memDB struct {
	mu  sync.Mutex
	now time.Time

	departments   []model.Department
	students      []model.Student
	enrollments   []model.Enrollment
	items         []model.Item
	issues        []model.IssueRecord
	pending       []model.PendingReport
	orders        []model.InventoryOrder
	receipts      []model.InventoryReceipt
	stockLogs     []model.StockLogEntry
	activity      []model.ActivityLog
	users         []model.User
	notifications []model.Notification
	threads       []model.HelpThread
	messages      []model.HelpMessage
	requirements  []model.DepartmentItemRequirement

	// txFailures are returned, one per call, by Transaction before fn runs.
	txFailures []error
	// issueFailures are returned, one per call, by IssueRepository.CreateTx.
	issueFailures []error
	orphansDeleted int
}

type snapshot struct {
	departments   []model.Department
	students      []model.Student
	enrollments   []model.Enrollment
	items         []model.Item
	issues        []model.IssueRecord
	pending       []model.PendingReport
	orders        []model.InventoryOrder
	receipts      []model.InventoryReceipt
	stockLogs     []model.StockLogEntry
	activity      []model.ActivityLog
	requirements  []model.DepartmentItemRequirement
}

func newMemDB() *memDB {
	return &memDB{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
}

// tick returns a strictly increasing timestamp so ordering by time is stable.
func (db *memDB) tick() time.Time {
	db.now = db.now.Add(time.Second)
	return db.now
}

func clone[T any](s []T) []T { return append([]T(nil), s...) }

func (db *memDB) snapshot() snapshot {
	return snapshot{
		departments:  clone(db.departments),
		students:     clone(db.students),
		enrollments:  clone(db.enrollments),
		items:        clone(db.items),
		issues:       clone(db.issues),
		pending:      clone(db.pending),
		orders:       clone(db.orders),
		receipts:     clone(db.receipts),
		stockLogs:    clone(db.stockLogs),
		activity:     clone(db.activity),
		requirements: clone(db.requirements),
	}
}

func (db *memDB) restore(s snapshot) {
	db.departments = s.departments
	db.students = s.students
	db.enrollments = s.enrollments
	db.items = s.items
	db.issues = s.issues
	db.pending = s.pending
	db.orders = s.orders
	db.receipts = s.receipts
	db.stockLogs = s.stockLogs
	db.activity = s.activity
	db.requirements = s.requirements
}

func pop(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

// ── Transactor ───────────────────────────────────────────────────────────────

type stubTx struct{ db *memDB }

var _ repository.Transactor = (*stubTx)(nil)

func (t *stubTx) Transaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	t.db.mu.Lock()
	if err := pop(&t.db.txFailures); err != nil {
		t.db.mu.Unlock()
		return err
	}
	snap := t.db.snapshot()
	t.db.mu.Unlock()

	if err := fn(nil); err != nil {
		t.db.mu.Lock()
		t.db.restore(snap)
		t.db.mu.Unlock()
		return err
	}
	return nil
}

// ── Departments ──────────────────────────────────────────────────────────────

type stubDepartmentRepo struct{ db *memDB }

var _ repository.DepartmentRepository = (*stubDepartmentRepo)(nil)

func (r *stubDepartmentRepo) uniqueTaken(d *model.Department) bool {
	for _, o := range r.db.departments {
		if o.ID != d.ID && o.CourseCode == d.CourseCode && o.AcademicYear == d.AcademicYear && o.Year == d.Year {
			return true
		}
	}
	return false
}

func (r *stubDepartmentRepo) Create(_ context.Context, d *model.Department) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.uniqueTaken(d) {
		return gorm.ErrDuplicatedKey
	}
	d.ID = uuid.New()
	d.CreatedAt = r.db.tick()
	d.UpdatedAt = d.CreatedAt
	r.db.departments = append(r.db.departments, *d)
	return nil
}

func (r *stubDepartmentRepo) Update(_ context.Context, d *model.Department) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.uniqueTaken(d) {
		return gorm.ErrDuplicatedKey
	}
	for i := range r.db.departments {
		if r.db.departments[i].ID == d.ID {
			r.db.departments[i] = *d
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubDepartmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := r.db.departments[:0]
	for _, d := range r.db.departments {
		if d.ID != id {
			out = append(out, d)
		}
	}
	r.db.departments = out
	return nil
}

func (r *stubDepartmentRepo) find(match func(d *model.Department) bool) (*model.Department, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range r.db.departments {
		if match(&r.db.departments[i]) {
			d := r.db.departments[i]
			return &d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubDepartmentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Department, error) {
	return r.find(func(d *model.Department) bool { return d.ID == id })
}

func (r *stubDepartmentRepo) List(_ context.Context, f repository.DepartmentFilter) ([]model.Department, int64, error) {
	all, _ := r.All(context.Background())
	var out []model.Department
	for _, d := range all {
		if f.CourseCode != "" && !strings.EqualFold(d.CourseCode, f.CourseCode) {
			continue
		}
		if f.AcademicYear != "" && d.AcademicYear != f.AcademicYear {
			continue
		}
		if f.Year != "" && d.Year != f.Year {
			continue
		}
		out = append(out, d)
	}
	return out, int64(len(out)), nil
}

func (r *stubDepartmentRepo) All(context.Context) ([]model.Department, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return clone(r.db.departments), nil
}

func (r *stubDepartmentRepo) FindByCohortFold(_ context.Context, code, course, ay, year string) (*model.Department, error) {
	return r.find(func(d *model.Department) bool {
		return strings.EqualFold(d.CourseCode, code) && strings.EqualFold(d.Course, course) &&
			strings.EqualFold(d.AcademicYear, ay) && strings.EqualFold(d.Year, year)
	})
}

func (r *stubDepartmentRepo) FindByUniqueKey(_ context.Context, code, ay, year string) (*model.Department, error) {
	return r.find(func(d *model.Department) bool {
		return d.CourseCode == code && d.AcademicYear == ay && d.Year == year
	})
}

// Stub transactions pass a nil handle; the shared memDB is the transaction.
func (r *stubDepartmentRepo) WithTx(*gorm.DB) repository.DepartmentRepository { return r }

func (r *stubDepartmentRepo) Count(context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return int64(len(r.db.departments)), nil
}

// ── Students & enrollments ───────────────────────────────────────────────────

type stubStudentRepo struct{ db *memDB }

var _ repository.StudentRepository = (*stubStudentRepo)(nil)

func (r *stubStudentRepo) insert(s *model.Student) bool {
	for _, o := range r.db.students {
		if strings.EqualFold(o.USN, s.USN) {
			return false
		}
	}
	s.ID = uuid.New()
	s.CreatedAt = r.db.tick()
	s.UpdatedAt = s.CreatedAt
	stored := *s
	stored.Department = nil
	r.db.students = append(r.db.students, stored)
	return true
}

func (r *stubStudentRepo) Create(_ context.Context, s *model.Student) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if !r.insert(s) {
		return gorm.ErrDuplicatedKey
	}
	return nil
}

func (r *stubStudentRepo) Update(_ context.Context, s *model.Student) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range r.db.students {
		if r.db.students[i].ID == s.ID {
			stored := *s
			stored.Department = nil
			r.db.students[i] = stored
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubStudentRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := r.db.students[:0]
	for _, s := range r.db.students {
		if s.ID != id {
			out = append(out, s)
		}
	}
	r.db.students = out
	return nil
}

func (r *stubStudentRepo) withDepartment(s model.Student) *model.Student {
	for i := range r.db.departments {
		if r.db.departments[i].ID == s.DepartmentID {
			d := r.db.departments[i]
			s.Department = &d
		}
	}
	return &s
}

func (r *stubStudentRepo) FindByUSN(_ context.Context, usn string) (*model.Student, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, s := range r.db.students {
		if strings.EqualFold(s.USN, usn) {
			return r.withDepartment(s), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubStudentRepo) List(_ context.Context, f repository.StudentFilter) ([]model.Student, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Student
	for _, s := range r.db.students {
		if f.DepartmentID != nil && s.DepartmentID != *f.DepartmentID {
			continue
		}
		out = append(out, *r.withDepartment(s))
	}
	return out, int64(len(out)), nil
}

func (r *stubStudentRepo) ListAll(context.Context) ([]model.Student, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]model.Student, len(r.db.students))
	for i, s := range r.db.students {
		out[i] = *r.withDepartment(s)
	}
	return out, nil
}

func (r *stubStudentRepo) CreateBatchIgnoreConflicts(_ context.Context, students []model.Student) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range students {
		r.insert(&students[i])
	}
	return nil
}

func (r *stubStudentRepo) Count(context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return int64(len(r.db.students)), nil
}

func (r *stubStudentRepo) WithTx(*gorm.DB) repository.StudentRepository { return r }

func (r *stubStudentRepo) DeleteAllTx(*gorm.DB) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.students = nil
	return nil
}

type stubEnrollmentRepo struct{ db *memDB }

var _ repository.EnrollmentRepository = (*stubEnrollmentRepo)(nil)

func (r *stubEnrollmentRepo) GetOrCreate(_ context.Context, e *model.Enrollment) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, o := range r.db.enrollments {
		if o.StudentID == e.StudentID && o.DepartmentID == e.DepartmentID && o.AcademicYear == e.AcademicYear && o.Year == e.Year {
			*e = o
			return false, nil
		}
	}
	e.ID = uuid.New()
	e.CreatedAt = r.db.tick()
	r.db.enrollments = append(r.db.enrollments, *e)
	return true, nil
}

func (r *stubEnrollmentRepo) hydrate(e model.Enrollment) model.Enrollment {
	for i := range r.db.departments {
		if r.db.departments[i].ID == e.DepartmentID {
			d := r.db.departments[i]
			e.Department = &d
		}
	}
	for i := range r.db.students {
		if r.db.students[i].ID == e.StudentID {
			s := r.db.students[i]
			e.Student = &s
		}
	}
	return e
}

func (r *stubEnrollmentRepo) ListByStudent(_ context.Context, studentID uuid.UUID) ([]model.Enrollment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Enrollment
	for _, e := range r.db.enrollments {
		if e.StudentID == studentID {
			out = append(out, r.hydrate(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out, nil
}

func (r *stubEnrollmentRepo) List(_ context.Context, f repository.EnrollmentFilter) ([]model.Enrollment, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Enrollment
	for _, e := range r.db.enrollments {
		if f.StudentID != nil && e.StudentID != *f.StudentID {
			continue
		}
		if f.DepartmentID != nil && e.DepartmentID != *f.DepartmentID {
			continue
		}
		out = append(out, r.hydrate(e))
	}
	return out, int64(len(out)), nil
}

func (r *stubEnrollmentRepo) ListAll(context.Context) ([]model.Enrollment, error) {
	all, _, err := r.List(context.Background(), repository.EnrollmentFilter{})
	return all, err
}

func (r *stubEnrollmentRepo) Count(context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return int64(len(r.db.enrollments)), nil
}

func (r *stubEnrollmentRepo) WithTx(*gorm.DB) repository.EnrollmentRepository { return r }

func (r *stubEnrollmentRepo) DeleteAllTx(*gorm.DB) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.enrollments = nil
	return nil
}

// ── Items & issue records ────────────────────────────────────────────────────

type stubItemRepo struct{ db *memDB }

var _ repository.ItemRepository = (*stubItemRepo)(nil)

func (r *stubItemRepo) Create(_ context.Context, i *model.Item) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, o := range r.db.items {
		if strings.EqualFold(o.ItemCode, i.ItemCode) {
			return gorm.ErrDuplicatedKey
		}
	}
	i.ID = uuid.New()
	i.CreatedAt = r.db.tick()
	i.UpdatedAt = i.CreatedAt
	r.db.items = append(r.db.items, *i)
	return nil
}

func (r *stubItemRepo) UpdateTx(_ *gorm.DB, i *model.Item) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, o := range r.db.items {
		if o.ID != i.ID && strings.EqualFold(o.ItemCode, i.ItemCode) {
			return gorm.ErrDuplicatedKey
		}
	}
	for k := range r.db.items {
		if r.db.items[k].ID == i.ID {
			r.db.items[k] = *i
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubItemRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := r.db.items[:0]
	for _, i := range r.db.items {
		if i.ID != id {
			out = append(out, i)
		}
	}
	r.db.items = out
	return nil
}

func (r *stubItemRepo) find(match func(*model.Item) bool) (*model.Item, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for k := range r.db.items {
		if match(&r.db.items[k]) {
			i := r.db.items[k]
			return &i, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubItemRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Item, error) {
	return r.find(func(i *model.Item) bool { return i.ID == id })
}

func (r *stubItemRepo) FindByCode(_ context.Context, code string) (*model.Item, error) {
	return r.find(func(i *model.Item) bool { return strings.EqualFold(i.ItemCode, code) })
}

func (r *stubItemRepo) List(context.Context) ([]model.Item, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return clone(r.db.items), nil
}

func (r *stubItemRepo) SumQuantity(context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, i := range r.db.items {
		n += int64(i.Quantity)
	}
	return n, nil
}

func (r *stubItemRepo) Count(context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return int64(len(r.db.items)), nil
}

func (r *stubItemRepo) FindByCodeForUpdateTx(_ *gorm.DB, code string) (*model.Item, error) {
	return r.FindByCode(context.Background(), code)
}

func (r *stubItemRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Item, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubItemRepo) UpdateQuantityTx(_ *gorm.DB, id uuid.UUID, quantity int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for k := range r.db.items {
		if r.db.items[k].ID == id {
			r.db.items[k].Quantity = quantity
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type stubIssueRepo struct{ db *memDB }

var _ repository.IssueRepository = (*stubIssueRepo)(nil)

func (r *stubIssueRepo) CreateTx(_ *gorm.DB, rec *model.IssueRecord) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := pop(&r.db.issueFailures); err != nil {
		return err
	}
	rec.ID = uuid.New()
	rec.CreatedAt = r.db.tick()
	r.db.issues = append(r.db.issues, *rec)
	return nil
}

func (r *stubIssueRepo) ListByStudent(_ context.Context, studentID uuid.UUID, ay, year string) ([]model.IssueRecord, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.IssueRecord
	for _, rec := range r.db.issues {
		if rec.StudentID != studentID {
			continue
		}
		if ay != "" && !strings.EqualFold(rec.AcademicYear, ay) {
			continue
		}
		if year != "" && rec.Year != year {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *stubIssueRepo) List(_ context.Context, f repository.IssueFilter) ([]model.IssueRecord, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.IssueRecord
	for _, rec := range r.db.issues {
		if f.StudentID != nil && rec.StudentID != *f.StudentID {
			continue
		}
		if f.ItemCode != "" && !strings.EqualFold(rec.ItemCode, f.ItemCode) {
			continue
		}
		out = append(out, rec)
	}
	return out, int64(len(out)), nil
}

func (r *stubIssueRepo) SumIssued(context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, rec := range r.db.issues {
		n += int64(rec.QtyIssued)
	}
	return n, nil
}

func (r *stubIssueRepo) Count(context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return int64(len(r.db.issues)), nil
}

func (r *stubIssueRepo) DeleteAllTx(*gorm.DB) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.issues = nil
	return nil
}

// ── Pending reports ──────────────────────────────────────────────────────────

type stubPendingReportRepo struct{ db *memDB }

var _ repository.PendingReportRepository = (*stubPendingReportRepo)(nil)

func (r *stubPendingReportRepo) Upsert(_ context.Context, p *model.PendingReport) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i, o := range r.db.pending {
		if o.StudentID == p.StudentID && o.AcademicYear == p.AcademicYear && o.Year == p.Year {
			p.ID = o.ID
			r.db.pending[i] = *p
			return false, nil
		}
	}
	p.ID = uuid.New()
	r.db.pending = append(r.db.pending, *p)
	return true, nil
}

func (r *stubPendingReportRepo) List(_ context.Context, _, _ int) ([]model.PendingReport, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return clone(r.db.pending), int64(len(r.db.pending)), nil
}

func (r *stubPendingReportRepo) Count(context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return int64(len(r.db.pending)), nil
}

func (r *stubPendingReportRepo) DeleteOrphans(context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.orphansDeleted++
	return 0, nil
}

func (r *stubPendingReportRepo) DeleteAllTx(*gorm.DB) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.pending = nil
	return nil
}

// ── Ledger ───────────────────────────────────────────────────────────────────

type stubInventoryRepo struct{ db *memDB }

var _ repository.InventoryRepository = (*stubInventoryRepo)(nil)

func (r *stubInventoryRepo) CreateOrderTx(_ *gorm.DB, o *model.InventoryOrder) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	o.ID = uuid.New()
	o.OrderedAt = r.db.tick()
	o.UpdatedAt = o.OrderedAt
	stored := *o
	stored.Item = nil
	r.db.orders = append(r.db.orders, stored)
	return nil
}

func (r *stubInventoryRepo) FindOrder(_ context.Context, id uuid.UUID) (*model.InventoryOrder, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, o := range r.db.orders {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubInventoryRepo) FindOrderForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.InventoryOrder, error) {
	return r.FindOrder(context.Background(), id)
}

func (r *stubInventoryRepo) UpdateOrderTx(_ *gorm.DB, o *model.InventoryOrder) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range r.db.orders {
		if r.db.orders[i].ID == o.ID {
			stored := *o
			stored.Item = nil
			r.db.orders[i] = stored
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubInventoryRepo) ListOrders(_ context.Context, f repository.OrderFilter) ([]model.InventoryOrder, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.InventoryOrder
	for _, o := range r.db.orders {
		if f.ItemID != nil && o.ItemID != *f.ItemID {
			continue
		}
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func (r *stubInventoryRepo) CountOpenOrders(context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, o := range r.db.orders {
		if o.Status != model.OrderReceived {
			n++
		}
	}
	return n, nil
}

func (r *stubInventoryRepo) CreateReceiptTx(_ *gorm.DB, rec *model.InventoryReceipt) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rec.ID = uuid.New()
	rec.ReceivedAt = r.db.tick()
	r.db.receipts = append(r.db.receipts, *rec)
	return nil
}

func (r *stubInventoryRepo) ListReceipts(_ context.Context, f repository.ReceiptFilter) ([]model.InventoryReceipt, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.InventoryReceipt
	for _, rec := range r.db.receipts {
		if f.ItemID != nil && rec.ItemID != *f.ItemID {
			continue
		}
		if f.OrderID != nil && (rec.OrderID == nil || *rec.OrderID != *f.OrderID) {
			continue
		}
		out = append(out, rec)
	}
	return out, int64(len(out)), nil
}

func (r *stubInventoryRepo) LockReceiptsTx(_ *gorm.DB, itemID uuid.UUID, newestFirst bool) ([]model.InventoryReceipt, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.InventoryReceipt
	for _, rec := range r.db.receipts {
		if rec.ItemID == itemID {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if newestFirst {
			return out[i].ReceivedAt.After(out[j].ReceivedAt)
		}
		return out[i].ReceivedAt.Before(out[j].ReceivedAt)
	})
	return out, nil
}

func (r *stubInventoryRepo) SetConsumedTx(_ *gorm.DB, id uuid.UUID, consumed int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range r.db.receipts {
		if r.db.receipts[i].ID == id {
			r.db.receipts[i].ConsumedQty = consumed
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// receipt returns the stored state of a receipt.
func (db *memDB) receipt(id uuid.UUID) model.InventoryReceipt {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, r := range db.receipts {
		if r.ID == id {
			return r
		}
	}
	return model.InventoryReceipt{}
}

type stubStockLogRepo struct{ db *memDB }

var _ repository.StockLogRepository = (*stubStockLogRepo)(nil)

func (r *stubStockLogRepo) Create(_ context.Context, e *model.StockLogEntry) error {
	return r.CreateTx(nil, e)
}

func (r *stubStockLogRepo) CreateTx(_ *gorm.DB, e *model.StockLogEntry) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	e.ID = uuid.New()
	e.CreatedAt = r.db.tick()
	r.db.stockLogs = append(r.db.stockLogs, *e)
	return nil
}

func (r *stubStockLogRepo) List(_ context.Context, f repository.StockLogFilter) ([]model.StockLogEntry, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.StockLogEntry
	for _, e := range r.db.stockLogs {
		if f.ItemID != nil && e.ItemID != *f.ItemID {
			continue
		}
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

func (r *stubStockLogRepo) DeleteAll(context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n := int64(len(r.db.stockLogs))
	r.db.stockLogs = nil
	return n, nil
}

// ── Activity log ─────────────────────────────────────────────────────────────

type stubActivityRepo struct{ db *memDB }

var _ repository.ActivityLogRepository = (*stubActivityRepo)(nil)

func (r *stubActivityRepo) Create(_ context.Context, a *model.ActivityLog) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a.ID = uuid.New()
	if a.Timestamp.IsZero() {
		a.Timestamp = r.db.tick()
	}
	r.db.activity = append(r.db.activity, *a)
	return nil
}

func (r *stubActivityRepo) Recent(_ context.Context, limit int) ([]model.ActivityLog, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.ActivityLog
	for i := len(r.db.activity) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.db.activity[i])
	}
	return out, nil
}

// ── Requirements ─────────────────────────────────────────────────────────────

type stubRequirementRepo struct{ db *memDB }

var _ repository.RequirementRepository = (*stubRequirementRepo)(nil)

func (r *stubRequirementRepo) ListByDepartment(_ context.Context, deptID uuid.UUID) ([]model.DepartmentItemRequirement, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.DepartmentItemRequirement
	for _, req := range r.db.requirements {
		if req.DepartmentID != deptID {
			continue
		}
		for i := range r.db.items {
			if r.db.items[i].ID == req.ItemID {
				item := r.db.items[i]
				req.Item = &item
			}
		}
		out = append(out, req)
	}
	return out, nil
}

func (r *stubRequirementRepo) Find(_ context.Context, deptID, itemID uuid.UUID) (*model.DepartmentItemRequirement, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, req := range r.db.requirements {
		if req.DepartmentID == deptID && req.ItemID == itemID {
			return &req, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRequirementRepo) Create(_ context.Context, req *model.DepartmentItemRequirement) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	req.ID = uuid.New()
	r.db.requirements = append(r.db.requirements, *req)
	return nil
}

func (r *stubRequirementRepo) UpdateQty(_ context.Context, id uuid.UUID, qty int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range r.db.requirements {
		if r.db.requirements[i].ID == id {
			r.db.requirements[i].RequiredQty = qty
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubRequirementRepo) Upsert(ctx context.Context, req *model.DepartmentItemRequirement) error {
	existing, err := r.Find(ctx, req.DepartmentID, req.ItemID)
	if err != nil {
		return r.Create(ctx, req)
	}
	return r.UpdateQty(ctx, existing.ID, req.RequiredQty)
}

// ── Users, notifications & help center ───────────────────────────────────────

type stubUserRepo struct{ db *memDB }

var _ repository.UserRepository = (*stubUserRepo)(nil)

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, o := range r.db.users {
		if strings.EqualFold(o.Username, u.Username) {
			return gorm.ErrDuplicatedKey
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = r.db.tick()
	r.db.users = append(r.db.users, *u)
	return nil
}

func (r *stubUserRepo) find(match func(*model.User) bool) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range r.db.users {
		if match(&r.db.users[i]) {
			u := r.db.users[i]
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return strings.EqualFold(u.Username, username) })
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.ID == id })
}

func (r *stubUserRepo) filter(match func(*model.User) bool) []model.User {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.User
	for i := range r.db.users {
		if match(&r.db.users[i]) {
			out = append(out, r.db.users[i])
		}
	}
	return out
}

func (r *stubUserRepo) List(_ context.Context, f repository.UserFilter) ([]model.User, error) {
	return r.filter(func(u *model.User) bool {
		if f.ExcludeID != nil && u.ID == *f.ExcludeID {
			return false
		}
		if f.Status != "" && u.ApprovalStatus != f.Status {
			return false
		}
		if f.Search != "" {
			s := strings.ToLower(f.Search)
			return strings.Contains(strings.ToLower(u.Username), s) || strings.Contains(strings.ToLower(u.Email), s)
		}
		return true
	}), nil
}

func (r *stubUserRepo) Update(_ context.Context, u *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range r.db.users {
		if r.db.users[i].ID == u.ID {
			r.db.users[i] = *u
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := r.db.users[:0]
	for _, u := range r.db.users {
		if u.ID != id {
			out = append(out, u)
		}
	}
	r.db.users = out
	return nil
}

func (r *stubUserRepo) ListApprovedAdmins(context.Context) ([]model.User, error) {
	return r.filter(func(u *model.User) bool {
		return (u.Role == model.RoleAdmin || u.IsSuperuser) && u.ApprovalStatus == model.ApprovalApproved
	}), nil
}

func (r *stubUserRepo) ListSuperAdmins(_ context.Context, superUsername string) ([]model.User, error) {
	if supers := r.filter(func(u *model.User) bool { return u.IsSuperuser }); len(supers) > 0 {
		return supers, nil
	}
	return r.filter(func(u *model.User) bool { return strings.EqualFold(u.Username, superUsername) }), nil
}

func (r *stubUserRepo) ListHelpUsers(_ context.Context, exclude uuid.UUID) ([]model.User, error) {
	return r.filter(func(u *model.User) bool {
		return u.ApprovalStatus == model.ApprovalApproved && !u.IsSuperuser && u.ID != exclude
	}), nil
}

type stubNotificationRepo struct{ db *memDB }

var _ repository.NotificationRepository = (*stubNotificationRepo)(nil)

func (r *stubNotificationRepo) CreateBatch(_ context.Context, ns []model.Notification) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, n := range ns {
		n.ID = uuid.New()
		n.CreatedAt = r.db.tick()
		r.db.notifications = append(r.db.notifications, n)
	}
	return nil
}

func (r *stubNotificationRepo) ListForRecipient(_ context.Context, recipient uuid.UUID, limit int) ([]model.Notification, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Notification
	for i := len(r.db.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if r.db.notifications[i].RecipientID == recipient {
			out = append(out, r.db.notifications[i])
		}
	}
	return out, nil
}

func (r *stubNotificationRepo) CountUnread(_ context.Context, recipient uuid.UUID) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, x := range r.db.notifications {
		if x.RecipientID == recipient && !x.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *stubNotificationRepo) FindForRecipient(_ context.Context, id, recipient uuid.UUID) (*model.Notification, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, x := range r.db.notifications {
		if x.ID == id && x.RecipientID == recipient {
			return &x, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubNotificationRepo) MarkRead(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range r.db.notifications {
		if r.db.notifications[i].ID == id {
			r.db.notifications[i].IsRead = true
		}
	}
	return nil
}

func (r *stubNotificationRepo) Delete(_ context.Context, id uuid.UUID) error {
	_, err := r.remove(func(n *model.Notification) bool { return n.ID == id })
	return err
}

func notificationMatch(recipient *uuid.UUID, typ string, related *uuid.UUID) func(*model.Notification) bool {
	return func(n *model.Notification) bool {
		if recipient != nil && n.RecipientID != *recipient {
			return false
		}
		if n.Type != typ {
			return false
		}
		return related == nil || (n.RelatedUserID != nil && *n.RelatedUserID == *related)
	}
}

func (r *stubNotificationRepo) remove(match func(*model.Notification) bool) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	out := r.db.notifications[:0]
	for _, x := range r.db.notifications {
		if match(&x) {
			n++
			continue
		}
		out = append(out, x)
	}
	r.db.notifications = out
	return n, nil
}

func (r *stubNotificationRepo) MarkReadByType(_ context.Context, recipient *uuid.UUID, typ string, related *uuid.UUID) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	match := notificationMatch(recipient, typ, related)
	var n int64
	for i := range r.db.notifications {
		if match(&r.db.notifications[i]) && !r.db.notifications[i].IsRead {
			r.db.notifications[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *stubNotificationRepo) DeleteByType(_ context.Context, recipient *uuid.UUID, typ string, related *uuid.UUID) (int64, error) {
	return r.remove(notificationMatch(recipient, typ, related))
}

type stubHelpRepo struct{ db *memDB }

var _ repository.HelpRepository = (*stubHelpRepo)(nil)

func (r *stubHelpRepo) FindThreadByUser(_ context.Context, userID uuid.UUID) (*model.HelpThread, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, t := range r.db.threads {
		if t.UserID == userID {
			return &t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubHelpRepo) GetOrCreateThread(ctx context.Context, userID uuid.UUID) (*model.HelpThread, error) {
	if t, err := r.FindThreadByUser(ctx, userID); err == nil {
		return t, nil
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t := model.HelpThread{ID: uuid.New(), UserID: userID, CreatedAt: r.db.tick()}
	t.UpdatedAt = t.CreatedAt
	r.db.threads = append(r.db.threads, t)
	return &t, nil
}

func (r *stubHelpRepo) TouchThread(_ context.Context, threadID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range r.db.threads {
		if r.db.threads[i].ID == threadID {
			r.db.threads[i].UpdatedAt = r.db.tick()
		}
	}
	return nil
}

func visibleTo(m *model.HelpMessage, side model.Role) bool {
	if side == model.RoleAdmin {
		return !m.IsAdminDeleted
	}
	return !m.IsUserDeleted
}

func readBy(m *model.HelpMessage, side model.Role) bool {
	if side == model.RoleAdmin {
		return m.IsAdminRead
	}
	return m.IsUserRead
}

func (r *stubHelpRepo) ListMessages(_ context.Context, threadID uuid.UUID, side model.Role) ([]model.HelpMessage, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.HelpMessage
	for _, m := range r.db.messages {
		if m.ThreadID == threadID && visibleTo(&m, side) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubHelpRepo) LastMessage(ctx context.Context, threadID uuid.UUID, side model.Role) (*model.HelpMessage, error) {
	msgs, _ := r.ListMessages(ctx, threadID, side)
	if len(msgs) == 0 {
		return nil, nil
	}
	return &msgs[len(msgs)-1], nil
}

func (r *stubHelpRepo) CreateMessage(_ context.Context, m *model.HelpMessage) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m.ID = uuid.New()
	m.CreatedAt = r.db.tick()
	r.db.messages = append(r.db.messages, *m)
	return nil
}

func (r *stubHelpRepo) FindMessage(_ context.Context, id uuid.UUID) (*model.HelpMessage, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, m := range r.db.messages {
		if m.ID != id {
			continue
		}
		for _, t := range r.db.threads {
			if t.ID == m.ThreadID {
				thread := t
				m.Thread = &thread
			}
		}
		return &m, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubHelpRepo) SoftDeleteMessage(_ context.Context, id uuid.UUID, side model.Role) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range r.db.messages {
		if r.db.messages[i].ID != id {
			continue
		}
		if side == model.RoleAdmin {
			r.db.messages[i].IsAdminDeleted = true
		} else {
			r.db.messages[i].IsUserDeleted = true
		}
	}
	return nil
}

func (r *stubHelpRepo) MarkRead(_ context.Context, threadID uuid.UUID, side model.Role, reader uuid.UUID) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for i := range r.db.messages {
		m := &r.db.messages[i]
		if m.ThreadID != threadID || !visibleTo(m, side) || m.SenderID == reader || readBy(m, side) {
			continue
		}
		if side == model.RoleAdmin {
			m.IsAdminRead = true
		} else {
			m.IsUserRead = true
		}
		n++
	}
	return n, nil
}

func (r *stubHelpRepo) CountUnread(_ context.Context, threadID uuid.UUID, side model.Role, reader uuid.UUID) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for i := range r.db.messages {
		m := &r.db.messages[i]
		if m.ThreadID == threadID && visibleTo(m, side) && m.SenderID != reader && !readBy(m, side) {
			n++
		}
	}
	return n, nil
}

func (r *stubHelpRepo) ClearForSide(_ context.Context, threadID uuid.UUID, side model.Role) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for i := range r.db.messages {
		m := &r.db.messages[i]
		if m.ThreadID != threadID || !visibleTo(m, side) {
			continue
		}
		if side == model.RoleAdmin {
			m.IsAdminDeleted = true
		} else {
			m.IsUserDeleted = true
		}
		n++
	}
	return n, nil
}

// ── Fixtures ─────────────────────────────────────────────────────────────────

// repos bundles the stub repositories over one memDB.
type repos struct {
	db            *memDB
	tx            *stubTx
	departments   *stubDepartmentRepo
	students      *stubStudentRepo
	enrollments   *stubEnrollmentRepo
	items         *stubItemRepo
	issues        *stubIssueRepo
	pending       *stubPendingReportRepo
	inventory     *stubInventoryRepo
	stockLogs     *stubStockLogRepo
	activity      *stubActivityRepo
	requirements  *stubRequirementRepo
	users         *stubUserRepo
	notifications *stubNotificationRepo
	help          *stubHelpRepo
}

func newRepos() *repos {
	db := newMemDB()
	return &repos{
		db:            db,
		tx:            &stubTx{db: db},
		departments:   &stubDepartmentRepo{db: db},
		students:      &stubStudentRepo{db: db},
		enrollments:   &stubEnrollmentRepo{db: db},
		items:         &stubItemRepo{db: db},
		issues:        &stubIssueRepo{db: db},
		pending:       &stubPendingReportRepo{db: db},
		inventory:     &stubInventoryRepo{db: db},
		stockLogs:     &stubStockLogRepo{db: db},
		activity:      &stubActivityRepo{db: db},
		requirements:  &stubRequirementRepo{db: db},
		users:         &stubUserRepo{db: db},
		notifications: &stubNotificationRepo{db: db},
		help:          &stubHelpRepo{db: db},
	}
}

func (r *repos) seedDepartment(d model.Department) model.Department {
	if err := r.departments.Create(context.Background(), &d); err != nil {
		panic(err)
	}
	return d
}

func (r *repos) seedStudent(s model.Student) model.Student {
	if err := r.students.Create(context.Background(), &s); err != nil {
		panic(err)
	}
	return s
}

func (r *repos) seedItem(code string, qty int) model.Item {
	i := model.Item{ItemCode: code, Name: code, Quantity: qty}
	if err := r.items.Create(context.Background(), &i); err != nil {
		panic(err)
	}
	return i
}

func (r *repos) seedUser(u model.User) model.User {
	if err := r.users.Create(context.Background(), &u); err != nil {
		panic(err)
	}
	return u
}

func (r *repos) itemQty(code string) int {
	i, err := r.items.FindByCode(context.Background(), code)
	if err != nil {
		return -1
	}
	return i.Quantity
}
