package model

import (
	"time"

	"github.com/google/uuid"
)

// Item is a stock-keeping unit. Quantity is the on-hand counter; every change
// to it is mirrored by a StockLogEntry or an IssueRecord.
type Item struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ItemCode  string    `gorm:"type:varchar(50);uniqueIndex;not null"`
	Name      string    `gorm:"type:varchar(200);not null"`
	Quantity  int       `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IssueRecord is the immutable fact that a student received a quantity of an
// item during a cohort (academic_year, year).
type IssueRecord struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StudentID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	ItemCode     string     `gorm:"type:varchar(50);not null;index"`
	QtyIssued    int        `gorm:"not null"`
	Status       string     `gorm:"type:varchar(20);not null;default:'Issued'"`
	Remarks      string     `gorm:"type:varchar(255);not null;default:''"`
	DateIssued   time.Time  `gorm:"type:date;not null"`
	AcademicYear string     `gorm:"type:varchar(20);not null;default:''"`
	Year         string     `gorm:"type:varchar(10);not null;default:''"`
	IssuedByID   *uuid.UUID `gorm:"type:uuid"`
	CreatedAt    time.Time

	Student *Student `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
}

// IssueStatusIssued is the only status the issuance flow writes.
const IssueStatusIssued = "Issued"

// PendingReport is a cached snapshot of a student's pending quantities for one
// cohort. It is regenerated on demand and never read by the issuance flow.
type PendingReport struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StudentID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_pending_reports_cohort,priority:1"`
	AcademicYear string    `gorm:"type:varchar(20);not null;default:'';uniqueIndex:idx_pending_reports_cohort,priority:2"`
	Year         string    `gorm:"type:varchar(10);not null;default:'';uniqueIndex:idx_pending_reports_cohort,priority:3"`
	USN          string    `gorm:"column:usn;type:varchar(50);not null"`
	Name         string    `gorm:"type:varchar(200);not null"`
	CourseCode   string    `gorm:"type:varchar(50);not null"`
	Course       string    `gorm:"type:varchar(200);not null"`
	PN2          int       `gorm:"column:pn2;not null;default:0"`
	PR2          int       `gorm:"column:pr2;not null;default:0"`
	PO2          int       `gorm:"column:po2;not null;default:0"`
	PN1          int       `gorm:"column:pn1;not null;default:0"`
	PR1          int       `gorm:"column:pr1;not null;default:0"`
	PO1          int       `gorm:"column:po1;not null;default:0"`
	GeneratedAt  time.Time

	Student *Student `gorm:"foreignKey:StudentID"`
}

// SetPending copies a code -> quantity map into the six columns.
func (p *PendingReport) SetPending(pending map[string]int) {
	p.PN2 = pending[Code200Notebook]
	p.PR2 = pending[Code200Record]
	p.PO2 = pending[Code200Observation]
	p.PN1 = pending[Code100Notebook]
	p.PR1 = pending[Code100Record]
	p.PO1 = pending[Code100Observation]
}

// DepartmentItemRequirement is the dynamic per-item requirement table. It runs
// in parallel with the six fixed Department slots and is not read by issuance.
type DepartmentItemRequirement struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DepartmentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_dept_item_req,priority:1"`
	ItemID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_dept_item_req,priority:2"`
	RequiredQty  int       `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Department *Department `gorm:"foreignKey:DepartmentID;constraint:OnDelete:CASCADE"`
	Item       *Item       `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
}
