package model

import (
	"time"

	"github.com/google/uuid"
)

// Legacy item codes with a fixed requirement column on Department.
const (
	Code200Notebook    = "2PN"
	Code200Record      = "2PR"
	Code200Observation = "2PO"
	Code100Notebook    = "1PN"
	Code100Record      = "1PR"
	Code100Observation = "1PO"
)

// LegacyItem describes one of the six fixed requirement slots.
type LegacyItem struct {
	Code string
	Name string
}

// LegacyItems lists the six slots in display order.
var LegacyItems = []LegacyItem{
	{Code200Notebook, "200 Pages Note Book"},
	{Code200Record, "200 Pages Record"},
	{Code200Observation, "200 Pages Observation"},
	{Code100Notebook, "100 Pages Note Book"},
	{Code100Record, "100 Pages Record"},
	{Code100Observation, "100 Pages Observation"},
}

// Department is a course cohort: one (course_code, course, academic_year, year)
// with the per-student quantity of each legacy item its students are entitled to.
// The DB unique index covers (course_code, year, academic_year) only.
type Department struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CourseCode   string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_departments_cohort,priority:1"`
	Course       string    `gorm:"type:varchar(200);not null"`
	AcademicYear string    `gorm:"type:varchar(20);not null;default:'';uniqueIndex:idx_departments_cohort,priority:3"`
	Year         string    `gorm:"type:varchar(10);not null;default:'';uniqueIndex:idx_departments_cohort,priority:2"`
	ProgramType  string    `gorm:"type:varchar(50);not null;default:''"`
	Intake       *int
	Existing     *int

	TwoHundredNotebook    int `gorm:"not null;default:0"`
	TwoHundredRecord      int `gorm:"not null;default:0"`
	TwoHundredObservation int `gorm:"not null;default:0"`
	OneHundredNotebook    int `gorm:"not null;default:0"`
	OneHundredRecord      int `gorm:"not null;default:0"`
	OneHundredObservation int `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Required returns the slot value for a legacy item code (0 for unknown codes).
func (d *Department) Required(code string) int {
	switch code {
	case Code200Notebook:
		return d.TwoHundredNotebook
	case Code200Record:
		return d.TwoHundredRecord
	case Code200Observation:
		return d.TwoHundredObservation
	case Code100Notebook:
		return d.OneHundredNotebook
	case Code100Record:
		return d.OneHundredRecord
	case Code100Observation:
		return d.OneHundredObservation
	}
	return 0
}

// SetRequired writes a slot value; unknown codes are ignored.
func (d *Department) SetRequired(code string, qty int) {
	switch code {
	case Code200Notebook:
		d.TwoHundredNotebook = qty
	case Code200Record:
		d.TwoHundredRecord = qty
	case Code200Observation:
		d.TwoHundredObservation = qty
	case Code100Notebook:
		d.OneHundredNotebook = qty
	case Code100Record:
		d.OneHundredRecord = qty
	case Code100Observation:
		d.OneHundredObservation = qty
	}
}

// Total is the sum of all six slots.
func (d *Department) Total() int {
	total := 0
	for _, li := range LegacyItems {
		total += d.Required(li.Code)
	}
	return total
}
