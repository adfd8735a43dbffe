package model

import (
	"time"

	"github.com/google/uuid"
)

// Student is identified by USN and belongs to one home Department at a time.
type Student struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	USN          string    `gorm:"column:usn;type:varchar(50);uniqueIndex;not null"`
	Name         string    `gorm:"type:varchar(200);not null"`
	DepartmentID uuid.UUID `gorm:"type:uuid;not null;index"`
	Year         string    `gorm:"type:varchar(10);not null;default:''"`
	Email        string    `gorm:"type:varchar(254);not null;default:''"`
	Phone        string    `gorm:"type:varchar(20);not null;default:''"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Department *Department `gorm:"foreignKey:DepartmentID;constraint:OnDelete:CASCADE"`
}

// Enrollment records that a student took part in a cohort during a period.
// Get-or-create only; rows are never updated.
type Enrollment struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StudentID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollments_cohort,priority:1"`
	DepartmentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollments_cohort,priority:2"`
	AcademicYear string    `gorm:"type:varchar(20);not null;default:'';uniqueIndex:idx_enrollments_cohort,priority:3"`
	Year         string    `gorm:"type:varchar(10);not null;default:'';uniqueIndex:idx_enrollments_cohort,priority:4"`
	CreatedAt    time.Time

	Student    *Student    `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
	Department *Department `gorm:"foreignKey:DepartmentID;constraint:OnDelete:CASCADE"`
}
