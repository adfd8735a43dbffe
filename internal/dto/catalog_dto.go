package dto

// ─── Departments ─────────────────────────────────────────────────────────────

type DepartmentRequest struct {
	CourseCode            string `json:"course_code"   validate:"required,max=50"`
	Course                string `json:"course"        validate:"required,max=200"`
	AcademicYear          string `json:"academic_year" validate:"max=20"`
	Year                  string `json:"year"          validate:"max=20"`
	ProgramType           string `json:"program_type"  validate:"max=50"`
	Intake                *int   `json:"intake"        validate:"omitempty,min=0"`
	Existing              *int   `json:"existing"      validate:"omitempty,min=0"`
	TwoHundredNotebook    int    `json:"two_hundred_notebook"    validate:"min=0"`
	TwoHundredRecord      int    `json:"two_hundred_record"      validate:"min=0"`
	TwoHundredObservation int    `json:"two_hundred_observation" validate:"min=0"`
	OneHundredNotebook    int    `json:"one_hundred_notebook"    validate:"min=0"`
	OneHundredRecord      int    `json:"one_hundred_record"      validate:"min=0"`
	OneHundredObservation int    `json:"one_hundred_observation" validate:"min=0"`
}

type DepartmentFilter struct {
	CourseCode   string `form:"course_code"`
	Course       string `form:"course"`
	AcademicYear string `form:"academic_year"`
	Year         string `form:"year"`
	Page         int    `form:"page"`
	Limit        int    `form:"limit"`
}

type DepartmentResponse struct {
	ID                    string `json:"id"`
	CourseCode            string `json:"course_code"`
	Course                string `json:"course"`
	AcademicYear          string `json:"academic_year"`
	Year                  string `json:"year"`
	ProgramType           string `json:"program_type"`
	Intake                *int   `json:"intake"`
	Existing              *int   `json:"existing"`
	TwoHundredNotebook    int    `json:"two_hundred_notebook"`
	TwoHundredRecord      int    `json:"two_hundred_record"`
	TwoHundredObservation int    `json:"two_hundred_observation"`
	OneHundredNotebook    int    `json:"one_hundred_notebook"`
	OneHundredRecord      int    `json:"one_hundred_record"`
	OneHundredObservation int    `json:"one_hundred_observation"`
	Total                 int    `json:"total"`
}

// ─── Items ───────────────────────────────────────────────────────────────────

type ItemRequest struct {
	ItemCode string `json:"item_code" validate:"required,max=50"`
	Name     string `json:"name"      validate:"required,max=200"`
	Quantity int    `json:"quantity"  validate:"min=0"`
}

type ItemResponse struct {
	ID        string `json:"id"`
	ItemCode  string `json:"item_code"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UpdatedAt string `json:"updated_at"`
}

// ─── Issuance ────────────────────────────────────────────────────────────────

type IssueLine struct {
	ItemCode string `json:"item_code"`
	Quantity int    `json:"quantity"`
	Remarks  string `json:"remarks"`
}

// IssueRequest issues several items to one student in a single transaction.
// The cohort fields are optional hints.
type IssueRequest struct {
	StudentUSN   string      `json:"student_usn"`
	Issues       []IssueLine `json:"issues"`
	CourseCode   string      `json:"course_code"`
	Course       string      `json:"course"`
	AcademicYear string      `json:"academic_year"`
	Year         string      `json:"year"`
}

type IssueFilter struct {
	StudentUSN string `form:"usn"`
	ItemCode   string `form:"item_code"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
}

type IssueRecordResponse struct {
	ID           string `json:"id"`
	StudentID    string `json:"student_id"`
	StudentUSN   string `json:"student_usn,omitempty"`
	ItemCode     string `json:"item_code"`
	QtyIssued    int    `json:"qty_issued"`
	Status       string `json:"status"`
	Remarks      string `json:"remarks"`
	DateIssued   string `json:"date_issued"`
	AcademicYear string `json:"academic_year"`
	Year         string `json:"year"`
}

// ─── Pending reports ─────────────────────────────────────────────────────────

type PendingReportResponse struct {
	ID           string `json:"id"`
	StudentID    string `json:"student_id"`
	USN          string `json:"usn"`
	Name         string `json:"name"`
	CourseCode   string `json:"course_code"`
	Course       string `json:"course"`
	AcademicYear string `json:"academic_year"`
	Year         string `json:"year"`
	PN2          int    `json:"pn2"`
	PR2          int    `json:"pr2"`
	PO2          int    `json:"po2"`
	PN1          int    `json:"pn1"`
	PR1          int    `json:"pr1"`
	PO1          int    `json:"po1"`
	GeneratedAt  string `json:"generated_at"`
}

// ─── Dynamic requirements ────────────────────────────────────────────────────

type RequirementLine struct {
	ItemID      string `json:"item_id"`
	ItemCode    string `json:"item_code"`
	ItemName    string `json:"item_name"`
	RequiredQty int    `json:"required_qty"`
}

type UpdateRequirementsRequest struct {
	DepartmentID string            `json:"department_id" validate:"required,uuid"`
	Requirements []RequirementLine `json:"requirements"  validate:"required"`
}

type RequirementResponse struct {
	ID          string `json:"id"`
	ItemID      string `json:"item_id"`
	ItemCode    string `json:"item_code"`
	ItemName    string `json:"item_name"`
	RequiredQty int    `json:"required_qty"`
}

type RequirementsResponse struct {
	DepartmentID *string               `json:"department_id"`
	Requirements []RequirementResponse `json:"requirements"`
}

type UpdateRequirementsResponse struct {
	Upserted int `json:"upserted"`
}

type RequirementsBackfillResponse struct {
	ItemsCreated        int `json:"items_created"`
	RequirementsCreated int `json:"requirements_created"`
	RequirementsUpdated int `json:"requirements_updated"`
}
