package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

// StudentImportRow is one spreadsheet row of a bulk upload. Every field is
// free text; the import engine normalizes them.
type StudentImportRow struct {
	USN          FlexString `json:"usn"`
	Name         FlexString `json:"name"`
	CourseCode   FlexString `json:"course_code"`
	Course       FlexString `json:"course"`
	Year         FlexString `json:"year"`
	AcademicYear FlexString `json:"academic_year"`
	ProgramType  FlexString `json:"program_type"`
	Intake       FlexString `json:"intake"`
	Existing     FlexString `json:"existing"`
	Email        FlexString `json:"email"`
	Phone        FlexString `json:"phone"`
}

// BulkUploadRequest is the object form of a bulk upload; a bare JSON array of
// rows is accepted as well.
type BulkUploadRequest struct {
	Students []StudentImportRow `json:"students"`
}

type CreateStudentRequest struct {
	USN          string `json:"usn"           validate:"required,max=50"`
	Name         string `json:"name"          validate:"required,max=200"`
	DepartmentID string `json:"department_id" validate:"required,uuid"`
	Year         string `json:"year"          validate:"max=20"`
	Email        string `json:"email"         validate:"omitempty,email"`
	Phone        string `json:"phone"         validate:"max=30"`
}

type UpdateStudentRequest struct {
	Name         *string `json:"name"          validate:"omitempty,max=200"`
	DepartmentID *string `json:"department_id" validate:"omitempty,uuid"`
	Year         *string `json:"year"          validate:"omitempty,max=20"`
	Email        *string `json:"email"         validate:"omitempty,email"`
	Phone        *string `json:"phone"         validate:"omitempty,max=30"`
}

// CohortQuery carries the optional cohort hints of record and slip lookups.
type CohortQuery struct {
	CourseCode   string `form:"course_code"`
	Course       string `form:"course"`
	AcademicYear string `form:"academic_year"`
	Year         string `form:"year"`
}

type StudentFilter struct {
	DepartmentID string `form:"department_id"`
	Search       string `form:"search"`
	Page         int    `form:"page"`
	Limit        int    `form:"limit"`
}

type EnrollmentFilter struct {
	StudentUSN   string `form:"usn"`
	DepartmentID string `form:"department_id"`
	AcademicYear string `form:"academic_year"`
	Year         string `form:"year"`
	Page         int    `form:"page"`
	Limit        int    `form:"limit"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ImportResult struct {
	Message            string `json:"message"`
	Created            int    `json:"created"`
	Updated            int    `json:"updated"`
	CreatedEnrollments int    `json:"created_enrollments"`
	Received           int    `json:"received"`
}

type StudentResponse struct {
	ID           string `json:"id"`
	USN          string `json:"usn"`
	Name         string `json:"name"`
	DepartmentID string `json:"department_id"`
	CourseCode   string `json:"course_code"`
	Course       string `json:"course"`
	AcademicYear string `json:"academic_year"`
	Year         string `json:"year"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
}

type EnrollmentResponse struct {
	ID           string `json:"id"`
	StudentID    string `json:"student_id"`
	StudentUSN   string `json:"student_usn"`
	StudentName  string `json:"student_name"`
	DepartmentID string `json:"department_id"`
	CourseCode   string `json:"course_code"`
	Course       string `json:"course"`
	AcademicYear string `json:"academic_year"`
	Year         string `json:"year"`
	CreatedAt    string `json:"created_at"`
}

// StudentRecordsResponse lists what a student received in a cohort and what
// is still owed per legacy item code.
type StudentRecordsResponse struct {
	Issued  []IssueRecordResponse `json:"issued"`
	Pending map[string]int        `json:"pending"`
}
