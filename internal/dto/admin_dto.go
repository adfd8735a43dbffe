package dto

// ─── Dashboard / activity ────────────────────────────────────────────────────

type DashboardSummary struct {
	TotalDepartments int64 `json:"total_departments"`
	TotalStudents    int64 `json:"total_students"` // enrollments, one per imported cohort row
	TotalIssued      int64 `json:"total_issued"`
	BooksInHand      int64 `json:"total_pending"`
	OpenOrders       int64 `json:"open_orders"`
}

type ActivityResponse struct {
	ID          string                 `json:"id"`
	UserID      *string                `json:"user_id"`
	Action      string                 `json:"action"`
	Description string                 `json:"description"`
	Details     map[string]interface{} `json:"details,omitempty"`
	Timestamp   string                 `json:"timestamp"`
}

// ─── Maintenance ─────────────────────────────────────────────────────────────

type BackfillEnrollmentsResponse struct {
	Created int `json:"created"`
}

type DataCounts struct {
	Students       int64 `json:"students"`
	Enrollments    int64 `json:"enrollments"`
	PendingReports int64 `json:"pending_reports"`
	IssueRecords   int64 `json:"issue_records"`
	Departments    int64 `json:"departments"`
	Items          int64 `json:"items"`
}

type PurgeResponse struct {
	Message string     `json:"message"`
	Before  DataCounts `json:"before"`
	After   DataCounts `json:"after"`
}

type GeneratePendingResponse struct {
	Message      string `json:"message"`
	CreatedCount int    `json:"created_count"`
}

// PendingExportQuery selects the department cohort of an XLSX export.
type PendingExportQuery struct {
	DepartmentID string `form:"department_id" binding:"required"`
}
