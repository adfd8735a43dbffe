package infra

// pdf.go renders the per-student issue slip with go-pdf/fpdf:
//   - institution header and student identity
//   - cohort line (course, academic year, year)
//   - issued table (date, item, qty, remarks)
//   - pending table over the six legacy items

import (
	"bytes"
	"fmt"

	"github.com/sushmag0wda/Aims-Inventory/internal/model"

	"github.com/go-pdf/fpdf"
)

// StudentSlip is everything printed on one slip.
type StudentSlip struct {
	Student      *model.Student
	Department   *model.Department
	AcademicYear string
	Year         string
	Issued       []model.IssueRecord
	Pending      map[string]int
}

// GenerateStudentSlipPDF renders slip as an A5 portrait PDF and returns its bytes.
func GenerateStudentSlipPDF(slip StudentSlip) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(8, 8, 8)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 16

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, "Stationery Issue Slip", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 9)
	if s := slip.Student; s != nil {
		pdf.CellFormat(contentW, 5, fmt.Sprintf("USN: %s", s.USN), "", 1, "L", false, 0, "")
		pdf.CellFormat(contentW, 5, fmt.Sprintf("Name: %s", s.Name), "", 1, "L", false, 0, "")
	}
	if d := slip.Department; d != nil {
		pdf.CellFormat(contentW, 5, fmt.Sprintf("Course: %s - %s", d.CourseCode, d.Course), "", 1, "L", false, 0, "")
	}
	if slip.AcademicYear != "" || slip.Year != "" {
		pdf.CellFormat(contentW, 5, fmt.Sprintf("Academic year: %s   Year: %s", slip.AcademicYear, slip.Year), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)
	pdf.Line(8, pdf.GetY(), pageW-8, pdf.GetY())
	pdf.Ln(3)

	// ── Issued ───────────────────────────────────────────────────────────────
	col1 := contentW * 0.22
	col2 := contentW * 0.18
	col3 := contentW * 0.12
	col4 := contentW * 0.48

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW, 6, "Issued", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(col1, 5, "Date", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 5, "Qty", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col4, 5, "Remarks", "B", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	if len(slip.Issued) == 0 {
		pdf.CellFormat(contentW, 5, "Nothing issued yet.", "", 1, "L", false, 0, "")
	}
	for _, r := range slip.Issued {
		remarks := r.Remarks
		if len(remarks) > 40 {
			remarks = remarks[:39] + "..."
		}
		pdf.CellFormat(col1, 5, r.DateIssued.Format("02/01/2006"), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, r.ItemCode, "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, fmt.Sprintf("%d", r.QtyIssued), "", 0, "C", false, 0, "")
		pdf.CellFormat(col4, 5, remarks, "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	// ── Pending ──────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW, 6, "Pending", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	for _, li := range model.LegacyItems {
		pdf.CellFormat(contentW*0.7, 5, fmt.Sprintf("%s (%s)", li.Name, li.Code), "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.3, 5, fmt.Sprintf("%d", slip.Pending[li.Code]), "", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render slip: %w", err)
	}
	return buf.Bytes(), nil
}
