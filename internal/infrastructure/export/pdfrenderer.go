// Package export renders attendance snapshots for download.
package export

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/quickrollcall/rollcall/internal/domain/session"
)

const (
	pageMargin      = 18.0
	headerFontSize  = 20.0
	detailsFontSize = 12.0
	tableHeadSize   = 11.0
	tableCellSize   = 10.0
	rowHeight       = 7.5
	cellPadding     = 1.5
	dateLayout      = "Jan 2, 2006, 3:04 PM"
	productName     = "Quick Roll Call"
)

type column struct {
	label string
	width float64
	align string
}

var columns = []column{
	{label: "No", width: 14, align: "C"},
	{label: "User ID", width: 32, align: "C"},
	{label: "Name", width: 42, align: "L"},
	{label: "Surname", width: 42, align: "L"},
	{label: "Timestamp", width: 44, align: "C"},
}

// PDFRenderer writes an A4 attendance sheet for a session.
type PDFRenderer struct {
	location *time.Location
	now      func() time.Time
}

type RendererOption func(*PDFRenderer)

// WithLocation sets the time zone used for printed timestamps.
func WithLocation(loc *time.Location) RendererOption {
	return func(r *PDFRenderer) {
		if loc != nil {
			r.location = loc
		}
	}
}

func WithClock(now func() time.Time) RendererOption {
	return func(r *PDFRenderer) {
		r.now = now
	}
}

func NewPDFRenderer(opts ...RendererOption) *PDFRenderer {
	r := &PDFRenderer{
		location: time.Local,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *PDFRenderer) ContentType() string {
	return "application/pdf"
}

func (r *PDFRenderer) FileExtension() string {
	return ".pdf"
}

// Render writes the document for s to w. Rows are ordered by timestamp.
func (r *PDFRenderer) Render(w io.Writer, s *session.Session) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	title := strings.TrimSpace(s.NameOr(""))
	if title == "" {
		title = "Attendance"
	}
	pdf.SetTitle(title, true)
	pdf.SetAuthor(productName, true)
	pdf.SetSubject("Session Attendance Export", true)
	pdf.SetCreationDate(r.now())

	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", headerFontSize)
	pdf.SetTextColor(31, 41, 55)
	pdf.CellFormat(0, 10, productName, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", detailsFontSize)
	pdf.SetTextColor(17, 24, 39)
	for _, line := range r.details(s) {
		pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	records := sortedRecords(s.Attendance())
	r.tableHeader(pdf)

	if len(records) == 0 {
		pdf.SetFont("Helvetica", "", detailsFontSize)
		pdf.CellFormat(tableWidth(), 10, "No attendance records.", "", 1, "C", false, 0, "")
	}
	for i, rec := range records {
		if r.needsPageBreak(pdf, rowHeight) {
			pdf.AddPage()
			r.tableHeader(pdf)
		}
		r.row(pdf, tr, i, []string{
			strconv.Itoa(i + 1),
			cellValue(rec.UserID),
			cellValue(rec.Name),
			cellValue(rec.Surname),
			r.formatTime(rec.Timestamp),
		})
	}

	if r.needsPageBreak(pdf, 14) {
		pdf.AddPage()
	}
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(31, 41, 55)
	pdf.CellFormat(tableWidth(), 6, fmt.Sprintf("Total attendees: %d", len(records)), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(71, 85, 105)
	pdf.CellFormat(tableWidth(), 5, "Generated: "+r.formatTime(r.now()), "", 1, "R", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render attendance pdf: %w", err)
	}
	return nil
}

func (r *PDFRenderer) details(s *session.Session) []string {
	var lines []string
	if name := strings.TrimSpace(s.NameOr("")); name != "" {
		lines = append(lines, "Session: "+name)
	}
	if d := s.DurationMinutes(); d != nil && *d > 0 {
		lines = append(lines, fmt.Sprintf("Duration: %d min", *d))
	}
	lines = append(lines, "Created At: "+r.formatTime(s.CreatedAt()))
	if closedAt := s.ClosedAt(); closedAt != nil {
		lines = append(lines, "Closed At: "+r.formatTime(*closedAt))
	}
	return lines
}

func (r *PDFRenderer) tableHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", tableHeadSize)
	pdf.SetFillColor(226, 232, 240)
	pdf.SetTextColor(15, 23, 42)
	pdf.SetDrawColor(148, 163, 184)
	for _, col := range columns {
		pdf.CellFormat(col.width, rowHeight+1, col.label, "B", 0, col.align, true, 0, "")
	}
	pdf.Ln(-1)
}

func (r *PDFRenderer) row(pdf *fpdf.Fpdf, tr func(string) string, index int, values []string) {
	pdf.SetFont("Helvetica", "", tableCellSize)
	pdf.SetTextColor(17, 24, 39)
	pdf.SetDrawColor(226, 232, 240)
	// Zebra striping on odd rows.
	pdf.SetFillColor(243, 244, 246)
	for i, col := range columns {
		text := fitText(pdf, tr(values[i]), col.width-2*cellPadding)
		pdf.CellFormat(col.width, rowHeight, text, "B", 0, col.align, index%2 == 1, 0, "")
	}
	pdf.Ln(-1)
}

func (r *PDFRenderer) needsPageBreak(pdf *fpdf.Fpdf, height float64) bool {
	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	return pdf.GetY()+height > pageHeight-bottom
}

func (r *PDFRenderer) formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(r.location).Format(dateLayout)
}

func tableWidth() float64 {
	total := 0.0
	for _, col := range columns {
		total += col.width
	}
	return total
}

func sortedRecords(records []session.AttendanceRecord) []session.AttendanceRecord {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b session.AttendanceRecord) int {
		// Records without a timestamp go last.
		switch {
		case a.Timestamp.IsZero() && b.Timestamp.IsZero():
			return 0
		case a.Timestamp.IsZero():
			return 1
		case b.Timestamp.IsZero():
			return -1
		}
		return a.Timestamp.Compare(b.Timestamp)
	})
	return sorted
}

func cellValue(v string) string {
	if trimmed := strings.TrimSpace(v); trimmed != "" {
		return trimmed
	}
	return "-"
}

// fitText shortens s with an ellipsis until it fits width. s is already
// translated to the single-byte core font encoding, so trimming bytes is safe.
func fitText(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}
