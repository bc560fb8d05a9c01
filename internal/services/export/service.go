// Package export renders issue collections into downloadable documents:
// CSV for spreadsheets, XLSX workbooks, and a tabular PDF report.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/xuri/excelize/v2"

	"github.com/ternarybob/sitework/internal/models"
)

// Format identifies an export document type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ContentType returns the MIME type browsers should receive for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv"
	}
}

// Service renders issue lists into export documents. All formats share the
// fixed column order of models.IssueColumns so a row reads the same in every
// output.
type Service struct {
	logger arbor.ILogger
}

// NewService creates an export service.
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		logger: logger,
	}
}

// Render produces the document bytes for the requested format.
func (s *Service) Render(format Format, issues []models.Issue) ([]byte, error) {
	switch format {
	case FormatCSV:
		return s.renderCSV(issues)
	case FormatXLSX:
		return s.renderXLSX(issues)
	case FormatPDF:
		return s.renderPDF(issues)
	default:
		return nil, fmt.Errorf("unknown export format: %s", format)
	}
}

// Filename builds a download name from the project name, the current time
// and the format, e.g. "issues_Main_Street_Tower_20260824_153000.csv".
func Filename(projectName string, format Format, now time.Time) string {
	name := sanitizeName(projectName)
	if name == "" {
		name = "project"
	}
	return fmt.Sprintf("issues_%s_%s.%s", name, now.Format("20060102_150405"), format)
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = unsafeNameChars.ReplaceAllString(name, "_")
	return strings.Trim(name, "_")
}

func (s *Service) renderCSV(issues []models.Issue) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(models.IssueColumns); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i := range issues {
		if err := w.Write(issues[i].Row()); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}

	s.logger.Debug().Int("rows", len(issues)).Msg("CSV export generated")
	return buf.Bytes(), nil
}

const xlsxSheet = "Issues"

func (s *Service) renderXLSX(issues []models.Issue) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(xlsxSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	writeRow := func(rowNum int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(values))
		for i, v := range values {
			row[i] = v
		}
		return f.SetSheetRow(xlsxSheet, cell, &row)
	}

	if err := writeRow(1, models.IssueColumns); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}
	for i := range issues {
		if err := writeRow(i+2, issues[i].Row()); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate workbook: %w", err)
	}

	s.logger.Debug().Int("rows", len(issues)).Msg("XLSX export generated")
	return buf.Bytes(), nil
}

// pdfColumnWidths gives wider cells to the free-text columns. Widths sum to
// the printable width of a landscape A4 page with 10mm margins.
var pdfColumnWidths = []float64{24, 34, 44, 22, 18, 16, 20, 20, 22, 22, 20, 15}

func (s *Service) renderPDF(issues []models.Issue) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Construction Issues", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "B", 7)
	pdf.SetFillColor(230, 230, 230)
	for i, col := range models.IssueColumns {
		pdf.CellFormat(pdfColumnWidths[i], 6, col, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 7)
	for idx := range issues {
		for i, val := range issues[idx].Row() {
			pdf.CellFormat(pdfColumnWidths[i], 6, truncateCell(val, pdfColumnWidths[i]), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF output: %w", err)
	}

	s.logger.Debug().Int("rows", len(issues)).Msg("PDF export generated")
	return buf.Bytes(), nil
}

// truncateCell keeps a cell's text within its fixed-width column. Roughly
// 1.5mm per character at 7pt Arial.
func truncateCell(text string, width float64) string {
	max := int(width / 1.5)
	if max < 4 {
		max = 4
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-3]) + "..."
}
