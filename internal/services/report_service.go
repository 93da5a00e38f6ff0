package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// ReportService renders the analytics payload as a PDF document.
type ReportService struct {
	analytics *AnalyticsService
}

func NewReportService(analytics *AnalyticsService) *ReportService {
	return &ReportService{analytics: analytics}
}

// GenerateAnalyticsPDF builds an A4 report with the catalog totals and
// the genre comparison table.
func (s *ReportService) GenerateAnalyticsPDF() ([]byte, error) {
	data, err := s.analytics.GetAnalyticsData()
	if err != nil {
		return nil, fmt.Errorf("failed to collect analytics data: %w", err)
	}
	return renderAnalyticsPDF(data)
}

func renderAnalyticsPDF(data *AnalyticsData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Genrefy Catalog Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 12, "Genrefy Catalog Report")
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, "Generated "+time.Now().UTC().Format("2006-01-02 15:04 UTC"))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Totals")
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "", 10)
	totals := []struct {
		label string
		value int64
	}{
		{"Genres", data.TotalGenres},
		{"Artists", data.TotalArtists},
		{"Tracks", data.TotalTracks},
		{"Users", data.TotalUsers},
	}
	for _, t := range totals {
		pdf.Cell(40, 6, t.label)
		pdf.Cell(0, 6, fmt.Sprintf("%d", t.value))
		pdf.Ln(6)
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Genre Comparison")
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(70, 7, "Genre", "1", 0, "L", true, 0, "")
	pdf.CellFormat(35, 7, "Local Tracks", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 7, "Last.fm Count", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 7, "Match %", "1", 0, "R", true, 0, "")
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range data.GenreComparison {
		pdf.CellFormat(70, 6, row.Genre, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%d", row.LocalTracks), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%d", row.LastFMCount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.1f", row.MatchPercentage), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}
