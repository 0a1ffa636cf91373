package appraisal

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// RenderSummaryPDF writes the boss summary as a single A4 document.
func RenderSummaryPDF(w io.Writer, summary BossSummary) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(fmt.Sprintf("Appraisal %d", summary.CycleID), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(fmt.Sprintf("Appraisal summary: %s (%s)", summary.EmployeeName, summary.Year)))
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, tr("Designation: "+summary.Designation))
	pdf.Ln(6)
	pdf.Cell(0, 7, "Status: "+string(summary.Status))
	pdf.Ln(6)
	if summary.BossComment != nil {
		pdf.MultiCell(0, 6, tr("Boss comment: "+*summary.BossComment), "", "L", false)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Ratings")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(110, 7, "Question", "1", 0, "L", false, 0, "")
	pdf.CellFormat(35, 7, "Category", "1", 0, "L", false, 0, "")
	pdf.CellFormat(20, 7, "PM avg", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 7, "Self", "1", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, row := range summary.Reports {
		self := "-"
		if row.SelfRating != nil {
			self = fmt.Sprintf("%d", *row.SelfRating)
		}
		pdf.CellFormat(110, 7, tr(truncate(row.QuestionText, 70)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, tr(row.Category), "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("%.2f", row.PMAverageRating), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 7, self, "1", 1, "C", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Feedback and clarifications")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 10)
	if len(summary.Clarifications) == 0 {
		pdf.Cell(0, 7, "No commented ratings.")
		pdf.Ln(7)
	}
	for _, fb := range summary.Clarifications {
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("%s (%s, %d): %s", fb.QuestionText, fb.PMName, fb.Rating, fb.Comment)), "", "L", false)
		reply := "no clarification"
		if fb.ExistingClarification != nil {
			reply = *fb.ExistingClarification
		}
		pdf.MultiCell(0, 6, tr("  Reply: "+reply), "", "L", false)
		pdf.Ln(2)
	}

	return pdf.Output(w)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
