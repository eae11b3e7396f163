package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/auri/auri-agent/internal/footage"
)

// Checklist is the printable filming sheet for one project.
type Checklist struct {
	Title        string
	Specs        []footage.ShotSpec
	Instructions []string
	GeneratedAt  time.Time
}

const (
	pageMargin  = 15.0
	lineHeight  = 6.0
	checkboxMM  = 4.0
	bodyFontPt  = 10.0
	titleFontPt = 16.0
)

// WriteChecklistPDF renders the checklist as an A4 PDF: one checkbox row per
// shot spec, followed by the per-scene shooting instructions.
func WriteChecklistPDF(w io.Writer, c Checklist) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(c.Title, true)
	pdf.SetCreator("auri-agent", false)

	// Core fonts are cp1252; the translator maps what it can.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", titleFontPt)
	pdf.CellFormat(0, 10, tr(c.Title), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", bodyFontPt-1)
	pdf.SetTextColor(110, 110, 110)
	generated := c.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	pdf.CellFormat(0, lineHeight, fmt.Sprintf("%d shots to film - generated %s",
		len(c.Specs), generated.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	if len(c.Specs) == 0 {
		pdf.SetFont("Helvetica", "I", bodyFontPt)
		pdf.CellFormat(0, lineHeight, "Nothing to film: every scene can use stock footage.", "", 1, "L", false, 0, "")
	}

	width, _ := pdf.GetPageSize()
	textWidth := width - 2*pageMargin - checkboxMM - 3
	for i, s := range c.Specs {
		x, y := pdf.GetXY()
		pdf.Rect(x, y+1, checkboxMM, checkboxMM, "D")

		pdf.SetX(x + checkboxMM + 3)
		pdf.SetFont("Helvetica", "B", bodyFontPt)
		head := fmt.Sprintf("%d. Scene %d - %s, %gs", i+1, s.SceneIndex+1, s.ShotType, s.Duration)
		pdf.CellFormat(textWidth, lineHeight, tr(head), "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "", bodyFontPt)
		for _, line := range specDetails(s) {
			pdf.SetX(x + checkboxMM + 3)
			pdf.MultiCell(textWidth, lineHeight-1, tr(line), "", "L", false)
		}
		pdf.Ln(2)
	}

	if len(c.Instructions) > 0 {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", titleFontPt-2)
		pdf.CellFormat(0, 10, "Shooting instructions", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", bodyFontPt)
		for _, block := range c.Instructions {
			pdf.MultiCell(0, lineHeight-1, tr(block), "", "L", false)
			pdf.Ln(3)
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build checklist pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write checklist pdf: %w", err)
	}
	return nil
}

func specDetails(s footage.ShotSpec) []string {
	lines := []string{s.Description}
	if s.OnscreenText != "" {
		lines = append(lines, "On-screen: "+s.OnscreenText)
	}
	var extras []string
	if s.Music != "" {
		extras = append(extras, "music: "+s.Music)
	}
	if s.Transition != "" {
		extras = append(extras, "transition: "+s.Transition)
	}
	if len(extras) > 0 {
		lines = append(lines, strings.Join(extras, "; "))
	}
	return lines
}
