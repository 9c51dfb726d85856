package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

type ItineraryDocument struct {
	TravelerEmail string
	City          string
	StartDate     string
	EndDate       string
	Travelers     int
	PackageName   string
	Description   string
	Itinerary     Itinerary
	Hotels        []Hotel
	GeneratedAt   time.Time
}

// RenderItineraryPDF lays out a purchased plan and returns the raw bytes.
func RenderItineraryPDF(doc ItineraryDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)

	// ── Footer ────────────────────────────────────────────────
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(150, 150, 150)
		pdf.CellFormat(0, 8, fmt.Sprintf("Honest Travel itinerary - page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	// ── Header Bar ───────────────────────────────────────────
	pdf.SetFillColor(15, 118, 110) // teal
	pdf.Rect(0, 0, 210, 28, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(20, 8)
	pdf.CellFormat(170, 10, tr("Travel Plan for "+doc.City), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(20, 18)
	pdf.CellFormat(170, 6, "Honest Travel", "", 1, "L", false, 0, "")

	pdf.SetY(35)
	pdf.SetTextColor(0, 0, 0)

	// ── Section Helper ───────────────────────────────────────
	sectionHeader := func(title string) {
		pdf.SetFillColor(15, 118, 110)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(170, 8, "  "+tr(title), "", 1, "L", true, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(2)
	}

	row := func(label, value string) {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(45, 7, tr(label), "", 0, "L", false, 0, "")
		pdf.SetTextColor(20, 20, 20)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(125, 7, tr(value), "", 1, "L", false, 0, "")
	}

	paragraph := func(text, empty string) {
		if text == "" {
			text = empty
		}
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(40, 40, 40)
		pdf.MultiCell(170, 5, tr(text), "", "L", false)
		pdf.Ln(4)
	}

	// ── Trip Overview ─────────────────────────────────────────
	sectionHeader("Trip Overview")
	row("Destination", doc.City)
	row("Dates", fmtDateReadable(doc.StartDate)+" - "+fmtDateReadable(doc.EndDate))
	if doc.Travelers > 0 {
		row("Travelers", fmt.Sprintf("%d", doc.Travelers))
	}
	if doc.PackageName != "" {
		row("Package", doc.PackageName)
	}
	if doc.TravelerEmail != "" {
		row("Purchased by", doc.TravelerEmail)
	}
	generated := doc.GeneratedAt
	if generated.IsZero() {
		generated = time.Now().UTC()
	}
	row("Generated", generated.Format("02 Jan 2006, 15:04 UTC"))
	pdf.Ln(4)

	if doc.Description != "" {
		sectionHeader("About " + doc.City)
		paragraph(doc.Description, "")
	}

	// ── Daily Itinerary ───────────────────────────────────────
	sectionHeader("Daily Itinerary")
	if len(doc.Itinerary.Days) == 0 {
		paragraph("", "No itinerary available.")
	}
	for i, day := range doc.Itinerary.Days {
		label := day.Day
		if label == "" {
			label = fmt.Sprintf("Day %d", i+1)
		}
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(15, 118, 110)
		pdf.CellFormat(170, 7, tr(label), "", 1, "L", false, 0, "")
		for _, part := range []struct{ name, text string }{
			{"Morning", day.Morning},
			{"Afternoon", day.Afternoon},
			{"Evening", day.Evening},
		} {
			if part.text == "" {
				continue
			}
			pdf.SetFont("Helvetica", "B", 10)
			pdf.SetTextColor(60, 60, 60)
			pdf.CellFormat(25, 5, part.name, "", 0, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(145, 5, tr(part.text), "", "L", false)
		}
		pdf.Ln(2)
	}
	pdf.Ln(2)

	sectionHeader("Travel Tips")
	paragraph(doc.Itinerary.TravelTips, "No travel tips available.")
	sectionHeader("Local Food")
	paragraph(doc.Itinerary.LocalFood, "No food recommendations available.")
	sectionHeader("Estimated Costs")
	paragraph(doc.Itinerary.EstimatedCosts, "No cost estimates available.")

	// ── Hotels ────────────────────────────────────────────────
	if len(doc.Hotels) > 0 {
		sectionHeader("Recommended Hotels")
		for _, h := range doc.Hotels {
			row(h.Name, fmt.Sprintf("%s  |  %.1f / 5.0", h.NightRate, h.Rating))
		}
		pdf.Ln(4)
	}

	// ── Write to buffer ───────────────────────────────────────
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output failed: %w", err)
	}
	return buf.Bytes(), nil
}

func fmtDateReadable(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return t.Format("02 Jan 2006 (Mon)")
}
