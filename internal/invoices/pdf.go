package invoices

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var currencyPrinter = message.NewPrinter(language.English)

func formatCents(cents int64) string {
	return currencyPrinter.Sprintf("$%.2f", float64(cents)/100)
}

// RenderPDF produces the printable invoice document.
func RenderPDF(inv *Invoice) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, fmt.Sprintf("Invoice #%d", inv.ID), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, fmt.Sprintf("Status: %s", inv.Status), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Issued: %s", inv.CreatedAt.Format("January 2, 2006")), "", 1, "L", false, 0, "")
	if inv.DueAt != nil {
		pdf.CellFormat(0, 5, fmt.Sprintf("Due: %s", inv.DueAt.Format("January 2, 2006")), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, "Bill To", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, inv.CustomerName, "", 1, "L", false, 0, "")
	pdf.MultiCell(0, 5, inv.LocationAddress, "", "L", false)
	pdf.Ln(4)

	headers := []string{"Description", "Qty", "Unit Price", "Amount"}
	widths := []float64{94, 20, 30, 30}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(245, 245, 245)
	for i, h := range headers {
		align := "L"
		if i > 0 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, li := range inv.Items {
		pdf.CellFormat(widths[0], 7, li.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, trimFloat(li.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, formatCents(li.UnitPriceCents), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, formatCents(li.TotalCents()), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(3)
	labelW := widths[0] + widths[1]
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(labelW, 6, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(widths[2], 6, "Subtotal", "", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 6, formatCents(inv.SubtotalCents), "", 1, "R", false, 0, "")
	pdf.CellFormat(labelW, 6, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(widths[2], 6, "Tax", "", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 6, formatCents(inv.TaxCents), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(labelW, 7, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(widths[2], 7, "Total", "T", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 7, formatCents(inv.TotalCents), "T", 1, "R", false, 0, "")

	pdf.SetY(-30)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated %s", time.Now().UTC().Format(time.RFC1123)), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%.2f", f)
}
