// Package reporting renders settlement invoices as PDF and reconciliation
// results as XLSX workbooks, grounded on
// internal/settlement/interfaces/statement_export.go
// (BuildStatementPDF/BuildStatementXLSX: a fixed-layout gofpdf page
// followed by a per-row items table, and a two-sheet excelize workbook),
// generalized from day-by-day statement shape to the
// settlement engine's invoice document (spec.md §6, document id
// WO-YYYY-NNNNN) and reconciliation result shapes.
package reporting

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/dkenergy/dh-settlement/internal/primitives"
	"github.com/dkenergy/dh-settlement/internal/settlement/domain"
)

// BuildInvoicePDF renders the invoice document for an Invoiced or
// Adjusted settlement (spec.md §6: "WO-YYYY-NNNNN").
func BuildInvoicePDF(s *settlement.Settlement) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, fmt.Sprintf("Invoice %s", s.DocumentID()))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Metering point: %s", s.MeteringPointID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s", s.SettlementPeriod.Start.Format("2006-01-02"), periodEndLabel(s.SettlementPeriod)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", s.Status))
	pdf.Ln(5)
	if s.IsCorrection {
		pdf.Cell(0, 6, "Correction settlement")
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Calculated: %s", s.CalculatedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	if s.InvoicedAt != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Invoiced: %s", s.InvoicedAt.Format(time.RFC3339)))
		pdf.Ln(5)
	}

	pdf.Ln(4)
	pdf.Cell(0, 6, fmt.Sprintf("Total energy (kWh): %.3f", s.TotalEnergy.Float64()))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total amount: %s", s.TotalAmount.String()))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(70, 6, "Line", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Quantity (kWh)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, line := range s.Lines {
		pdf.CellFormat(70, 6, line.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.3f", line.Quantity.Float64()), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, line.Amount.String(), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func periodEndLabel(p primitives.Period) string {
	if p.IsOpenEnded() {
		return "open"
	}
	return p.End.Format("2006-01-02")
}
