package reporting

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/dkenergy/dh-settlement/internal/reconciliation/domain"
)

// BuildReconciliationXLSX renders a two-sheet workbook for a
// reconciliation result: a summary sheet and a per-description delta
// sheet, mirroring BuildStatementXLSX summary+items split.
func BuildReconciliationXLSX(r *reconciliation.ReconciliationResult) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	deltasSheet := "line_deltas"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(deltasSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Reconciliation Result")
	_ = f.SetCellValue(summarySheet, "A3", "Grid area")
	_ = f.SetCellValue(summarySheet, "B3", r.GridArea)
	_ = f.SetCellValue(summarySheet, "A4", "Period start")
	_ = f.SetCellValue(summarySheet, "B4", r.Period.Start.Format("2006-01-02"))
	_ = f.SetCellValue(summarySheet, "A5", "Our total")
	_ = f.SetCellValue(summarySheet, "B5", r.OurTotal.String())
	_ = f.SetCellValue(summarySheet, "A6", "Hub total")
	_ = f.SetCellValue(summarySheet, "B6", r.HubTotal.String())
	_ = f.SetCellValue(summarySheet, "A7", "Difference")
	_ = f.SetCellValue(summarySheet, "B7", r.DifferenceAmount.String())
	_ = f.SetCellValue(summarySheet, "A8", "Difference percent")
	_ = f.SetCellValue(summarySheet, "B8", r.DifferencePercent)
	_ = f.SetCellValue(summarySheet, "A9", "Status")
	_ = f.SetCellValue(summarySheet, "B9", string(r.Status))
	_ = f.SetCellValue(summarySheet, "A10", "Computed")
	_ = f.SetCellValue(summarySheet, "B10", r.ComputedAt.Format("2006-01-02T15:04:05Z07:00"))

	_ = f.SetCellValue(deltasSheet, "A1", "Description")
	_ = f.SetCellValue(deltasSheet, "B1", "Our amount")
	_ = f.SetCellValue(deltasSheet, "C1", "Hub amount")
	_ = f.SetCellValue(deltasSheet, "D1", "Delta")
	for i, d := range r.LineDeltas {
		row := i + 2
		_ = f.SetCellValue(deltasSheet, fmt.Sprintf("A%d", row), d.Description)
		_ = f.SetCellValue(deltasSheet, fmt.Sprintf("B%d", row), d.OurAmount.String())
		_ = f.SetCellValue(deltasSheet, fmt.Sprintf("C%d", row), d.HubAmount.String())
		_ = f.SetCellValue(deltasSheet, fmt.Sprintf("D%d", row), d.Delta.String())
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
