package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/application/port"
)

const (
	historySheet    = "Approvals"
	historyFirstRow = 6
	dateLayout      = "2006-01-02 15:04"
)

var historyHeader = []string{"#", "Approver", "Email", "Required", "Status", "Comments", "Decided At"}

// WorkbookExporter renders approval history as an xlsx workbook
type WorkbookExporter struct {
	logger *zap.Logger
}

// NewWorkbookExporter creates a new xlsx history exporter
func NewWorkbookExporter(logger *zap.Logger) *WorkbookExporter {
	return &WorkbookExporter{logger: logger}
}

// ContentType implements port.HistoryExporter
func (w *WorkbookExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileExtension implements port.HistoryExporter
func (w *WorkbookExporter) FileExtension() string {
	return ".xlsx"
}

// ExportHistory writes a summary block in rows 1-4 and one row per approval request below it
func (w *WorkbookExporter) ExportHistory(ctx context.Context, sheet *port.HistorySheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), historySheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	w.setCell(f, "A1", "Expense")
	w.setCell(f, "B1", fmt.Sprintf("#%d %s", sheet.ExpenseID, sheet.Description))
	w.setCell(f, "A2", "Employee")
	w.setCell(f, "B2", sheet.EmployeeName)
	w.setCell(f, "A3", "Amount")
	w.setCell(f, "B3", sheet.Amount.StringFixed(2)+" "+sheet.Currency)
	w.setCell(f, "A4", "Status")
	w.setCell(f, "B4", sheet.Status)

	headerCell, _ := excelize.CoordinatesToCellName(1, historyFirstRow-1)
	if err := f.SetSheetRow(historySheet, headerCell, &historyHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		endCell, _ := excelize.CoordinatesToCellName(len(historyHeader), historyFirstRow-1)
		_ = f.SetCellStyle(historySheet, headerCell, endCell, style)
	}

	for i, entry := range sheet.Entries {
		decided := ""
		if entry.DecidedAt != nil {
			decided = entry.DecidedAt.Format(dateLayout)
		}
		required := "no"
		if entry.Required {
			required = "yes"
		}

		row := []interface{}{i + 1, entry.ApproverName, entry.ApproverEmail, required, entry.Status, entry.Comments, decided}
		cell, _ := excelize.CoordinatesToCellName(1, historyFirstRow+i)
		if err := f.SetSheetRow(historySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	_ = f.SetColWidth(historySheet, "B", "C", 24)
	_ = f.SetColWidth(historySheet, "F", "F", 40)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	w.logger.Info("Approval history exported",
		zap.Int64("expense_id", sheet.ExpenseID),
		zap.Int("entries", len(sheet.Entries)))
	return buf.Bytes(), nil
}

func (w *WorkbookExporter) setCell(f *excelize.File, cell string, value interface{}) {
	if err := f.SetCellValue(historySheet, cell, value); err != nil {
		w.logger.Warn("Failed to set cell value",
			zap.String("cell", cell),
			zap.Error(err))
	}
}

var _ port.HistoryExporter = (*WorkbookExporter)(nil)
