package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/bryanlew/algocrypto/internal/position"
)

// ExcelJournal writes the session's closed trades to an xlsx workbook.
type ExcelJournal struct{}

// NewExcelJournal creates a journal writer.
func NewExcelJournal() *ExcelJournal {
	return &ExcelJournal{}
}

// WriteTrades writes all closed trades to the given path.
func (j *ExcelJournal) WriteTrades(trades []position.ClosedTrade, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const sheet = "Trades"
	fx.SetSheetName(fx.GetSheetName(0), sheet)

	headerStyle, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return err
	}

	headers := []string{"Closed At", "Symbol", "Side", "Size", "Entry", "Exit", "PnL", "Reason"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		fx.SetCellValue(sheet, cell, header)
		fx.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for row, trade := range trades {
		values := []interface{}{
			trade.ClosedAt.Format("2006-01-02 15:04:05"),
			trade.Symbol,
			trade.Side.String(),
			trade.Size,
			trade.EntryPrice,
			trade.ExitPrice,
			trade.PnL,
			trade.Reason,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			fx.SetCellValue(sheet, cell, value)
		}
	}

	fx.SetColWidth(sheet, "A", "A", 20)
	fx.SetColWidth(sheet, "B", "H", 12)

	return fx.SaveAs(path)
}
