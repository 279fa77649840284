package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// WriteXLSX writes the trade journal to an Excel workbook with a trades
// sheet and a summary sheet.
func (j *Journal) WriteXLSX(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const tradesSheet = "Trades"
	const summarySheet = "Summary"
	fx.SetSheetName(fx.GetSheetName(0), tradesSheet)
	fx.NewSheet(summarySheet)

	headerStyle, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return err
	}

	headers := []string{"Opened", "Closed", "Symbol", "Side", "Entry Price", "Exit Price", "Quantity", "Stop Loss", "Take Profit", "Realized PnL", "PnL %"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		fx.SetCellValue(tradesSheet, cell, h)
	}
	endHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	fx.SetCellStyle(tradesSheet, "A1", endHeader, headerStyle)

	for rowIdx, p := range j.Positions {
		closedAt := ""
		if p.ClosedAt != nil {
			closedAt = p.ClosedAt.Format("2006-01-02 15:04:05")
		}
		values := []interface{}{
			p.OpenedAt.Format("2006-01-02 15:04:05"),
			closedAt,
			p.Symbol,
			string(p.Side),
			p.EntryPrice,
			p.ExitPrice,
			p.Quantity,
			p.StopLossPrice,
			p.TakeProfitPrice,
			p.RealizedPnL,
			p.PnLPercent(),
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			fx.SetCellValue(tradesSheet, cell, v)
		}
	}

	s := j.Summarize()
	summaryRows := [][]interface{}{
		{"Trades", s.Trades},
		{"Wins", s.Wins},
		{"Losses", s.Losses},
		{"Win Rate %", s.WinRate},
		{"Total PnL", s.TotalPnL},
		{"Best Trade", s.BestTrade},
		{"Worst Trade", s.WorstTrade},
		{"Avg Hold", s.AvgHoldTime.String()},
	}
	for i, row := range summaryRows {
		keyCell, _ := excelize.CoordinatesToCellName(1, i+1)
		valCell, _ := excelize.CoordinatesToCellName(2, i+1)
		fx.SetCellValue(summarySheet, keyCell, row[0])
		fx.SetCellValue(summarySheet, valCell, row[1])
	}

	return fx.SaveAs(path)
}
