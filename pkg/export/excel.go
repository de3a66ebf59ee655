package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/arnavshah/rota-scheduler/pkg/presenter"
)

// ColumnWidth is applied to every column of every week sheet
const ColumnWidth = 20

// FileName returns the download name of a workbook generated at now
func FileName(now time.Time) string {
	return fmt.Sprintf("Assignments_%s.xlsx", now.Format("2006-01-02"))
}

// XLSX writes one sheet per table to w
func XLSX(w io.Writer, tables []presenter.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	const defaultSheet = "Sheet1"
	if len(tables) == 0 {
		return f.Write(w)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, t := range tables {
		sheet := t.Title
		idx, err := f.NewSheet(sheet)
		if err != nil {
			return fmt.Errorf("create sheet %q: %w", sheet, err)
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}
		if err := writeTable(f, sheet, t, headerStyle); err != nil {
			return fmt.Errorf("sheet %q: %w", sheet, err)
		}
	}

	if err := f.DeleteSheet(defaultSheet); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}
	return f.Write(w)
}

func writeTable(f *excelize.File, sheet string, t presenter.Table, headerStyle int) error {
	header := make([]interface{}, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for r, row := range t.Rows {
		cells := make([]interface{}, len(row))
		for i, v := range row {
			cells[i] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
	}

	if len(t.Header) == 0 {
		return nil
	}
	lastCol, err := excelize.ColumnNumberToName(len(t.Header))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, ColumnWidth); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle)
}
