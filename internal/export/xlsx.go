package export

import (
	"fmt"
	"io"
	"time"

	"recruitment-portal/internal/models"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Pelamar"

// WriteXLSX writes a workbook with the header row followed by one row per
// applicant. Every cell is a string cell, so NIK and phone need no
// apostrophe.
func WriteXLSX(w io.Writer, as []models.Applicant, in Input, today time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := setRow(f, 1, Columns); err != nil {
		return err
	}
	for i, a := range as {
		if err := setRow(f, i+2, Fields(a, in, today)); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheetName, "A", "H", 20); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []string) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetCellStr(sheetName, cell, v); err != nil {
			return fmt.Errorf("set %s: %w", cell, err)
		}
	}
	return nil
}
