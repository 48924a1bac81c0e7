package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"qrattend/internal/model"
)

// Header lists the extract columns in order.
var Header = []string{"Date", "Student", "Roll Number", "Status", "Time"}

// SheetName is the worksheet holding the XLSX extract.
const SheetName = "Attendance"

func row(rec model.AttendanceRecord) []string {
	return []string{
		rec.Date,
		rec.StudentName,
		rec.RollNumber,
		string(rec.Status),
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

// WriteCSV writes one row per record. Fields containing delimiters are quoted.
func WriteCSV(w io.Writer, records []model.AttendanceRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write(row(rec)); err != nil {
			return fmt.Errorf("write record %s: %w", rec.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the same extract as a workbook with a single sheet.
func WriteXLSX(w io.Writer, records []model.AttendanceRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return err
	}
	if err := setRow(f, 1, Header); err != nil {
		return err
	}
	for i, rec := range records {
		if err := setRow(f, i+2, row(rec)); err != nil {
			return fmt.Errorf("write record %s: %w", rec.ID, err)
		}
	}
	return f.Write(w)
}

func setRow(f *excelize.File, n int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	vals := make([]interface{}, len(values))
	for i, v := range values {
		vals[i] = v
	}
	return f.SetSheetRow(SheetName, cell, &vals)
}
