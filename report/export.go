package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"attendance-backend/models"
)

var header = []string{"Reg No", "Name", "Department", "Year", "Total Periods", "Present", "Absent", "Percentage"}

func rowValues(r models.ReportRow) []string {
	return []string{
		r.StudentID,
		r.Name,
		r.Department,
		strconv.Itoa(r.Year),
		strconv.Itoa(r.TotalPeriods),
		strconv.Itoa(r.PresentPeriods),
		strconv.Itoa(r.AbsentPeriods),
		strconv.FormatFloat(r.Percentage, 'f', 1, 64),
	}
}

// Filename builds e.g. attendance_CSE_2_2025-11-01_2025-11-30.xlsx.
func Filename(s Summary, ext string) string {
	parts := []string{"attendance"}
	if s.Department != "" {
		parts = append(parts, s.Department)
	}
	if s.Year != 0 {
		parts = append(parts, strconv.Itoa(s.Year))
	}
	parts = append(parts, s.From.Format(models.DateLayout), s.To.Format(models.DateLayout))
	return strings.Join(parts, "_") + "." + ext
}

// WriteCSV writes a header row followed by one row per student.
func WriteCSV(w io.Writer, s Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	for _, r := range s.Rows {
		if err := cw.Write(rowValues(r)); err != nil {
			return errors.Wrapf(err, "write csv row %s", r.StudentID)
		}
	}
	cw.Flush()
	return cw.Error()
}

const sheetName = "Attendance Report"

// WriteXLSX renders the summary as a single-sheet workbook.
func WriteXLSX(w io.Writer, s Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return errors.Wrap(err, "rename sheet")
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 13},
	})
	if err != nil {
		return errors.Wrap(err, "title style")
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1E3A8A"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return errors.Wrap(err, "header style")
	}

	scope := "All departments"
	if s.Department != "" {
		scope = s.Department
		if s.Year != 0 {
			scope += fmt.Sprintf(" - Year %d", s.Year)
		}
	}
	_ = f.SetCellValue(sheetName, "A1", "Attendance Report: "+scope)
	_ = f.MergeCell(sheetName, "A1", "H1")
	_ = f.SetCellStyle(sheetName, "A1", "H1", titleStyle)
	_ = f.SetCellValue(sheetName, "A2", fmt.Sprintf("%s to %s", s.From.Format(models.DateLayout), s.To.Format(models.DateLayout)))
	_ = f.SetCellValue(sheetName, "A3", "Total Working Days")
	_ = f.SetCellValue(sheetName, "B3", s.WorkingDays)

	const first = 5
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, first)
		_ = f.SetCellValue(sheetName, cell, h)
	}
	_ = f.SetCellStyle(sheetName, "A5", "H5", headerStyle)

	for i, r := range s.Rows {
		row := first + 1 + i
		vals := []any{r.StudentID, r.Name, r.Department, r.Year, r.TotalPeriods, r.PresentPeriods, r.AbsentPeriods, r.Percentage}
		for j, v := range vals {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return errors.Wrapf(err, "set cell %s", cell)
			}
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 14)
	_ = f.SetColWidth(sheetName, "B", "B", 24)
	_ = f.SetColWidth(sheetName, "C", "H", 13)

	generated := first + len(s.Rows) + 2
	_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", generated),
		"Generated "+time.Now().UTC().Format("02 Jan 2006 15:04 MST"))

	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, "write xlsx")
	}
	return nil
}
