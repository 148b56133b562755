package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"attendance-backend/calendar"
	"attendance-backend/capture"
	"attendance-backend/models"
	"attendance-backend/roster"
	"attendance-backend/store/memory"
	"attendance-backend/validation"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := calendar.ParseDate(s)
	require.NoError(t, err)
	return d
}

func entry(id string, st models.Status) models.Entry {
	return models.Entry{StudentID: id, Status: st}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		present, total int
		want           float64
	}{
		{0, 0, 0},
		{0, 1, 0},
		{1, 1, 100},
		{1, 2, 50},
		{2, 3, 66.7},
		{1, 3, 33.3},
		{5, 8, 62.5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Percentage(tt.present, tt.total), "%d/%d", tt.present, tt.total)
	}
}

func TestFold(t *testing.T) {
	recs := []models.AttendanceRecord{
		{Department: "CSE", Year: 2, Period: 1, Entries: []models.Entry{entry("CSE22", models.StatusAbsent), entry("CSE21", models.StatusPresent)}},
		{Department: "CSE", Year: 2, Period: 2, Entries: []models.Entry{entry("CSE21", models.StatusAbsent), entry("CSE22", models.StatusPresent)}},
		{Department: "CSE", Year: 2, Period: 3, Entries: []models.Entry{entry("CSE21", models.StatusPresent), entry("CSE22", models.StatusPresent)}},
	}
	rows := Fold(recs)
	require.Len(t, rows, 2)
	assert.Equal(t, models.ReportRow{StudentID: "CSE21", Department: "CSE", Year: 2, TotalPeriods: 3, PresentPeriods: 2, AbsentPeriods: 1, Percentage: 66.7}, rows[0])
	assert.Equal(t, "CSE22", rows[1].StudentID)
	for _, r := range rows {
		assert.LessOrEqual(t, r.PresentPeriods, r.TotalPeriods)
		assert.Equal(t, r.TotalPeriods, r.PresentPeriods+r.AbsentPeriods)
	}
	assert.Empty(t, Fold(nil))
}

func setup(t *testing.T) (*capture.Engine, *Builder) {
	t.Helper()
	db := memory.New()
	for _, s := range []models.Student{
		{RegNo: "CSE21", Name: "Hari", Department: "CSE", Year: 2},
		{RegNo: "CSE22", Name: "Priya", Department: "CSE", Year: 2},
		{RegNo: "ECE41", Name: "Vignesh", Department: "ECE", Year: 4},
	} {
		_, err := db.CreateStudent(context.Background(), s)
		require.NoError(t, err)
	}
	cal := calendar.NewPolicy(time.Sunday, models.Holiday{Date: day(t, "2025-08-15"), Name: "Independence Day"})
	eng := capture.NewEngine(cal, roster.NewResolver(db), db, validation.New())
	return eng, NewBuilder(db, cal)
}

func submit(t *testing.T, eng *capture.Engine, dept string, year int, date string, period int, marks ...models.Mark) {
	t.Helper()
	_, err := eng.Submit(context.Background(), models.SlotRequest{
		Department: dept, Year: year, Date: date, Period: period, Subject: "DBMS",
	}, marks, "")
	require.NoError(t, err)
}

func TestBuildScenario(t *testing.T) {
	eng, b := setup(t)
	ctx := context.Background()

	submit(t, eng, "CSE", 2, "2025-11-10", 1,
		models.Mark{StudentID: "CSE21", Status: models.StatusPresent},
		models.Mark{StudentID: "CSE22", Status: models.StatusAbsent})
	submit(t, eng, "ECE", 4, "2025-11-10", 1, models.Mark{StudentID: "ECE41"})
	// outside the window
	submit(t, eng, "CSE", 2, "2025-12-01", 1, models.Mark{StudentID: "CSE22"})

	rows, err := b.Build(ctx, models.RecordFilter{Department: "CSE", Year: 2, From: day(t, "2025-11-01"), To: day(t, "2025-11-30")})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.ReportRow{
		StudentID: "CSE22", Name: "Priya", Department: "CSE", Year: 2,
		TotalPeriods: 1, PresentPeriods: 0, AbsentPeriods: 1, Percentage: 0,
	}, rows[1])
	assert.Equal(t, 100.0, rows[0].Percentage)

	all, err := b.Build(ctx, models.RecordFilter{From: day(t, "2025-11-01"), To: day(t, "2025-11-30")})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "ECE41", all[2].StudentID)

	// single-record window
	one, err := b.Build(ctx, models.RecordFilter{Department: "cse", From: day(t, "2025-12-01"), To: day(t, "2025-12-01")})
	require.NoError(t, err)
	for _, r := range one {
		assert.Equal(t, 1, r.TotalPeriods)
		assert.Contains(t, []int{0, 1}, r.PresentPeriods)
	}
}

func TestBuildInvalidRange(t *testing.T) {
	_, b := setup(t)
	_, err := b.Build(context.Background(), models.RecordFilter{From: day(t, "2025-11-30"), To: day(t, "2025-11-01")})
	var target *models.InvalidRangeError
	require.ErrorAs(t, err, &target)

	_, err = b.Summarize(context.Background(), models.RecordFilter{From: day(t, "2025-11-30"), To: day(t, "2025-11-01")})
	require.ErrorAs(t, err, &target)
}

func TestSummarize(t *testing.T) {
	eng, b := setup(t)
	submit(t, eng, "CSE", 2, "2025-11-10", 1, models.Mark{StudentID: "CSE22", Status: models.StatusAbsent})

	s, err := b.Summarize(context.Background(), models.RecordFilter{Department: "CSE", Year: 2, From: day(t, "2025-11-01"), To: day(t, "2025-11-30")})
	require.NoError(t, err)
	assert.Equal(t, 25, s.WorkingDays)
	assert.Len(t, s.Rows, 2)
	assert.Equal(t, "attendance_CSE_2_2025-11-01_2025-11-30.csv", Filename(s, "csv"))
}

func sampleSummary() Summary {
	return Summary{
		Department:  "CSE",
		Year:        2,
		From:        time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		To:          time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC),
		WorkingDays: 25,
		Rows: []models.ReportRow{
			{StudentID: "CSE21", Name: "Hari", Department: "CSE", Year: 2, TotalPeriods: 3, PresentPeriods: 2, AbsentPeriods: 1, Percentage: 66.7},
			{StudentID: "CSE22", Name: "Priya", Department: "CSE", Year: 2, TotalPeriods: 1, PresentPeriods: 0, AbsentPeriods: 1, Percentage: 0},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleSummary()))

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, header, recs[0])
	assert.Equal(t, []string{"CSE21", "Hari", "CSE", "2", "3", "2", "1", "66.7"}, recs[1])
	assert.Equal(t, "0.0", recs[2][7])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleSummary()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 7)
	assert.Equal(t, "Attendance Report: CSE - Year 2", rows[0][0])
	assert.Equal(t, []string{"Total Working Days", "25"}, rows[2])
	assert.Equal(t, header, rows[4])
	assert.Equal(t, "CSE22", rows[6][0])
	assert.Equal(t, "Priya", rows[6][1])
}
