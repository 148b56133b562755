// Package report folds finalized attendance records into per-student totals.
package report

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"attendance-backend/calendar"
	"attendance-backend/models"
)

type RecordSource interface {
	QueryRecords(ctx context.Context, f models.RecordFilter) ([]models.AttendanceRecord, error)
}

type Builder struct {
	src      RecordSource
	calendar *calendar.Policy
}

func NewBuilder(src RecordSource, cal *calendar.Policy) *Builder {
	return &Builder{src: src, calendar: cal}
}

// Summary is what the presentation layer renders: rows plus the number of
// instructional days in the window.
type Summary struct {
	Department  string             `json:"department,omitempty"`
	Year        int                `json:"year,omitempty"`
	From        time.Time          `json:"from"`
	To          time.Time          `json:"to"`
	WorkingDays int                `json:"working_days"`
	Rows        []models.ReportRow `json:"rows"`
}

func normalize(f models.RecordFilter) (models.RecordFilter, error) {
	f.Department = strings.ToUpper(strings.TrimSpace(f.Department))
	f.From, f.To = calendar.Day(f.From), calendar.Day(f.To)
	if f.From.After(f.To) {
		return f, &models.InvalidRangeError{From: f.From, To: f.To}
	}
	return f, nil
}

// Build returns one row per student seen in [From, To], ordered by student id.
func (b *Builder) Build(ctx context.Context, f models.RecordFilter) ([]models.ReportRow, error) {
	f, err := normalize(f)
	if err != nil {
		return nil, err
	}
	recs, err := b.src.QueryRecords(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "query attendance records")
	}
	return Fold(recs), nil
}

func (b *Builder) Summarize(ctx context.Context, f models.RecordFilter) (Summary, error) {
	f, err := normalize(f)
	if err != nil {
		return Summary{}, err
	}
	rows, err := b.Build(ctx, f)
	if err != nil {
		return Summary{}, err
	}
	days, err := b.calendar.CountInstructionalDays(f.From, f.To)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Department:  f.Department,
		Year:        f.Year,
		From:        f.From,
		To:          f.To,
		WorkingDays: days,
		Rows:        rows,
	}, nil
}

// Fold aggregates entries across records. Each entry counts one period.
func Fold(recs []models.AttendanceRecord) []models.ReportRow {
	byID := map[string]*models.ReportRow{}
	for _, r := range recs {
		for _, e := range r.Entries {
			row, ok := byID[e.StudentID]
			if !ok {
				row = &models.ReportRow{
					StudentID:  e.StudentID,
					Name:       e.Name,
					Department: r.Department,
					Year:       r.Year,
				}
				byID[e.StudentID] = row
			}
			row.TotalPeriods++
			if e.Status == models.StatusPresent {
				row.PresentPeriods++
			} else {
				row.AbsentPeriods++
			}
		}
	}

	out := make([]models.ReportRow, 0, len(byID))
	for _, row := range byID {
		row.Percentage = Percentage(row.PresentPeriods, row.TotalPeriods)
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out
}

// Percentage is present/total*100 rounded to one decimal place, or 0 when total is 0.
func Percentage(present, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(present)/float64(total)*1000) / 10
}
