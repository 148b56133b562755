// Package capture records per-period attendance. Each slot (department, year,
// date, period) moves from unsubmitted to finalized exactly once.
package capture

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"attendance-backend/calendar"
	"attendance-backend/models"
	"attendance-backend/roster"
	"attendance-backend/validation"
)

const DefaultPeriodsPerDay = 8

// RecordStore persists finalized records. InsertRecord must fail with
// *models.SlotAlreadyFinalizedError when the slot key already exists.
type RecordStore interface {
	SlotExists(ctx context.Context, key models.SlotKey) (bool, error)
	InsertRecord(ctx context.Context, rec models.AttendanceRecord) error
	FindRecord(ctx context.Context, key models.SlotKey) (models.AttendanceRecord, error)
	FinalizedPeriods(ctx context.Context, department string, year int, date time.Time) ([]int, error)
}

type Engine struct {
	calendar      *calendar.Policy
	roster        *roster.Resolver
	store         RecordStore
	validate      *validation.Validator
	periodsPerDay int
	nowFunc       func() time.Time
}

type Option func(*Engine)

func WithPeriodsPerDay(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.periodsPerDay = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.nowFunc = now }
}

func NewEngine(cal *calendar.Policy, res *roster.Resolver, store RecordStore, v *validation.Validator, opts ...Option) *Engine {
	e := &Engine{
		calendar:      cal,
		roster:        res,
		store:         store,
		validate:      v,
		periodsPerDay: DefaultPeriodsPerDay,
		nowFunc:       time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) PeriodsPerDay() int { return e.periodsPerDay }

// keyInput is the slot identity without a subject (used by lookups).
type keyInput struct {
	Department string `json:"department" validate:"required,deptcode"`
	Year       int    `json:"year" validate:"required,min=1,max=4"`
	Date       string `json:"date" validate:"required,datefmt"`
	Period     int    `json:"period" validate:"required,min=1"`
}

// classInput is a class-day without a period.
type classInput struct {
	Department string `json:"department" validate:"required,deptcode"`
	Year       int    `json:"year" validate:"required,min=1,max=4"`
	Date       string `json:"date" validate:"required,datefmt"`
}

func normDept(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

func (e *Engine) checkPeriod(period int) error {
	if period > e.periodsPerDay {
		msg := fmt.Sprintf("period must be between 1 and %d", e.periodsPerDay)
		return models.NewValidationError("invalid input: "+msg, models.FieldError{Field: "period", Error: msg})
	}
	return nil
}

// ParseKey validates and normalizes a slot key.
func (e *Engine) ParseKey(department string, year int, date string, period int) (models.SlotKey, error) {
	in := keyInput{Department: normDept(department), Year: year, Date: strings.TrimSpace(date), Period: period}
	if err := e.validate.Struct(in); err != nil {
		return models.SlotKey{}, err
	}
	if err := e.checkPeriod(in.Period); err != nil {
		return models.SlotKey{}, err
	}
	d, _ := calendar.ParseDate(in.Date)
	return models.SlotKey{Department: in.Department, Year: in.Year, Date: d, Period: in.Period}, nil
}

func (e *Engine) slot(req models.SlotRequest) (models.SlotKey, string, error) {
	req.Department = normDept(req.Department)
	req.Date = strings.TrimSpace(req.Date)
	req.Subject = strings.TrimSpace(req.Subject)
	if err := e.validate.Struct(req); err != nil {
		return models.SlotKey{}, "", err
	}
	key, err := e.ParseKey(req.Department, req.Year, req.Date, req.Period)
	if err != nil {
		return models.SlotKey{}, "", err
	}
	return key, req.Subject, nil
}

func (e *Engine) checkDay(d time.Time) error {
	if reason, off := e.calendar.Reason(d); off {
		return &models.NonInstructionalDayError{Date: d, Reason: reason}
	}
	return nil
}

// State reports whether key has a finalized record.
func (e *Engine) State(ctx context.Context, key models.SlotKey) (models.SlotState, error) {
	ok, err := e.store.SlotExists(ctx, key)
	if err != nil {
		return "", errors.Wrapf(err, "slot state %s", key)
	}
	if ok {
		return models.SlotFinalized, nil
	}
	return models.SlotUnsubmitted, nil
}

func (e *Engine) ensureUnsubmitted(ctx context.Context, key models.SlotKey) error {
	st, err := e.State(ctx, key)
	if err != nil {
		return err
	}
	if st == models.SlotFinalized {
		return &models.SlotAlreadyFinalizedError{Key: key}
	}
	return nil
}

// LoadSlot prepares a sheet with every enrolled student marked Present.
// Nothing is persisted.
func (e *Engine) LoadSlot(ctx context.Context, req models.SlotRequest) (*Sheet, error) {
	key, subject, err := e.slot(req)
	if err != nil {
		return nil, err
	}
	if err := e.checkDay(key.Date); err != nil {
		return nil, err
	}
	if err := e.ensureUnsubmitted(ctx, key); err != nil {
		return nil, err
	}
	students, err := e.roster.Resolve(ctx, key.Department, key.Year)
	if err != nil {
		return nil, err
	}
	return newSheet(key, subject, students), nil
}

// Toggle is the stateless form of Sheet.Toggle: the caller posts its current
// marks and gets them back with studentID flipped.
func (e *Engine) Toggle(ctx context.Context, req models.SlotRequest, marks []models.Mark, studentID string) ([]models.Mark, error) {
	sheet, err := e.LoadSlot(ctx, req)
	if err != nil {
		return nil, err
	}
	for _, m := range marks {
		if err := sheet.Set(m.StudentID, m.Status); err != nil {
			return nil, err
		}
	}
	return sheet.Toggle(strings.TrimSpace(studentID))
}

// Submit finalizes a slot. Students absent from marks default to Present, so
// the stored entries always cover the whole roster in RegNo order.
func (e *Engine) Submit(ctx context.Context, req models.SlotRequest, marks []models.Mark, submittedBy string) (models.AttendanceRecord, error) {
	key, subject, err := e.slot(req)
	if err != nil {
		return models.AttendanceRecord{}, err
	}
	if len(marks) == 0 {
		return models.AttendanceRecord{}, models.NewValidationError("marks are required",
			models.FieldError{Field: "marks", Error: "marks are required"})
	}
	if err := e.checkDay(key.Date); err != nil {
		return models.AttendanceRecord{}, err
	}
	if err := e.ensureUnsubmitted(ctx, key); err != nil {
		return models.AttendanceRecord{}, err
	}
	students, err := e.roster.Resolve(ctx, key.Department, key.Year)
	if err != nil {
		return models.AttendanceRecord{}, err
	}

	enrolled := make(map[string]struct{}, len(students))
	for _, s := range students {
		enrolled[s.RegNo] = struct{}{}
	}
	statuses := make(map[string]models.Status, len(marks))
	for i, m := range marks {
		id := strings.TrimSpace(m.StudentID)
		field := fmt.Sprintf("marks[%d].student_id", i)
		if _, ok := enrolled[id]; !ok {
			return models.AttendanceRecord{}, unknownStudent(field, id, key)
		}
		if _, dup := statuses[id]; dup {
			return models.AttendanceRecord{}, models.NewValidationError("duplicate mark for "+id,
				models.FieldError{Field: field, Error: "duplicate student " + id})
		}
		st := m.Status
		if st == "" {
			st = models.StatusPresent
		}
		if !st.Valid() {
			return models.AttendanceRecord{}, models.NewValidationError("invalid status "+string(m.Status),
				models.FieldError{Field: fmt.Sprintf("marks[%d].status", i), Error: "status must be Present or Absent"})
		}
		statuses[id] = st
	}

	entries := make([]models.Entry, 0, len(students))
	for _, s := range students {
		st, ok := statuses[s.RegNo]
		if !ok {
			st = models.StatusPresent
		}
		entries = append(entries, models.Entry{StudentID: s.RegNo, Name: s.Name, Status: st})
	}

	rec := models.AttendanceRecord{
		ID:          uuid.New(),
		Department:  key.Department,
		Year:        key.Year,
		Date:        key.Date,
		Period:      key.Period,
		Subject:     subject,
		Entries:     entries,
		SubmittedBy: submittedBy,
		SubmittedAt: e.nowFunc().UTC(),
	}
	if err := e.store.InsertRecord(ctx, rec); err != nil {
		var taken *models.SlotAlreadyFinalizedError
		if errors.As(err, &taken) {
			return models.AttendanceRecord{}, taken
		}
		return models.AttendanceRecord{}, errors.Wrapf(err, "insert attendance %s", key)
	}
	return rec, nil
}

// SubmitSheet submits a loaded sheet and locks it against further toggles.
func (e *Engine) SubmitSheet(ctx context.Context, s *Sheet, submittedBy string) (models.AttendanceRecord, error) {
	if s.finalized {
		return models.AttendanceRecord{}, &models.SlotAlreadyFinalizedError{Key: s.Key}
	}
	req := models.SlotRequest{
		Department: s.Key.Department,
		Year:       s.Key.Year,
		Date:       s.Key.Date.Format(models.DateLayout),
		Period:     s.Key.Period,
		Subject:    s.Subject,
	}
	rec, err := e.Submit(ctx, req, s.Marks(), submittedBy)
	if err != nil {
		var taken *models.SlotAlreadyFinalizedError
		if errors.As(err, &taken) {
			s.finalized = true
		}
		return models.AttendanceRecord{}, err
	}
	s.finalized = true
	return rec, nil
}

// Record returns the finalized record for key, or models.ErrNotFound.
func (e *Engine) Record(ctx context.Context, key models.SlotKey) (models.AttendanceRecord, error) {
	rec, err := e.store.FindRecord(ctx, key)
	if err != nil {
		return models.AttendanceRecord{}, errors.Wrapf(err, "find attendance %s", key)
	}
	return rec, nil
}

// Periods lists finalized and still-open periods for a class-day.
func (e *Engine) Periods(ctx context.Context, department string, year int, date string) (models.PeriodAvailability, error) {
	in := classInput{Department: normDept(department), Year: year, Date: strings.TrimSpace(date)}
	if err := e.validate.Struct(in); err != nil {
		return models.PeriodAvailability{}, err
	}
	d, _ := calendar.ParseDate(in.Date)
	done, err := e.store.FinalizedPeriods(ctx, in.Department, in.Year, d)
	if err != nil {
		return models.PeriodAvailability{}, errors.Wrap(err, "finalized periods")
	}
	taken := make(map[int]bool, len(done))
	for _, p := range done {
		taken[p] = true
	}
	open := make([]int, 0, e.periodsPerDay)
	for p := 1; p <= e.periodsPerDay; p++ {
		if !taken[p] {
			open = append(open, p)
		}
	}
	return models.PeriodAvailability{
		Department: in.Department,
		Year:       in.Year,
		Date:       d,
		Finalized:  append([]int{}, done...),
		Available:  open,
	}, nil
}
