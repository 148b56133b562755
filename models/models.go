package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format for calendar dates (no time component).
const DateLayout = "2006-01-02"

// ErrorResponse represents a generic error structure for API responses.
type ErrorResponse struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields,omitempty"`
}

// Enums

type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleHOD   UserRole = "hod"
	UserRoleStaff UserRole = "staff"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleAdmin, UserRoleHOD, UserRoleStaff:
		return true
	default:
		return false
	}
}

type StaffRole string

const (
	StaffRoleFaculty     StaffRole = "Faculty"
	StaffRoleHOD         StaffRole = "HOD"
	StaffRoleLabIncharge StaffRole = "Lab Incharge"
)

// Status is a student's mark for one period.
type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
)

func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

// Flip returns the opposite mark.
func (s Status) Flip() Status {
	if s == StatusAbsent {
		return StatusPresent
	}
	return StatusAbsent
}

// SlotState is the lifecycle of one (department, year, date, period) slot.
type SlotState string

const (
	SlotUnsubmitted SlotState = "unsubmitted"
	SlotFinalized   SlotState = "finalized"
)

// Main Models

type Student struct {
	RegNo      string    `json:"reg_no"`
	Name       string    `json:"name"`
	Department string    `json:"department"`
	Year       int       `json:"year"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// SlotKey identifies a single period of instruction for one class.
type SlotKey struct {
	Department string    `json:"department"`
	Year       int       `json:"year"`
	Date       time.Time `json:"date"`
	Period     int       `json:"period"`
}

// ID renders the key in a stable form, e.g. "CSE/2/2025-11-10/P1".
func (k SlotKey) ID() string {
	return fmt.Sprintf("%s/%d/%s/P%d", k.Department, k.Year, k.Date.Format(DateLayout), k.Period)
}

func (k SlotKey) String() string { return k.ID() }

// Mark is an in-progress (not yet finalized) status for one student.
type Mark struct {
	StudentID string `json:"student_id"`
	Status    Status `json:"status"`
}

type Entry struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name,omitempty"`
	Status    Status `json:"status"`
}

type AttendanceRecord struct {
	ID          uuid.UUID `json:"id"`
	Department  string    `json:"department"`
	Year        int       `json:"year"`
	Date        time.Time `json:"date"`
	Period      int       `json:"period"`
	Subject     string    `json:"subject"`
	Entries     []Entry   `json:"entries"`
	SubmittedBy string    `json:"submitted_by,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

func (r AttendanceRecord) Key() SlotKey {
	return SlotKey{Department: r.Department, Year: r.Year, Date: r.Date, Period: r.Period}
}

// RecordFilter selects finalized records for reporting. Zero Department/Year mean "any".
type RecordFilter struct {
	Department string
	Year       int
	From       time.Time
	To         time.Time
}

type ReportRow struct {
	StudentID      string  `json:"student_id"`
	Name           string  `json:"name,omitempty"`
	Department     string  `json:"department"`
	Year           int     `json:"year"`
	TotalPeriods   int     `json:"total_periods"`
	PresentPeriods int     `json:"present_periods"`
	AbsentPeriods  int     `json:"absent_periods"`
	Percentage     float64 `json:"percentage"`
}

type Holiday struct {
	Date time.Time `json:"date"`
	Name string    `json:"name"`
}

type Subject struct {
	Name string `json:"name" validate:"required"`
	Year int    `json:"year" validate:"min=1,max=4"`
}

type Staff struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Department string    `json:"department"`
	Role       StaffRole `json:"role"`
	Subjects   []Subject `json:"subjects"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is a stored refresh token (hashed).
type Session struct {
	UserID    uuid.UUID
	TokenHash string
	UserAgent string
	IP        string
	ExpiresAt time.Time
	RevokedAt *time.Time
}

type DashboardCounts struct {
	TotalStudents int64 `json:"totalStudents"`
	TotalStaffs   int64 `json:"totalStaffs"`
	TotalHods     int64 `json:"totalHods"`
}

// StudentFilter is used by directory listings.
type StudentFilter struct {
	Department string
	Year       int
	Search     string
	Limit      int
	Offset     int
}

// PeriodAvailability lists which periods of a class-day are already submitted.
type PeriodAvailability struct {
	Department string    `json:"department"`
	Year       int       `json:"year"`
	Date       time.Time `json:"date"`
	Finalized  []int     `json:"finalized"`
	Available  []int     `json:"available"`
}
