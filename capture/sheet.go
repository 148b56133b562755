package capture

import (
	"attendance-backend/models"
)

// Sheet is an in-progress set of marks for one slot. It is produced by
// Engine.LoadSlot with every student marked Present and is not safe for
// concurrent use.
type Sheet struct {
	Key      models.SlotKey
	Subject  string
	Students []models.Student

	marks     map[string]models.Status
	finalized bool
}

func newSheet(key models.SlotKey, subject string, students []models.Student) *Sheet {
	s := &Sheet{
		Key:      key,
		Subject:  subject,
		Students: students,
		marks:    make(map[string]models.Status, len(students)),
	}
	for _, st := range students {
		s.marks[st.RegNo] = models.StatusPresent
	}
	return s
}

func (s *Sheet) Finalized() bool { return s.finalized }

func (s *Sheet) State() models.SlotState {
	if s.finalized {
		return models.SlotFinalized
	}
	return models.SlotUnsubmitted
}

// Toggle flips one student between Present and Absent and returns the updated marks.
func (s *Sheet) Toggle(studentID string) ([]models.Mark, error) {
	if s.finalized {
		return nil, &models.SlotAlreadyFinalizedError{Key: s.Key}
	}
	cur, ok := s.marks[studentID]
	if !ok {
		return nil, unknownStudent("student_id", studentID, s.Key)
	}
	s.marks[studentID] = cur.Flip()
	return s.Marks(), nil
}

// Set forces a student's mark. An empty status means Present.
func (s *Sheet) Set(studentID string, status models.Status) error {
	if s.finalized {
		return &models.SlotAlreadyFinalizedError{Key: s.Key}
	}
	if _, ok := s.marks[studentID]; !ok {
		return unknownStudent("student_id", studentID, s.Key)
	}
	if status == "" {
		status = models.StatusPresent
	}
	if !status.Valid() {
		return models.NewValidationError("invalid status "+string(status),
			models.FieldError{Field: "status", Error: "status must be Present or Absent"})
	}
	s.marks[studentID] = status
	return nil
}

// Marks returns the current marks in roster order.
func (s *Sheet) Marks() []models.Mark {
	out := make([]models.Mark, 0, len(s.Students))
	for _, st := range s.Students {
		out = append(out, models.Mark{StudentID: st.RegNo, Status: s.marks[st.RegNo]})
	}
	return out
}

func (s *Sheet) Response() models.SheetResponse {
	return models.SheetResponse{
		Key:      s.Key,
		Subject:  s.Subject,
		State:    s.State(),
		Students: s.Students,
		Marks:    s.Marks(),
	}
}

func unknownStudent(field, id string, key models.SlotKey) error {
	return models.NewValidationError("student "+id+" is not on the roster for "+key.Department,
		models.FieldError{Field: field, Error: "unknown student " + id})
}
