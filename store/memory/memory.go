// Package memory is a process-local store guarded by a RWMutex. It backs
// tests and STORE_DRIVER=memory.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"attendance-backend/models"
)

type DB struct {
	mu       sync.RWMutex
	students map[string]models.Student
	records  map[string]models.AttendanceRecord
	staff    map[uuid.UUID]models.Staff
	users    map[uuid.UUID]models.User
	sessions map[string]models.Session

	nowFunc func() time.Time
}

func New() *DB {
	return &DB{
		students: map[string]models.Student{},
		records:  map[string]models.AttendanceRecord{},
		staff:    map[uuid.UUID]models.Staff{},
		users:    map[uuid.UUID]models.User{},
		sessions: map[string]models.Session{},
		nowFunc:  time.Now,
	}
}

func (db *DB) Ping(ctx context.Context) error { return ctx.Err() }

// --- Students ---

func (db *DB) StudentsByClass(ctx context.Context, department string, year int) ([]models.Student, error) {
	return db.ListStudents(ctx, models.StudentFilter{Department: department, Year: year})
}

func (db *DB) ListStudents(_ context.Context, f models.StudentFilter) ([]models.Student, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]models.Student, 0, len(db.students))
	for _, s := range db.students {
		if f.Department != "" && s.Department != f.Department {
			continue
		}
		if f.Year != 0 && s.Year != f.Year {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(s.Name), search) &&
			!strings.Contains(strings.ToLower(s.RegNo), search) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegNo < out[j].RegNo })
	return page(out, f.Limit, f.Offset), nil
}

func page[T any](in []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(in) {
			return in[:0]
		}
		in = in[offset:]
	}
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}

func (db *DB) GetStudent(_ context.Context, regNo string) (models.Student, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	s, ok := db.students[regNo]
	if !ok {
		return models.Student{}, models.ErrNotFound
	}
	return s, nil
}

func (db *DB) CreateStudent(_ context.Context, s models.Student) (models.Student, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.students[s.RegNo]; ok {
		return models.Student{}, models.ErrDuplicate
	}
	now := db.nowFunc()
	s.CreatedAt, s.UpdatedAt = now, now
	db.students[s.RegNo] = s
	return s, nil
}

func (db *DB) UpdateStudent(_ context.Context, s models.Student) (models.Student, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	cur, ok := db.students[s.RegNo]
	if !ok {
		return models.Student{}, models.ErrNotFound
	}
	s.CreatedAt = cur.CreatedAt
	s.UpdatedAt = db.nowFunc()
	db.students[s.RegNo] = s
	return s, nil
}

func (db *DB) DeleteStudent(_ context.Context, regNo string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.students[regNo]; !ok {
		return models.ErrNotFound
	}
	delete(db.students, regNo)
	return nil
}

// UpsertStudents inserts new students and overwrites existing ones by RegNo.
func (db *DB) UpsertStudents(_ context.Context, students []models.Student) (created, updated int, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	now := db.nowFunc()
	for _, s := range students {
		if cur, ok := db.students[s.RegNo]; ok {
			s.CreatedAt = cur.CreatedAt
			updated++
		} else {
			s.CreatedAt = now
			created++
		}
		s.UpdatedAt = now
		db.students[s.RegNo] = s
	}
	return created, updated, nil
}

// --- Attendance records ---

func (db *DB) SlotExists(_ context.Context, key models.SlotKey) (bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	_, ok := db.records[key.ID()]
	return ok, nil
}

// InsertRecord is a check-and-insert under the write lock; a second insert for
// the same slot key fails with *models.SlotAlreadyFinalizedError.
func (db *DB) InsertRecord(_ context.Context, rec models.AttendanceRecord) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	k := rec.Key()
	if _, ok := db.records[k.ID()]; ok {
		return &models.SlotAlreadyFinalizedError{Key: k}
	}
	db.records[k.ID()] = cloneRecord(rec)
	return nil
}

func (db *DB) FindRecord(_ context.Context, key models.SlotKey) (models.AttendanceRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	rec, ok := db.records[key.ID()]
	if !ok {
		return models.AttendanceRecord{}, models.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (db *DB) FinalizedPeriods(_ context.Context, department string, year int, date time.Time) ([]int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var out []int
	for _, r := range db.records {
		if r.Department == department && r.Year == year && r.Date.Equal(date) {
			out = append(out, r.Period)
		}
	}
	sort.Ints(out)
	return out, nil
}

func (db *DB) QueryRecords(_ context.Context, f models.RecordFilter) ([]models.AttendanceRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]models.AttendanceRecord, 0)
	for _, r := range db.records {
		if f.Department != "" && r.Department != f.Department {
			continue
		}
		if f.Year != 0 && r.Year != f.Year {
			continue
		}
		if r.Date.Before(f.From) || r.Date.After(f.To) {
			continue
		}
		out = append(out, cloneRecord(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Key().ID() < out[j].Key().ID()
	})
	return out, nil
}

func cloneRecord(r models.AttendanceRecord) models.AttendanceRecord {
	r.Entries = append([]models.Entry(nil), r.Entries...)
	return r
}

// --- Staff ---

func (db *DB) ListStaff(_ context.Context, department string) ([]models.Staff, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]models.Staff, 0, len(db.staff))
	for _, s := range db.staff {
		if department != "" && s.Department != department {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (db *DB) GetStaff(_ context.Context, id uuid.UUID) (models.Staff, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	s, ok := db.staff[id]
	if !ok {
		return models.Staff{}, models.ErrNotFound
	}
	return s, nil
}

func (db *DB) CreateStaff(_ context.Context, s models.Staff) (models.Staff, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := db.nowFunc()
	s.CreatedAt, s.UpdatedAt = now, now
	db.staff[s.ID] = s
	return s, nil
}

func (db *DB) UpdateStaff(_ context.Context, s models.Staff) (models.Staff, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	cur, ok := db.staff[s.ID]
	if !ok {
		return models.Staff{}, models.ErrNotFound
	}
	s.CreatedAt = cur.CreatedAt
	s.UpdatedAt = db.nowFunc()
	db.staff[s.ID] = s
	return s, nil
}

func (db *DB) DeleteStaff(_ context.Context, id uuid.UUID) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.staff[id]; !ok {
		return models.ErrNotFound
	}
	delete(db.staff, id)
	return nil
}

func (db *DB) Counts(_ context.Context) (models.DashboardCounts, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	c := models.DashboardCounts{TotalStudents: int64(len(db.students)), TotalStaffs: int64(len(db.staff))}
	for _, s := range db.staff {
		if s.Role == models.StaffRoleHOD {
			c.TotalHods++
		}
	}
	return c, nil
}

// --- Users & sessions ---

func (db *DB) UserByUsername(_ context.Context, username string) (models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for _, u := range db.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return models.User{}, models.ErrNotFound
}

func (db *DB) UserByID(_ context.Context, id uuid.UUID) (models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	u, ok := db.users[id]
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	return u, nil
}

func (db *DB) CreateUser(_ context.Context, u models.User) (models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, cur := range db.users {
		if strings.EqualFold(cur.Username, u.Username) {
			return models.User{}, models.ErrDuplicate
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = db.nowFunc()
	db.users[u.ID] = u
	return u, nil
}

func (db *DB) SaveSession(_ context.Context, s models.Session) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.sessions[s.TokenHash] = s
	return nil
}

func (db *DB) SessionByHash(_ context.Context, hash string) (models.Session, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	s, ok := db.sessions[hash]
	if !ok {
		return models.Session{}, models.ErrNotFound
	}
	return s, nil
}

func (db *DB) RevokeSession(_ context.Context, hash string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	s, ok := db.sessions[hash]
	if !ok || s.RevokedAt != nil {
		return nil
	}
	now := db.nowFunc()
	s.RevokedAt = &now
	db.sessions[hash] = s
	return nil
}
