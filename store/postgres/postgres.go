// Package postgres stores attendance records, users and refresh sessions
// through a pgx pool.
package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"attendance-backend/models"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// ---------- attendance records ----------

func (s *Store) SlotExists(ctx context.Context, key models.SlotKey) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM attendance_records
			WHERE department=$1 AND year=$2 AND date=$3 AND period=$4
		)`, key.Department, key.Year, key.Date, key.Period).Scan(&ok)
	return ok, err
}

// InsertRecord writes the record and its entries in one transaction. The
// unique slot index turns a concurrent duplicate into
// *models.SlotAlreadyFinalizedError.
func (s *Store) InsertRecord(ctx context.Context, rec models.AttendanceRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx, `
		INSERT INTO attendance_records(id, department, year, date, period, subject, submitted_by, submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, rec.ID, rec.Department, rec.Year, rec.Date, rec.Period, rec.Subject, rec.SubmittedBy, rec.SubmittedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &models.SlotAlreadyFinalizedError{Key: rec.Key()}
		}
		return errors.Wrap(err, "insert attendance record")
	}

	rows := make([][]any, 0, len(rec.Entries))
	for i, e := range rec.Entries {
		rows = append(rows, []any{rec.ID, i, e.StudentID, e.Name, string(e.Status)})
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"attendance_entries"},
		[]string{"record_id", "position", "student_id", "name", "status"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return errors.Wrap(err, "copy attendance entries")
	}
	return tx.Commit(ctx)
}

func (s *Store) FindRecord(ctx context.Context, key models.SlotKey) (models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	err := s.pool.QueryRow(ctx, `
		SELECT id, department, year, date, period, subject, submitted_by, submitted_at
		FROM attendance_records
		WHERE department=$1 AND year=$2 AND date=$3 AND period=$4
	`, key.Department, key.Year, key.Date, key.Period).Scan(
		&rec.ID, &rec.Department, &rec.Year, &rec.Date, &rec.Period, &rec.Subject, &rec.SubmittedBy, &rec.SubmittedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AttendanceRecord{}, models.ErrNotFound
		}
		return models.AttendanceRecord{}, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT student_id, name, status FROM attendance_entries
		WHERE record_id=$1 ORDER BY position
	`, rec.ID)
	if err != nil {
		return models.AttendanceRecord{}, err
	}
	rec.Entries, err = pgx.CollectRows(rows, func(r pgx.CollectableRow) (models.Entry, error) {
		var e models.Entry
		err := r.Scan(&e.StudentID, &e.Name, &e.Status)
		return e, err
	})
	if err != nil {
		return models.AttendanceRecord{}, errors.Wrap(err, "scan attendance entries")
	}
	rec.Date = rec.Date.UTC()
	return rec, nil
}

func (s *Store) FinalizedPeriods(ctx context.Context, department string, year int, date time.Time) ([]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT period FROM attendance_records
		WHERE department=$1 AND year=$2 AND date=$3
		ORDER BY period
	`, department, year, date)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int])
}

// QueryRecords returns every record in [f.From, f.To] (inclusive) with its
// entries, optionally narrowed to a department and year.
func (s *Store) QueryRecords(ctx context.Context, f models.RecordFilter) ([]models.AttendanceRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.department, r.year, r.date, r.period, r.subject, r.submitted_by, r.submitted_at,
		       e.student_id, e.name, e.status
		FROM attendance_records r
		JOIN attendance_entries e ON e.record_id = r.id
		WHERE r.date BETWEEN $1 AND $2
		  AND ($3::text = '' OR r.department = $3)
		  AND ($4::int = 0 OR r.year = $4)
		ORDER BY r.date, r.department, r.year, r.period, e.position
	`, f.From, f.To, f.Department, f.Year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.AttendanceRecord, 0)
	for rows.Next() {
		var (
			rec models.AttendanceRecord
			e   models.Entry
		)
		if err := rows.Scan(&rec.ID, &rec.Department, &rec.Year, &rec.Date, &rec.Period, &rec.Subject,
			&rec.SubmittedBy, &rec.SubmittedAt, &e.StudentID, &e.Name, &e.Status); err != nil {
			return nil, errors.Wrap(err, "scan attendance row")
		}
		if n := len(out); n == 0 || out[n-1].ID != rec.ID {
			rec.Date = rec.Date.UTC()
			out = append(out, rec)
		}
		last := &out[len(out)-1]
		last.Entries = append(last.Entries, e)
	}
	return out, rows.Err()
}

// ---------- users ----------

func (s *Store) UserByUsername(ctx context.Context, username string) (models.User, error) {
	return s.user(ctx, `WHERE lower(username)=lower($1)`, username)
}

func (s *Store) UserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	return s.user(ctx, `WHERE id=$1`, id)
}

func (s *Store) user(ctx context.Context, where string, arg any) (models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, role, created_at FROM users `+where, arg).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, models.ErrNotFound
	}
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users(id, username, password_hash, role) VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, u.ID, u.Username, u.PasswordHash, u.Role).Scan(&u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, models.ErrDuplicate
		}
		return models.User{}, errors.Wrap(err, "insert user")
	}
	return u, nil
}

// ---------- refresh sessions ----------

func (s *Store) SaveSession(ctx context.Context, sess models.Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO auth_sessions(token_hash, user_id, user_agent, ip, expires_at)
		VALUES ($1,$2,$3,$4,$5)
	`, sess.TokenHash, sess.UserID, sess.UserAgent, sess.IP, sess.ExpiresAt)
	return errors.Wrap(err, "store refresh token")
}

func (s *Store) SessionByHash(ctx context.Context, hash string) (models.Session, error) {
	var sess models.Session
	err := s.pool.QueryRow(ctx, `
		SELECT token_hash, user_id, user_agent, ip, expires_at, revoked_at
		FROM auth_sessions WHERE token_hash=$1
	`, hash).Scan(&sess.TokenHash, &sess.UserID, &sess.UserAgent, &sess.IP, &sess.ExpiresAt, &sess.RevokedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Session{}, models.ErrNotFound
	}
	return sess, err
}

func (s *Store) RevokeSession(ctx context.Context, hash string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE auth_sessions SET revoked_at=NOW() WHERE token_hash=$1 AND revoked_at IS NULL`, hash)
	return err
}
