package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance-backend/db"
	"attendance-backend/models"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isUniqueViolation(errors.Wrap(&pgconn.PgError{Code: "23505"}, "insert")))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
	assert.False(t, isUniqueViolation(nil))
}

// openTestStore needs TEST_DATABASE_URL pointing at a disposable database.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.Open(ctx, db.PoolConfig{URL: url})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, db.Migrate(ctx, pool, "reset"))
	require.NoError(t, db.Migrate(ctx, pool, "up"))
	return New(pool)
}

func record(date time.Time, period int, entries ...models.Entry) models.AttendanceRecord {
	return models.AttendanceRecord{
		ID: uuid.New(), Department: "CSE", Year: 2, Date: date, Period: period,
		Subject: "DBMS", Entries: entries, SubmittedAt: time.Now().UTC(),
	}
}

func TestRecords(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	nov10 := time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)

	rec := record(nov10, 1,
		models.Entry{StudentID: "CSE21", Name: "Hari", Status: models.StatusPresent},
		models.Entry{StudentID: "CSE22", Name: "Priya", Status: models.StatusAbsent})
	require.NoError(t, s.InsertRecord(ctx, rec))

	err := s.InsertRecord(ctx, record(nov10, 1, models.Entry{StudentID: "CSE21", Status: models.StatusPresent}))
	var taken *models.SlotAlreadyFinalizedError
	require.ErrorAs(t, err, &taken)

	ok, err := s.SlotExists(ctx, rec.Key())
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.FindRecord(ctx, rec.Key())
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Entries, got.Entries)

	require.NoError(t, s.InsertRecord(ctx, record(nov10, 4, models.Entry{StudentID: "CSE21", Status: models.StatusPresent})))
	periods, err := s.FinalizedPeriods(ctx, "CSE", 2, nov10)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4}, periods)

	recs, err := s.QueryRecords(ctx, models.RecordFilter{Department: "CSE", From: nov10, To: nov10})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Len(t, recs[0].Entries, 2)

	_, err = s.FindRecord(ctx, models.SlotKey{Department: "ECE", Year: 1, Date: nov10, Period: 1})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestConcurrentInsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	day := time.Date(2025, 11, 11, 0, 0, 0, 0, time.UTC)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.InsertRecord(ctx, record(day, 2, models.Entry{StudentID: "CSE21", Status: models.StatusPresent}))
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestUsersAndSessions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, models.User{Username: "Admin", PasswordHash: "x", Role: models.UserRoleAdmin})
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, models.User{Username: "admin", PasswordHash: "y", Role: models.UserRoleStaff})
	assert.ErrorIs(t, err, models.ErrDuplicate)

	got, err := s.UserByUsername(ctx, "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	require.NoError(t, s.SaveSession(ctx, models.Session{UserID: u.ID, TokenHash: "h1", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, s.RevokeSession(ctx, "h1"))
	sess, err := s.SessionByHash(ctx, "h1")
	require.NoError(t, err)
	assert.NotNil(t, sess.RevokedAt)

	_, err = s.SessionByHash(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
