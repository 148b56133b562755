package roster

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance-backend/models"
)

type stubDirectory struct {
	students []models.Student
	err      error
	gotDept  string
}

func (s *stubDirectory) StudentsByClass(_ context.Context, department string, year int) ([]models.Student, error) {
	s.gotDept = department
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Student
	for _, st := range s.students {
		if st.Department == department && st.Year == year {
			out = append(out, st)
		}
	}
	return out, nil
}

func TestResolve(t *testing.T) {
	dir := &stubDirectory{students: []models.Student{
		{RegNo: "CSE44", Name: "Priya", Department: "CSE", Year: 4},
		{RegNo: "CSE41", Name: "Arun Kumar", Department: "CSE", Year: 4},
		{RegNo: "CSE43", Name: "Karthik", Department: "CSE", Year: 4},
		{RegNo: "ECE41", Name: "Vignesh", Department: "ECE", Year: 4},
	}}
	r := NewResolver(dir)

	got, err := r.Resolve(context.Background(), " cse", 4)
	require.NoError(t, err)
	assert.Equal(t, "CSE", dir.gotDept)
	ids := make([]string, 0, len(got))
	for _, s := range got {
		ids = append(ids, s.RegNo)
	}
	assert.Equal(t, []string{"CSE41", "CSE43", "CSE44"}, ids)
}

func TestResolveEmpty(t *testing.T) {
	r := NewResolver(&stubDirectory{})
	_, err := r.Resolve(context.Background(), "MECH", 1)
	var empty *models.EmptyRosterError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, "MECH", empty.Department)
	assert.Equal(t, 1, empty.Year)
}

func TestResolveDirectoryError(t *testing.T) {
	boom := errors.New("connection refused")
	r := NewResolver(&stubDirectory{err: boom})
	_, err := r.Resolve(context.Background(), "CSE", 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "resolve roster CSE/2")
}
