// Package roster resolves the ordered list of students to be marked for a class.
package roster

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"attendance-backend/models"
)

// Directory is the student directory the roster is read from.
type Directory interface {
	StudentsByClass(ctx context.Context, department string, year int) ([]models.Student, error)
}

type Resolver struct {
	dir Directory
}

func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve returns the students enrolled in department/year ordered by RegNo.
// An empty class is reported as *models.EmptyRosterError.
func (r *Resolver) Resolve(ctx context.Context, department string, year int) ([]models.Student, error) {
	department = strings.ToUpper(strings.TrimSpace(department))
	students, err := r.dir.StudentsByClass(ctx, department, year)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve roster %s/%d", department, year)
	}
	if len(students) == 0 {
		return nil, &models.EmptyRosterError{Department: department, Year: year}
	}
	out := make([]models.Student, len(students))
	copy(out, students)
	sort.SliceStable(out, func(i, j int) bool { return out[i].RegNo < out[j].RegNo })
	return out, nil
}
