package validation

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance-backend/models"
)

func TestStruct(t *testing.T) {
	v := New()
	tests := []struct {
		name       string
		in         any
		wantFields map[string]string
	}{
		{
			name: "valid slot",
			in:   models.SlotRequest{Department: "CSE", Year: 2, Date: "2025-11-10", Period: 1, Subject: "DBMS"},
		},
		{
			name: "bad slot",
			in:   models.SlotRequest{Department: "cse", Year: 5, Date: "10/11/2025", Period: 1},
			wantFields: map[string]string{
				"department": "department must be an upper-case department code such as CSE",
				"year":       "year must be 4 or less",
				"date":       "date must be a date in YYYY-MM-DD form",
				"subject":    "subject is required",
			},
		},
		{
			name:       "student",
			in:         models.StudentRequest{RegNo: "CSE21", Department: "CSE", Year: 1},
			wantFields: map[string]string{"name": "name is required"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			var verr *models.ValidationError
			require.True(t, errors.As(err, &verr))
			got := map[string]string{}
			for _, f := range verr.Fields {
				got[f.Field] = f.Error
			}
			assert.Equal(t, tt.wantFields, got)
		})
	}
}
