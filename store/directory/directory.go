// Package directory is the gorm-backed student and staff directory.
package directory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"attendance-backend/models"
)

type studentRow struct {
	RegNo      string    `gorm:"column:reg_no;primaryKey"`
	Name       string    `gorm:"column:name"`
	Department string    `gorm:"column:department"`
	Year       int       `gorm:"column:year"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (studentRow) TableName() string { return "students" }

func (r studentRow) model() models.Student {
	return models.Student{
		RegNo:      r.RegNo,
		Name:       r.Name,
		Department: r.Department,
		Year:       r.Year,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func fromStudent(s models.Student) studentRow {
	return studentRow{RegNo: s.RegNo, Name: s.Name, Department: s.Department, Year: s.Year}
}

type staffRow struct {
	ID         uuid.UUID                          `gorm:"column:id;type:uuid;primaryKey"`
	Name       string                             `gorm:"column:name"`
	Department string                             `gorm:"column:department"`
	Role       string                             `gorm:"column:role"`
	Subjects   datatypes.JSONSlice[models.Subject] `gorm:"column:subjects;type:jsonb"`
	Active     bool                               `gorm:"column:active"`
	CreatedAt  time.Time                          `gorm:"column:created_at"`
	UpdatedAt  time.Time                          `gorm:"column:updated_at"`
}

func (staffRow) TableName() string { return "staff" }

func (r staffRow) model() models.Staff {
	subjects := []models.Subject(r.Subjects)
	if subjects == nil {
		subjects = []models.Subject{}
	}
	return models.Staff{
		ID:         r.ID,
		Name:       r.Name,
		Department: r.Department,
		Role:       models.StaffRole(r.Role),
		Subjects:   subjects,
		Active:     r.Active,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func fromStaff(s models.Staff) staffRow {
	return staffRow{
		ID:         s.ID,
		Name:       s.Name,
		Department: s.Department,
		Role:       string(s.Role),
		Subjects:   datatypes.JSONSlice[models.Subject](s.Subjects),
		Active:     s.Active,
	}
}

// translate maps gorm errors (TranslateError is on) to the directory sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return models.ErrDuplicate
	}
	return err
}

type Directory struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// ---------- students ----------

func (d *Directory) StudentsByClass(ctx context.Context, department string, year int) ([]models.Student, error) {
	return d.ListStudents(ctx, models.StudentFilter{Department: department, Year: year})
}

func (d *Directory) ListStudents(ctx context.Context, f models.StudentFilter) ([]models.Student, error) {
	q := d.db.WithContext(ctx).Model(&studentRow{})
	if f.Department != "" {
		q = q.Where("department = ?", f.Department)
	}
	if f.Year != 0 {
		q = q.Where("year = ?", f.Year)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(reg_no) LIKE ?", like, like)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var rows []studentRow
	if err := q.Order("reg_no ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list students")
	}
	out := make([]models.Student, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (d *Directory) GetStudent(ctx context.Context, regNo string) (models.Student, error) {
	var row studentRow
	if err := d.db.WithContext(ctx).First(&row, "reg_no = ?", regNo).Error; err != nil {
		return models.Student{}, translate(err)
	}
	return row.model(), nil
}

func (d *Directory) CreateStudent(ctx context.Context, s models.Student) (models.Student, error) {
	row := fromStudent(s)
	if err := d.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Student{}, translate(err)
	}
	return row.model(), nil
}

func (d *Directory) UpdateStudent(ctx context.Context, s models.Student) (models.Student, error) {
	res := d.db.WithContext(ctx).Model(&studentRow{}).
		Where("reg_no = ?", s.RegNo).
		Updates(map[string]any{
			"name":       s.Name,
			"department": s.Department,
			"year":       s.Year,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return models.Student{}, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Student{}, models.ErrNotFound
	}
	return d.GetStudent(ctx, s.RegNo)
}

func (d *Directory) DeleteStudent(ctx context.Context, regNo string) error {
	res := d.db.WithContext(ctx).Delete(&studentRow{}, "reg_no = ?", regNo)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpsertStudents inserts new students and overwrites existing ones by RegNo
// inside a single transaction.
func (d *Directory) UpsertStudents(ctx context.Context, students []models.Student) (created, updated int, err error) {
	if len(students) == 0 {
		return 0, 0, nil
	}
	regNos := make([]string, 0, len(students))
	rows := make([]studentRow, 0, len(students))
	for _, s := range students {
		regNos = append(regNos, s.RegNo)
		rows = append(rows, fromStudent(s))
	}

	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&studentRow{}).Where("reg_no IN ?", regNos).Count(&existing).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reg_no"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "department", "year", "updated_at"}),
		}).CreateInBatches(&rows, 500).Error; err != nil {
			return err
		}
		updated = int(existing)
		created = len(rows) - updated
		return nil
	})
	if err != nil {
		return 0, 0, errors.Wrap(translate(err), "upsert students")
	}
	return created, updated, nil
}

// ---------- staff ----------

func (d *Directory) ListStaff(ctx context.Context, department string) ([]models.Staff, error) {
	q := d.db.WithContext(ctx).Model(&staffRow{})
	if department != "" {
		q = q.Where("department = ?", department)
	}
	var rows []staffRow
	if err := q.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list staff")
	}
	out := make([]models.Staff, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (d *Directory) GetStaff(ctx context.Context, id uuid.UUID) (models.Staff, error) {
	var row staffRow
	if err := d.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return models.Staff{}, translate(err)
	}
	return row.model(), nil
}

func (d *Directory) CreateStaff(ctx context.Context, s models.Staff) (models.Staff, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	row := fromStaff(s)
	if err := d.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Staff{}, translate(err)
	}
	return row.model(), nil
}

func (d *Directory) UpdateStaff(ctx context.Context, s models.Staff) (models.Staff, error) {
	row := fromStaff(s)
	res := d.db.WithContext(ctx).Model(&staffRow{}).
		Where("id = ?", s.ID).
		Updates(map[string]any{
			"name":       row.Name,
			"department": row.Department,
			"role":       row.Role,
			"subjects":   row.Subjects,
			"active":     row.Active,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return models.Staff{}, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Staff{}, models.ErrNotFound
	}
	return d.GetStaff(ctx, s.ID)
}

func (d *Directory) DeleteStaff(ctx context.Context, id uuid.UUID) error {
	res := d.db.WithContext(ctx).Delete(&staffRow{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (d *Directory) Counts(ctx context.Context) (models.DashboardCounts, error) {
	var c models.DashboardCounts
	db := d.db.WithContext(ctx)
	if err := db.Model(&studentRow{}).Count(&c.TotalStudents).Error; err != nil {
		return c, errors.Wrap(err, "count students")
	}
	if err := db.Model(&staffRow{}).Count(&c.TotalStaffs).Error; err != nil {
		return c, errors.Wrap(err, "count staff")
	}
	if err := db.Model(&staffRow{}).Where("role = ?", string(models.StaffRoleHOD)).Count(&c.TotalHods).Error; err != nil {
		return c, errors.Wrap(err, "count hods")
	}
	return c, nil
}
