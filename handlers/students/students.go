package students

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"attendance-backend/models"
	"attendance-backend/validation"
)

// Directory is the student store used by these handlers.
type Directory interface {
	ListStudents(ctx context.Context, f models.StudentFilter) ([]models.Student, error)
	GetStudent(ctx context.Context, regNo string) (models.Student, error)
	CreateStudent(ctx context.Context, s models.Student) (models.Student, error)
	UpdateStudent(ctx context.Context, s models.Student) (models.Student, error)
	DeleteStudent(ctx context.Context, regNo string) error
	UpsertStudents(ctx context.Context, students []models.Student) (created, updated int, err error)
}

// Register mounts student routes under /students
func Register(g fiber.Router, dir Directory, v *validation.Validator, jwtGuard, requireStaff, requireAdmin fiber.Handler) {
	// static paths before /:regNo
	g.Post("/bulk", jwtGuard, requireAdmin, BulkUpload(dir, v))
	g.Get("/export_csv", jwtGuard, requireAdmin, ExportCSV(dir))

	g.Get("/", jwtGuard, requireStaff, List(dir))
	g.Post("/", jwtGuard, requireAdmin, Create(dir, v))
	g.Get("/:regNo", jwtGuard, requireStaff, Get(dir))
	g.Put("/:regNo", jwtGuard, requireAdmin, Update(dir, v))
	g.Delete("/:regNo", jwtGuard, requireAdmin, Delete(dir))
}

func normalize(b models.StudentRequest) models.StudentRequest {
	b.RegNo = strings.ToUpper(trim(b.RegNo))
	b.Name = trim(b.Name)
	b.Department = strings.ToUpper(trim(b.Department))
	return b
}

func toStudent(b models.StudentRequest) models.Student {
	return models.Student{RegNo: b.RegNo, Name: b.Name, Department: b.Department, Year: b.Year}
}

// POST /students  {reg_no, name, department, year}
func Create(dir Directory, v *validation.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var b models.StudentRequest
		if err := c.BodyParser(&b); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Bad JSON")
		}
		b = normalize(b)
		if err := v.Struct(b); err != nil {
			return err
		}
		s, err := dir.CreateStudent(c.UserContext(), toStudent(b))
		if err != nil {
			if errors.Is(err, models.ErrDuplicate) {
				return fiber.NewError(fiber.StatusConflict, "Student "+b.RegNo+" already exists")
			}
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(s)
	}
}

// GET /students?department=CSE&year=2&q=pri&limit=50&offset=0
func List(dir Directory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := models.StudentFilter{
			Department: strings.ToUpper(trim(c.Query("department"))),
			Year:       c.QueryInt("year", 0),
			Search:     c.Query("q"),
			Limit:      clampInt(c.QueryInt("limit", 0), 0, 1000),
			Offset:     clampInt(c.QueryInt("offset", 0), 0, 1<<30),
		}
		out, err := dir.ListStudents(c.UserContext(), f)
		if err != nil {
			return err
		}
		return c.JSON(out)
	}
}

// GET /students/:regNo
func Get(dir Directory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := dir.GetStudent(c.UserContext(), strings.ToUpper(c.Params("regNo")))
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Student not found")
			}
			return err
		}
		return c.JSON(s)
	}
}

// PUT /students/:regNo  {name?, department?, year?}
func Update(dir Directory, v *validation.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var b models.UpdateStudentRequest
		if err := c.BodyParser(&b); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Bad JSON")
		}
		if b.Department != nil {
			d := strings.ToUpper(trim(*b.Department))
			b.Department = &d
		}
		if err := v.Struct(b); err != nil {
			return err
		}

		ctx := c.UserContext()
		cur, err := dir.GetStudent(ctx, strings.ToUpper(c.Params("regNo")))
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Student not found")
			}
			return err
		}
		if b.Name != nil && trim(*b.Name) != "" {
			cur.Name = trim(*b.Name)
		}
		if b.Department != nil {
			cur.Department = *b.Department
		}
		if b.Year != nil {
			cur.Year = *b.Year
		}
		s, err := dir.UpdateStudent(ctx, cur)
		if err != nil {
			return err
		}
		return c.JSON(s)
	}
}

// DELETE /students/:regNo
func Delete(dir Directory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := dir.DeleteStudent(c.UserContext(), strings.ToUpper(c.Params("regNo"))); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Student not found")
			}
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

type rowErr struct {
	Line int    `json:"line"`
	Msg  string `json:"error"`
}

// POST /students/bulk  multipart "file"
// CSV header: reg_no,name,department,year ("Reg No" and "dept" are accepted too).
// Rows are upserted by reg_no; bad rows are reported and skipped.
func BulkUpload(dir Directory, v *validation.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		formFile, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file is required")
		}
		f, err := formFile.Open()
		if err != nil {
			return err
		}
		defer f.Close()

		rd := csv.NewReader(f)
		rd.FieldsPerRecord = -1
		rd.TrimLeadingSpace = true

		header, err := rd.Read()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "empty or invalid csv")
		}
		idx := indexer(header)
		if first(idx, "reg_no", "reg no", "regno") < 0 || first(idx, "name") < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "csv must have reg_no and name columns")
		}

		var (
			rowErrors []rowErr
			batch     []models.Student
			seen      = map[string]int{}
			line      = 1 // header
		)
		for {
			rec, err := rd.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			line++
			if err != nil {
				rowErrors = append(rowErrors, rowErr{line, fmt.Sprintf("read error: %v", err)})
				continue
			}

			year, yerr := strconv.Atoi(trim(get(rec, idx, "year")))
			if yerr != nil {
				rowErrors = append(rowErrors, rowErr{line, "year must be a number between 1 and 4"})
				continue
			}
			b := normalize(models.StudentRequest{
				RegNo:      get(rec, idx, "reg_no", "reg no", "regno"),
				Name:       get(rec, idx, "name"),
				Department: get(rec, idx, "department", "dept"),
				Year:       year,
			})
			if err := v.Struct(b); err != nil {
				rowErrors = append(rowErrors, rowErr{line, err.Error()})
				continue
			}
			if prev, dup := seen[b.RegNo]; dup {
				rowErrors = append(rowErrors, rowErr{line, fmt.Sprintf("duplicate reg_no %s (first on line %d)", b.RegNo, prev)})
				continue
			}
			seen[b.RegNo] = line
			batch = append(batch, toStudent(b))
		}

		created, updated, err := dir.UpsertStudents(c.UserContext(), batch)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"created": created,
			"updated": updated,
			"skipped": len(rowErrors),
			"errors":  rowErrors,
		})
	}
}

// GET /students/export_csv?department=CSE&year=2
func ExportCSV(dir Directory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out, err := dir.ListStudents(c.UserContext(), models.StudentFilter{
			Department: strings.ToUpper(trim(c.Query("department"))),
			Year:       c.QueryInt("year", 0),
		})
		if err != nil {
			return err
		}

		c.Set("Content-Type", "text/csv")
		c.Set("Content-Disposition", `attachment; filename="students_export.csv"`)

		writer := csv.NewWriter(c.Response().BodyWriter())
		defer writer.Flush()

		if err := writer.Write([]string{"reg_no", "name", "department", "year"}); err != nil {
			log.Printf("Error writing CSV header: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to write CSV header")
		}
		for _, s := range out {
			if err := writer.Write([]string{s.RegNo, s.Name, s.Department, strconv.Itoa(s.Year)}); err != nil {
				log.Printf("Error writing CSV record for student %s: %v", s.RegNo, err)
			}
		}
		return nil
	}
}

// --- Helpers ---

func indexer(header []string) map[string]int {
	m := map[string]int{}
	for i, h := range header {
		m[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return m
}

// first returns the column index of the first key present, or -1.
func first(idx map[string]int, keys ...string) int {
	for _, k := range keys {
		if i, ok := idx[k]; ok {
			return i
		}
	}
	return -1
}

func get(rec []string, idx map[string]int, keys ...string) string {
	i := first(idx, keys...)
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func trim(s string) string { return strings.TrimSpace(s) }

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
