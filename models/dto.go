package models

// Request / response payloads.

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken *string  `json:"refresh_token,omitempty"`
	ExpiresIn    int      `json:"expires_in"`
	Role         UserRole `json:"role"`
	Username     string   `json:"username"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RegisterUserRequest struct {
	Username string   `json:"username" validate:"required,min=3,max=64"`
	Password string   `json:"password" validate:"required,min=8"`
	Role     UserRole `json:"role" validate:"required,oneof=admin hod staff"`
}

// SlotRequest names a slot plus the subject being taught in it.
// Date is YYYY-MM-DD.
type SlotRequest struct {
	Department string `json:"department" query:"department" validate:"required,deptcode"`
	Year       int    `json:"year" query:"year" validate:"required,min=1,max=4"`
	Date       string `json:"date" query:"date" validate:"required,datefmt"`
	Period     int    `json:"period" query:"period" validate:"required,min=1"`
	Subject    string `json:"subject" query:"subject" validate:"required,max=120"`
}

type ToggleRequest struct {
	SlotRequest
	Marks     []Mark `json:"marks"`
	StudentID string `json:"student_id" validate:"required"`
}

type SubmitRequest struct {
	SlotRequest
	Marks []Mark `json:"marks"`
}

// SheetResponse is the roster with default marks returned by a slot load.
type SheetResponse struct {
	Key      SlotKey   `json:"key"`
	Subject  string    `json:"subject"`
	State    SlotState `json:"state"`
	Students []Student `json:"students"`
	Marks    []Mark    `json:"marks"`
}

type StudentRequest struct {
	RegNo      string `json:"reg_no" validate:"required,max=32"`
	Name       string `json:"name" validate:"required,max=120"`
	Department string `json:"department" validate:"required,deptcode"`
	Year       int    `json:"year" validate:"required,min=1,max=4"`
}

type UpdateStudentRequest struct {
	Name       *string `json:"name" validate:"omitempty,max=120"`
	Department *string `json:"department" validate:"omitempty,deptcode"`
	Year       *int    `json:"year" validate:"omitempty,min=1,max=4"`
}

type StaffRequest struct {
	Name       string    `json:"name" validate:"required,max=120"`
	Department string    `json:"department" validate:"required,deptcode"`
	Role       StaffRole `json:"role" validate:"required,oneof=Faculty HOD 'Lab Incharge'"`
	Subjects   []Subject `json:"subjects" validate:"dive"`
	Active     *bool     `json:"active"`
}
