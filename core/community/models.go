package community

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fmlibermann/website/core"
)

type Parent struct {
	ID                int       `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	StudentName       string    `json:"student_name"`
	Phone             string    `json:"phone"`
	VolunteerInterest bool      `json:"volunteer_interest"`
	CreatedAt         time.Time `json:"created_at"` // UTC
}

type Alumnus struct {
	ID                 int       `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	GraduationYear     int       `json:"graduation_year"`
	Profession         string    `json:"profession"`
	MentorshipInterest bool      `json:"mentorship_interest"`
	CreatedAt          time.Time `json:"created_at"` // UTC
}

type NewParent struct {
	Name              string `json:"name" form:"name" validate:"required"`
	Email             string `json:"email" form:"email" validate:"required,simple_email"`
	StudentName       string `json:"student_name" form:"student_name"`
	Phone             string `json:"phone" form:"phone"`
	VolunteerInterest bool   `json:"volunteer_interest" form:"-"` // checkbox, bound by the handler
}

func (np *NewParent) Validate(validate *validator.Validate) error {
	np.Name = core.CleanString(np.Name)
	np.Email = core.CleanString(np.Email)
	np.StudentName = core.CleanString(np.StudentName)
	np.Phone = core.CleanString(np.Phone)
	return validate.Struct(np)
}

type NewAlumnus struct {
	Name               string `json:"name" form:"name" validate:"required"`
	Email              string `json:"email" form:"email" validate:"required,simple_email"`
	GraduationYear     int    `json:"graduation_year" form:"graduation_year" validate:"required,min=1900,max=2100"`
	Profession         string `json:"profession" form:"profession"`
	MentorshipInterest bool   `json:"mentorship_interest" form:"-"` // checkbox, bound by the handler
}

func (na *NewAlumnus) Validate(validate *validator.Validate) error {
	na.Name = core.CleanString(na.Name)
	na.Email = core.CleanString(na.Email)
	na.Profession = core.CleanString(na.Profession)
	return validate.Struct(na)
}

type QueryFilter struct {
	Search string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
