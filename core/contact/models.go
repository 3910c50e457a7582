package contact

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fmlibermann/website/core"
)

type Contact struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type NewContact struct {
	Name    string `json:"name" form:"name" validate:"required"`
	Email   string `json:"email" form:"email" validate:"required,simple_email"`
	Message string `json:"message" form:"message" validate:"required"`
}

func (nc *NewContact) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Email = core.CleanString(nc.Email)
	nc.Message = core.CleanString(nc.Message)
	return validate.Struct(nc)
}

// VisitRequest asks for a visit of the school. It is emailed, not saved.
type VisitRequest struct {
	Name    string `json:"name" form:"name" validate:"required"`
	Email   string `json:"email" form:"email" validate:"required,simple_email"`
	Phone   string `json:"phone" form:"phone" validate:"required"`
	Date    string `json:"date" form:"date" validate:"required"`
	Message string `json:"message" form:"message"`
}

func (vr *VisitRequest) Validate(validate *validator.Validate) error {
	vr.Name = core.CleanString(vr.Name)
	vr.Email = core.CleanString(vr.Email)
	vr.Phone = core.CleanString(vr.Phone)
	vr.Date = core.CleanString(vr.Date)
	return validate.Struct(vr)
}

// VolunteerRequest is a volunteering sign-up. It is emailed, not saved.
type VolunteerRequest struct {
	Name     string `json:"name" form:"name" validate:"required"`
	Email    string `json:"email" form:"email" validate:"required,simple_email"`
	Phone    string `json:"phone" form:"phone" validate:"required"`
	Interest string `json:"interest" form:"interest" validate:"required"`
}

func (vr *VolunteerRequest) Validate(validate *validator.Validate) error {
	vr.Name = core.CleanString(vr.Name)
	vr.Email = core.CleanString(vr.Email)
	vr.Phone = core.CleanString(vr.Phone)
	vr.Interest = core.CleanString(vr.Interest)
	return validate.Struct(vr)
}

type QueryFilter struct {
	Search string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
