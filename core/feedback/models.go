package feedback

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fmlibermann/website/core"
)

type Feedback struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Comment   string    `json:"comment"`
	Rating    int       `json:"rating"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type NewFeedback struct {
	Name    string `json:"name" form:"name" validate:"required"`
	Role    string `json:"role" form:"role" validate:"required"`
	Comment string `json:"comment" form:"comment" validate:"required"`
	Rating  int    `json:"rating" form:"rating" validate:"required,min=1,max=5"`
}

func (nf *NewFeedback) Validate(validate *validator.Validate) error {
	nf.Name = core.CleanString(nf.Name)
	nf.Role = core.CleanString(nf.Role)
	nf.Comment = core.CleanString(nf.Comment)
	return validate.Struct(nf)
}

// QueryFilter selects on moderation state; a nil Approved matches everything.
type QueryFilter struct {
	Approved *bool
}
