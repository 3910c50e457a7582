package newsletter

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fmlibermann/website/core"
)

type Subscriber struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type NewSubscriber struct {
	Email string `json:"email" form:"email" validate:"required,simple_email"`
}

func (ns *NewSubscriber) Validate(validate *validator.Validate) error {
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	return validate.Struct(ns)
}

type QueryFilter struct {
	Search string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
