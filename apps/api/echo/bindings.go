package echoapi

import (
	"mime/multipart"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/fmlibermann/website/core"
	"github.com/fmlibermann/website/core/admission"
)

const (
	orderingParam = "ordering"
	exportParam   = "export"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads the "ordering" query param, keeping allowed fields only.
func (ord *Ordering) Bind(ctx echo.Context, allowed ...string) {
	ord.Orderings = core.ParseOrdering(ctx.QueryParam(orderingParam), allowed...)
}

// exportFormat is "csv", "xlsx", or "" for a JSON listing.
func exportFormat(ctx echo.Context) (string, error) {
	switch f := strings.ToLower(ctx.QueryParam(exportParam)); f {
	case "", "csv", "xlsx":
		return f, nil
	default:
		return "", core.NewFieldError(exportParam, "export format must be csv or xlsx")
	}
}

// checkbox reads an HTML checkbox: any submitted value means checked.
func checkbox(ctx echo.Context, name string) bool {
	return ctx.FormValue(name) != ""
}

// bindInquiry reads an admission application from a multipart form.
// The returned closer releases the uploaded files.
func bindInquiry(ctx echo.Context) (admission.NewInquiry, func(), error) {
	var ni admission.NewInquiry
	if err := ctx.Bind(&ni); err != nil {
		return ni, func() {}, errors.Wrap(err, "binding to NewInquiry")
	}

	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	ni.Files = make(map[admission.FileSlot]admission.Upload, len(admission.FileSlots))
	for _, slot := range admission.FileSlots {
		fh, err := ctx.FormFile(string(slot))
		if err != nil {
			continue // missing slots are reported by validation
		}
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return ni, func() {}, errors.Wrapf(err, "opening %s", slot.Label())
		}
		opened = append(opened, f)
		ni.Files[slot] = admission.Upload{Filename: fh.Filename, Size: fh.Size, Content: f}
	}
	return ni, closeAll, nil
}
