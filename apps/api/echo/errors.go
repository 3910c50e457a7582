package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/fmlibermann/website/core"
	"github.com/fmlibermann/website/core/admission"
	"github.com/fmlibermann/website/core/feedback"
	"github.com/fmlibermann/website/core/newsletter"
	"github.com/fmlibermann/website/core/user"
)

var (
	errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpNotFound = echo.NewHTTPError(http.StatusNotFound, msgNotFound)
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var resp Response

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
			}
			msg, ok := origErr.Message.(string)
			if !ok {
				msg = http.StatusText(code)
			}
			resp = failure(msg, categoryDanger)
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			resp = validationFailure(core.TranslateValidationErrors(origErr, translator).(*core.ValidationError), true)
		case *core.ValidationError:
			code = http.StatusBadRequest
			resp = validationFailure(origErr, false)
		case *core.StorageError:
			code = http.StatusInternalServerError
			resp = failure(msgStorageError, categoryDanger)
			logger.Error(origErr.Op, err, contextUser(ctx))
		case *core.NotificationError:
			// only reached when nothing was saved before the email failed
			code = http.StatusInternalServerError
			resp = failure(msgSendError, categoryDanger)
			logger.Error(origErr.Op, err, contextUser(ctx))
		default:
			switch origErr {
			case user.ErrAuthenticationFailed:
				code = http.StatusUnauthorized
				resp = failure(msgLoginFailed, categoryDanger)
			case user.ErrAccountDeactivated:
				code = http.StatusForbidden
				resp = failure(msgAccountDeactivated, categoryDanger)
			case newsletter.ErrAlreadySubscribed:
				code = http.StatusBadRequest
				resp = failure(msgAlreadySubscribed, categoryWarning)
			case admission.ErrNotFound, admission.ErrDocumentNotFound, feedback.ErrNotFound, user.ErrNotFound:
				code = http.StatusNotFound
				resp = failure(msgNotFound, categoryDanger)
			default: // any other error is a server error
				code = http.StatusInternalServerError
				resp = failure(msgServerError, categoryDanger)
				logger.Error(http.StatusText(code), errors.WithStack(err), contextUser(ctx))

				// shutting down...
				if core.IsShutdown(err) && signalShutdown != nil {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug && code >= http.StatusInternalServerError {
			resp.Message = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, resp)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// validationFailure keeps every field error; the message is the first one,
// or the generic one when a required field is missing from a tagged form.
func validationFailure(vErr *core.ValidationError, tagged bool) Response {
	resp := failure(msgFillAllFields, categoryDanger)
	resp.Errors = make(map[string]string, len(vErr.Fields))
	for _, fErr := range vErr.Fields {
		resp.Errors[fErr.Field] = fErr.Error
	}

	if tagged {
		if vErrs, ok := vErr.Err.(validator.ValidationErrors); ok {
			for _, fe := range vErrs {
				if fe.Tag() == "required" {
					return resp
				}
			}
		}
	}
	if len(vErr.Fields) > 0 {
		resp.Message = vErr.Fields[0].Error
	} else if vErr.Err != nil {
		resp.Message = vErr.Error()
	}
	return resp
}
