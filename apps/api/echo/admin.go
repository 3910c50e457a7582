package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/fmlibermann/website/core"
	"github.com/fmlibermann/website/core/admission"
	"github.com/fmlibermann/website/core/community"
	"github.com/fmlibermann/website/core/contact"
	"github.com/fmlibermann/website/core/export"
	"github.com/fmlibermann/website/core/feedback"
	"github.com/fmlibermann/website/core/newsletter"
	"github.com/fmlibermann/website/core/user"
)

var (
	inquiryColumns = []export.Column{
		{Name: "ID", Attr: "id"},
		{Name: "Tracking Code", Attr: "tracking_code"},
		{Name: "Student Name", Attr: "student_name"},
		{Name: "Date of Birth", Attr: "date_of_birth"},
		{Name: "Gender", Attr: "gender"},
		{Name: "Parent Name", Attr: "parent_name"},
		{Name: "Email", Attr: "email"},
		{Name: "Phone", Attr: "phone"},
		{Name: "Form Level", Attr: "form_level"},
		{Name: "Previous School", Attr: "previous_school"},
		{Name: "Last Grade", Attr: "last_grade"},
		{Name: "Message", Attr: "message"},
		{Name: "Status", Attr: "status"},
		{Name: "Submitted At", Attr: "created_at"},
	}
	contactColumns = []export.Column{
		{Name: "ID", Attr: "id"},
		{Name: "Name", Attr: "name"},
		{Name: "Email", Attr: "email"},
		{Name: "Message", Attr: "message"},
		{Name: "Submitted At", Attr: "created_at"},
	}
	parentColumns = []export.Column{
		{Name: "ID", Attr: "id"},
		{Name: "Name", Attr: "name"},
		{Name: "Email", Attr: "email"},
		{Name: "Student Name", Attr: "student_name"},
		{Name: "Phone", Attr: "phone"},
		{Name: "Volunteer Interest", Attr: "volunteer_interest"},
		{Name: "Registered At", Attr: "created_at"},
	}
	alumnusColumns = []export.Column{
		{Name: "ID", Attr: "id"},
		{Name: "Name", Attr: "name"},
		{Name: "Email", Attr: "email"},
		{Name: "Graduation Year", Attr: "graduation_year"},
		{Name: "Profession", Attr: "profession"},
		{Name: "Mentorship Interest", Attr: "mentorship_interest"},
		{Name: "Registered At", Attr: "created_at"},
	}
	subscriberColumns = []export.Column{
		{Name: "ID", Attr: "id"},
		{Name: "Email", Attr: "email"},
		{Name: "Subscribed At", Attr: "created_at"},
	}
)

type adminApi struct {
	auth          *authenticator
	logger        core.Logger
	validate      *validator.Validate
	userSvc       *user.Service
	admissionSvc  *admission.Service
	contactSvc    *contact.Service
	communitySvc  *community.Service
	feedbackSvc   *feedback.Service
	newsletterSvc *newsletter.Service
}

func registerAdminAPI(g *echo.Group, auth *authenticator, deps *Deps) {
	api := adminApi{
		auth:          auth,
		logger:        deps.Logger,
		validate:      deps.Validate,
		userSvc:       deps.UserSvc,
		admissionSvc:  deps.AdmissionSvc,
		contactSvc:    deps.ContactSvc,
		communitySvc:  deps.CommunitySvc,
		feedbackSvc:   deps.FeedbackSvc,
		newsletterSvc: deps.NewsletterSvc,
	}

	// un-authed endpoints
	g.POST("/login", api.login)

	// authed endpoints
	ag := g.Group("", auth.middleware(), adminMiddleware(api.userSvc))
	ag.GET("/dashboard", api.dashboard)

	ag.GET("/admissions", api.queryAdmissions)
	ag.GET("/admissions/:id", api.retrieveAdmission)
	ag.PUT("/admissions/:id/status", api.updateAdmissionStatus)
	ag.GET("/admissions/:id/documents/:slot", api.downloadDocument)

	ag.GET("/contacts", api.queryContacts)
	ag.GET("/parents", api.queryParents)
	ag.GET("/alumni", api.queryAlumni)
	ag.GET("/subscribers", api.querySubscribers)

	ag.GET("/feedback", api.queryFeedback)
	ag.POST("/feedback/:id/approve", api.approveFeedback)
	ag.DELETE("/feedback/:id", api.destroyFeedback)
}

type (
	LoginRequest struct {
		Username string `json:"username" form:"username" validate:"required"`
		Password string `json:"password" form:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	StatusRequest struct {
		Status string `json:"status" form:"status"`
	}

	StatusResponse struct {
		Response
		Inquiry admission.Inquiry `json:"inquiry"`
	}

	Dashboard struct {
		Admissions  int             `json:"admissions"`
		Contacts    int             `json:"contacts"`
		Parents     int             `json:"parents"`
		Alumni      int             `json:"alumni"`
		Subscribers int             `json:"subscribers"`
		Feedback    feedback.Counts `json:"feedback"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}

func (api *adminApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.userSvc.Authenticate(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		return err
	}
	token, err := api.auth.GenerateToken(usr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *adminApi) dashboard(ctx echo.Context) error {
	c := ctx.Request().Context()
	var (
		d   Dashboard
		err error
	)
	if d.Admissions, err = api.admissionSvc.Count(c); err != nil {
		return errors.Wrap(err, "counting admissions")
	}
	if d.Contacts, err = api.contactSvc.Count(c); err != nil {
		return errors.Wrap(err, "counting contacts")
	}
	if d.Parents, err = api.communitySvc.CountParents(c); err != nil {
		return errors.Wrap(err, "counting parents")
	}
	if d.Alumni, err = api.communitySvc.CountAlumni(c); err != nil {
		return errors.Wrap(err, "counting alumni")
	}
	if d.Subscribers, err = api.newsletterSvc.Count(c); err != nil {
		return errors.Wrap(err, "counting subscribers")
	}
	if d.Feedback, err = api.feedbackSvc.Count(c); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, d)
}

// list answers with records as JSON, or as a CSV or XLSX download named after name.
func list(ctx echo.Context, name string, records interface{}, cols []export.Column) error {
	format, err := exportFormat(ctx)
	if err != nil {
		return err
	}

	if format == "" {
		return ctx.JSON(http.StatusOK, records)
	}

	var buf bytes.Buffer
	contentType := export.CSVContentType
	if format == "xlsx" {
		contentType = export.XLSXContentType
		err = export.WriteXLSX(&buf, records, cols)
	} else {
		err = export.WriteCSV(&buf, records, cols)
	}
	if err != nil {
		return errors.Wrapf(err, "exporting %s", name)
	}

	ctx.Response().Header().Set(
		echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", export.Filename(name, format)),
	)
	return ctx.Blob(http.StatusOK, contentType, buf.Bytes())
}

func paramID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

func (api *adminApi) queryAdmissions(ctx echo.Context) error {
	var filter admission.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	var ordering Ordering
	ordering.Bind(ctx, "id", "student_name", "parent_name", "form_level", "status", "created_at")
	if len(ordering.Orderings) == 0 {
		ordering.Orderings = []core.DBOrdering{{Field: "created_at"}} // newest first
	}

	inqs, err := api.admissionSvc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying admissions")
	}
	if inqs == nil {
		inqs = []admission.Inquiry{}
	}
	return list(ctx, "admissions", inqs, inquiryColumns)
}

func (api *adminApi) retrieveAdmission(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	inq, err := api.admissionSvc.Get(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, inq)
}

func (api *adminApi) updateAdmissionStatus(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data StatusRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusRequest")
	}

	res, err := api.admissionSvc.UpdateStatus(ctx.Request().Context(), id, data.Status)
	if err != nil {
		return err
	}

	resp := StatusResponse{Response: success(msgStatusUpdated), Inquiry: res.Inquiry}
	if res.NotifyErr != nil {
		api.logger.Warn("admission status updated without notification", res.NotifyErr, contextUser(ctx))
		resp.Response = warning(msgStatusNotMailed)
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *adminApi) downloadDocument(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	slot, ok := admission.ParseFileSlot(ctx.Param("slot"))
	if !ok {
		return errHttpNotFound
	}

	doc, err := api.admissionSvc.Document(ctx.Request().Context(), id, slot)
	if err != nil {
		return err
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Filename))
	return ctx.Blob(http.StatusOK, doc.ContentType, doc.Content)
}

func (api *adminApi) queryContacts(ctx echo.Context) error {
	var filter contact.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	var ordering Ordering
	ordering.Bind(ctx, "id", "name", "email", "created_at")

	contacts, err := api.contactSvc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return err
	}
	if contacts == nil {
		contacts = []contact.Contact{}
	}
	return list(ctx, "contacts", contacts, contactColumns)
}

func (api *adminApi) queryParents(ctx echo.Context) error {
	var filter community.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	var ordering Ordering
	ordering.Bind(ctx, "id", "name", "student_name", "created_at")

	parents, err := api.communitySvc.QueryParents(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return err
	}
	if parents == nil {
		parents = []community.Parent{}
	}
	return list(ctx, "parents", parents, parentColumns)
}

func (api *adminApi) queryAlumni(ctx echo.Context) error {
	var filter community.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	var ordering Ordering
	ordering.Bind(ctx, "id", "name", "graduation_year", "created_at")

	alumni, err := api.communitySvc.QueryAlumni(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return err
	}
	if alumni == nil {
		alumni = []community.Alumnus{}
	}
	return list(ctx, "alumni", alumni, alumnusColumns)
}

func (api *adminApi) querySubscribers(ctx echo.Context) error {
	var filter newsletter.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	var ordering Ordering
	ordering.Bind(ctx, "id", "email", "created_at")

	subs, err := api.newsletterSvc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return err
	}
	if subs == nil {
		subs = []newsletter.Subscriber{}
	}
	return list(ctx, "subscribers", subs, subscriberColumns)
}

func (api *adminApi) queryFeedback(ctx echo.Context) error {
	var filter feedback.QueryFilter
	if s := ctx.QueryParam("approved"); s != "" {
		approved, err := strconv.ParseBool(s)
		if err != nil {
			return core.NewFieldError("approved", "approved must be true or false")
		}
		filter.Approved = &approved
	}
	var ordering Ordering
	ordering.Bind(ctx, "id", "rating", "created_at")
	if len(ordering.Orderings) == 0 {
		ordering.Orderings = []core.DBOrdering{{Field: "created_at"}} // newest first
	}

	fbs, err := api.feedbackSvc.QueryAll(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return err
	}
	if fbs == nil {
		fbs = []feedback.Feedback{}
	}
	return ctx.JSON(http.StatusOK, fbs)
}

func (api *adminApi) approveFeedback(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	fb, err := api.feedbackSvc.Approve(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, fb)
}

func (api *adminApi) destroyFeedback(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err = api.feedbackSvc.Delete(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
