package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/fmlibermann/website/core"
	"github.com/fmlibermann/website/core/admission"
	"github.com/fmlibermann/website/core/community"
	"github.com/fmlibermann/website/core/contact"
	"github.com/fmlibermann/website/core/feedback"
	"github.com/fmlibermann/website/core/newsletter"
)

type publicApi struct {
	logger        core.Logger
	admissionSvc  *admission.Service
	contactSvc    *contact.Service
	communitySvc  *community.Service
	feedbackSvc   *feedback.Service
	newsletterSvc *newsletter.Service
}

func registerPublicAPI(g *echo.Group, deps *Deps) {
	api := publicApi{
		logger:        deps.Logger,
		admissionSvc:  deps.AdmissionSvc,
		contactSvc:    deps.ContactSvc,
		communitySvc:  deps.CommunitySvc,
		feedbackSvc:   deps.FeedbackSvc,
		newsletterSvc: deps.NewsletterSvc,
	}

	g.POST("/admissions", api.submitAdmission)
	g.POST("/contact", api.createContact)
	g.POST("/community/parents", api.registerParent)
	g.POST("/community/alumni", api.registerAlumnus)
	g.GET("/feedback", api.queryFeedback)
	g.POST("/feedback", api.createFeedback)
	g.POST("/subscribe", api.subscribe)
	g.POST("/volunteer", api.signUpVolunteer)
	g.POST("/visits", api.requestVisit)
}

// created answers a saved submission: a success, or a warning when err is a notification failure.
func (api *publicApi) created(ctx echo.Context, err error, msg, degradedMsg string) error {
	if err != nil {
		if !core.IsNotificationError(err) {
			return err
		}
		api.logger.Warn("submission saved without notification", err)
		return ctx.JSON(http.StatusCreated, warning(degradedMsg))
	}
	return ctx.JSON(http.StatusCreated, success(msg))
}

func (api *publicApi) submitAdmission(ctx echo.Context) error {
	ni, closeFiles, err := bindInquiry(ctx)
	defer closeFiles()
	if err != nil {
		return err
	}

	receipt, err := api.admissionSvc.Submit(ctx.Request().Context(), ni)
	if err != nil {
		return err
	}

	resp := success(msgAdmissionSubmitted)
	if receipt.NotifyErr != nil {
		api.logger.Warn("admission inquiry saved without notification", receipt.NotifyErr)
		resp = warning(msgAdmissionNotMailed)
	}
	resp.TrackingCode = receipt.Inquiry.TrackingCode
	return ctx.JSON(http.StatusCreated, resp)
}

func (api *publicApi) createContact(ctx echo.Context) error {
	var data contact.NewContact
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewContact")
	}
	_, err := api.contactSvc.Create(ctx.Request().Context(), data)
	return api.created(ctx, err, msgContactSent, msgSavedNotMailed)
}

func (api *publicApi) registerParent(ctx echo.Context) error {
	var data community.NewParent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewParent")
	}
	data.VolunteerInterest = data.VolunteerInterest || checkbox(ctx, "volunteer")
	_, err := api.communitySvc.RegisterParent(ctx.Request().Context(), data)
	return api.created(ctx, err, msgParentRegistered, msgSavedNotMailed)
}

func (api *publicApi) registerAlumnus(ctx echo.Context) error {
	var data community.NewAlumnus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAlumnus")
	}
	data.MentorshipInterest = data.MentorshipInterest || checkbox(ctx, "mentor")
	_, err := api.communitySvc.RegisterAlumnus(ctx.Request().Context(), data)
	return api.created(ctx, err, msgAlumnusRegistered, msgSavedNotMailed)
}

func (api *publicApi) queryFeedback(ctx echo.Context) error {
	fbs, err := api.feedbackSvc.QueryApproved(ctx.Request().Context())
	if err != nil {
		return err
	}
	if fbs == nil {
		fbs = []feedback.Feedback{}
	}
	return ctx.JSON(http.StatusOK, fbs)
}

func (api *publicApi) createFeedback(ctx echo.Context) error {
	var data feedback.NewFeedback
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFeedback")
	}
	_, err := api.feedbackSvc.Create(ctx.Request().Context(), data)
	return api.created(ctx, err, msgFeedbackSubmitted, msgSavedNotMailed)
}

func (api *publicApi) subscribe(ctx echo.Context) error {
	var data newsletter.NewSubscriber
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubscriber")
	}
	_, err := api.newsletterSvc.Subscribe(ctx.Request().Context(), data)
	return api.created(ctx, err, msgSubscribed, msgSavedNotMailed)
}

// signUpVolunteer and requestVisit save nothing, so a failed email fails the request.
func (api *publicApi) signUpVolunteer(ctx echo.Context) error {
	var data contact.VolunteerRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VolunteerRequest")
	}
	if err := api.contactSvc.SignUpVolunteer(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, success(msgVolunteerSignedUp))
}

func (api *publicApi) requestVisit(ctx echo.Context) error {
	var data contact.VisitRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VisitRequest")
	}
	if err := api.contactSvc.RequestVisit(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, success(msgVisitRequested))
}
