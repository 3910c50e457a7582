package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/fmlibermann/website/core"
	"github.com/fmlibermann/website/core/admission"
	"github.com/fmlibermann/website/core/community"
	"github.com/fmlibermann/website/core/contact"
	"github.com/fmlibermann/website/core/feedback"
	"github.com/fmlibermann/website/core/newsletter"
	"github.com/fmlibermann/website/core/user"
)

type (
	Deps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		UserSvc       *user.Service
		AdmissionSvc  *admission.Service
		ContactSvc    *contact.Service
		CommunitySvc  *community.Service
		FeedbackSvc   *feedback.Service
		NewsletterSvc *newsletter.Service
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		address string
		deps    *Deps
		app     *echo.Echo
		auth    *authenticator
	}
)

var _ Server = (*server)(nil)

// NewServer wires every route. signalShutdown is called whenever a handler hits a shutdown error.
func NewServer(address string, signalShutdown func(), deps *Deps) Server {
	s := &server{
		address: address,
		deps:    deps,
		app:     echo.New(),
		auth:    newAuthenticator(deps.Conf),
	}
	s.setup(signalShutdown)
	return s
}

func (s *server) setup(signalShutdown func()) {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if conf.Server.BodyLimit != "" {
		s.app.Use(middleware.BodyLimit(conf.Server.BodyLimit))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)
	registerPublicAPI(s.app.Group(""), s.deps)
	registerAdminAPI(s.app.Group("/admin"), s.auth, s.deps)
}

func (s *server) Start() error {
	return s.app.Start(s.address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

func (s *server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+"!")
}
