package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof on the default mux
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/fmlibermann/website/apps/api/echo"
	"github.com/fmlibermann/website/core"
	"github.com/fmlibermann/website/core/admission"
	"github.com/fmlibermann/website/core/community"
	"github.com/fmlibermann/website/core/contact"
	"github.com/fmlibermann/website/core/feedback"
	"github.com/fmlibermann/website/core/newsletter"
	"github.com/fmlibermann/website/core/user"
	appfs "github.com/fmlibermann/website/fs"
	"github.com/fmlibermann/website/services/email"
	"github.com/fmlibermann/website/services/logger"
	"github.com/fmlibermann/website/storage/blob"
	"github.com/fmlibermann/website/storage/database"
	"github.com/fmlibermann/website/storage/database/inmem"
	"github.com/fmlibermann/website/storage/database/sqlx"
)

type repositories struct {
	user       user.Repository
	admission  admission.Repository
	contact    contact.Repository
	community  community.Repository
	feedback   feedback.Repository
	newsletter newsletter.Repository
	close      func() error
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	// set up loggers
	logger := logsvc.NewRollbarLogger(logsvc.NewZerolog(os.Stdout, "API", conf), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")

	dbLogger := logsvc.NewRollbarLogger(logsvc.NewZerolog(os.Stdout, "DB", conf), conf)

	// set up DB
	repos, err := setUpRepositories(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = repos.close(); err != nil {
			dbLogger.Error("closing database", err)
		}
	}()

	blobs, err := setUpBlobStore(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file storage: %v", err), err)
	}

	templates, err := core.ParseEmailTemplates(appfs.FS, conf.Debug /* strict */)
	if err != nil {
		logger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
	}
	mailer := core.NewMailer(newEmailService(conf), templates, conf, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := newValidator()

	deps := &echoapi.Deps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		UserSvc:       user.NewService(repos.user, validate),
		AdmissionSvc:  admission.NewService(repos.admission, blobs, mailer, conf, logger),
		ContactSvc:    contact.NewService(repos.contact, mailer, validate, conf),
		CommunitySvc:  community.NewService(repos.community, mailer, validate, conf),
		FeedbackSvc:   feedback.NewService(repos.feedback, mailer, validate, conf),
		NewsletterSvc: newsletter.NewService(repos.newsletter, mailer, validate, conf),
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	if conf.Server.DebugHost != "" {
		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()
	}

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(conf.Server.Address, func() { shutdown <- syscall.SIGTERM }, deps)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("API listening on " + conf.Server.Address)
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(fmt.Sprintf("server error: %v", err), err)
		}

	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Stop(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}

func setUpRepositories(conf *core.Config) (*repositories, error) {
	switch conf.Database.Engine {
	case "inmem":
		db := inmemdb.Open()
		return &repositories{
			user:       inmemdb.NewUserRepository(db),
			admission:  inmemdb.NewAdmissionRepository(db),
			contact:    inmemdb.NewContactRepository(db),
			community:  inmemdb.NewCommunityRepository(db),
			feedback:   inmemdb.NewFeedbackRepository(db),
			newsletter: inmemdb.NewNewsletterRepository(db),
			close:      func() error { return nil },
		}, nil
	case "postgres":
		db, err := setUpDB(conf)
		if err != nil {
			return nil, err
		}
		return &repositories{
			user:       sqlxrepos.NewUserRepository(db),
			admission:  sqlxrepos.NewAdmissionRepository(db),
			contact:    sqlxrepos.NewContactRepository(db),
			community:  sqlxrepos.NewCommunityRepository(db),
			feedback:   sqlxrepos.NewFeedbackRepository(db),
			newsletter: sqlxrepos.NewNewsletterRepository(db),
			close:      db.Close,
		}, nil
	default:
		return nil, errors.Errorf("unknown database engine %q", conf.Database.Engine)
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func setUpBlobStore(conf *core.Config) (core.BlobStore, error) {
	switch conf.Storage.Backend {
	case "local":
		dir := conf.Storage.LocalDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(conf.WorkDir, dir)
		}
		return blobstore.NewLocalStore(dir)
	case "s3":
		return blobstore.NewS3Store(conf)
	default:
		return nil, errors.Errorf("unknown storage backend %q", conf.Storage.Backend)
	}
}

func newEmailService(conf *core.Config) core.EmailService {
	switch conf.Email.Backend {
	case "sendgrid":
		return emailsvc.NewSendgridService(conf)
	case "smtp":
		return emailsvc.NewSMTPService(conf)
	default:
		return emailsvc.NewConsoleService(conf)
	}
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}
