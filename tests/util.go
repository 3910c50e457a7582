// Package testutil builds the fixtures shared by service and API tests.
package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/fmlibermann/website/core"
	"github.com/fmlibermann/website/core/user"
	appfs "github.com/fmlibermann/website/fs"
	"github.com/fmlibermann/website/services/email"
	"github.com/fmlibermann/website/services/logger"
)

const SchoolEmail = "school@test.tz"

// Config is a TEST configuration that touches neither the environment nor the disk.
func Config() *core.Config {
	conf := &core.Config{
		Env:       "TEST",
		TestMode:  true,
		AppName:   "Test School",
		Build:     "test",
		SecretKey: "test-secret",
	}
	conf.Server.ShutdownTimeout = time.Second
	conf.Server.JWTExpirationDelta = time.Hour
	conf.Server.BodyLimit = "30M"
	conf.Database.Engine = "inmem"
	conf.Email.Backend = "console"
	conf.Email.DefaultFromEmail = "noreply@test.tz"
	conf.Email.SchoolEmail = SchoolEmail
	conf.Email.SendTimeout = 2 * time.Second
	conf.Storage.Backend = "local"
	conf.Admission.MaxAttachmentsSize = 25 * 1024 * 1024
	conf.Admission.BankName = "NMB"
	conf.Admission.AccountNumber = "444444444444"
	conf.Admission.FeeAmount = "TZS 150,000"
	conf.Admission.PaymentEmail = "payments@test.tz"
	conf.Logging.Level = "debug"
	return conf
}

func Validator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

// Mailer renders the embedded templates strictly and delivers to a recording mock.
func Mailer(t *testing.T, conf *core.Config) (*core.Mailer, *emailsvc.ConsoleServiceMock, *logsvc.LoggerMock) {
	t.Helper()
	templates, err := core.ParseEmailTemplates(appfs.FS, true /* strict */)
	if err != nil {
		t.Fatalf("ParseEmailTemplates() failed: %v", err)
	}
	mailSvc := emailsvc.NewConsoleServiceMock()
	logger := logsvc.NewLoggerMock()
	return core.NewMailer(mailSvc, templates, conf, logger), mailSvc, logger
}

func CreateUser(t *testing.T, repo user.Repository, uname, pwd string, isActive bool, createdAt ...time.Time) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Username:  uname,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}
