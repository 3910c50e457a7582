package main

import (
	"fmt"
	"os"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/fmlibermann/website/core"
	"github.com/fmlibermann/website/core/user"
	"github.com/fmlibermann/website/services/logger"
	"github.com/fmlibermann/website/storage/database"
	"github.com/fmlibermann/website/storage/database/sqlx"
)

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	logger := logsvc.NewZerolog(os.Stdout, "ADMIN", conf)

	if conf.Database.Engine != "postgres" {
		logger.Fatal().Msgf("the admin CLI needs the postgres engine, got %q", conf.Database.Engine)
	}

	// set up DB
	if err = database.CreateIfNotExist(conf); err != nil {
		logger.Fatal().Err(err).Msg("creating database")
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal().Err(err).Msg("opening database")
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		db:     db.DB,
		usrSvc: user.NewService(sqlxrepos.NewUserRepository(db), validate),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error().Msg(describe(err, translator))
		}
		os.Exit(1)
	}
}

// describe renders validation failures field by field.
func describe(err error, translator ut.Translator) string {
	var vErr *core.ValidationError
	if !errors.As(core.TranslateValidationErrors(errors.Cause(err), translator), &vErr) || len(vErr.Fields) == 0 {
		return err.Error()
	}
	msgs := make([]string, 0, len(vErr.Fields))
	for _, fld := range vErr.Fields {
		msgs = append(msgs, fld.Field+": "+fld.Error)
	}
	return strings.Join(msgs, "; ")
}
