package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/mygithubaccountn/EduPacee/core"
	"github.com/mygithubaccountn/EduPacee/core/academic"
	"github.com/mygithubaccountn/EduPacee/core/user"
	appfs "github.com/mygithubaccountn/EduPacee/fs"
	emailsvc "github.com/mygithubaccountn/EduPacee/services/email"
	logsvc "github.com/mygithubaccountn/EduPacee/services/logger"
	"github.com/mygithubaccountn/EduPacee/storage/database"
	sqlxrepos "github.com/mygithubaccountn/EduPacee/storage/database/sqlx"
)

func main() {
	os.Exit(start())
}

func start() int {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	defer logger.Close()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	academic.InitValidators(validate, translator)
	user.LoadCommonPasswords(appfs.FS, appfs.CommonPasswords, logger)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Error(fmt.Sprintf("opening database: %v", err), err)
		return 1
	}
	defer func() { _ = db.Close() }()

	usrRepo := sqlxrepos.NewUserRepository(db)
	cli := commandLine{
		db:          db,
		usrRepo:     usrRepo,
		usrSvc:      user.NewService(conf, usrRepo, emailsvc.NewConsoleService(conf, os.Stdout, logger)),
		academicSvc: academic.NewService(sqlxrepos.NewAcademicRepository(db)),
		validate:    validate,
		translator:  translator,
		out:         os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Info(fmt.Sprintf("error: %s", cli.explain(err)))
		}
		return 1
	}
	return 0
}
