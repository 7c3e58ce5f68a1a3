package dig_container

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/mygithubaccountn/EduPacee/apps/api/echo"
	"github.com/mygithubaccountn/EduPacee/core"
	"github.com/mygithubaccountn/EduPacee/core/academic"
	"github.com/mygithubaccountn/EduPacee/core/gradeimport"
	"github.com/mygithubaccountn/EduPacee/core/gradereport"
	"github.com/mygithubaccountn/EduPacee/core/outcome"
	"github.com/mygithubaccountn/EduPacee/core/user"
	emailsvc "github.com/mygithubaccountn/EduPacee/services/email"
	logsvc "github.com/mygithubaccountn/EduPacee/services/logger"
	"github.com/mygithubaccountn/EduPacee/storage/database"
	inmemdb "github.com/mygithubaccountn/EduPacee/storage/database/inmem"
	sqlxrepos "github.com/mygithubaccountn/EduPacee/storage/database/sqlx"
)

const engineInMemory = "inmem"

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// Storage holds the repositories of the configured database engine.
// DB is nil for the in-memory engine.
type Storage struct {
	dig.Out
	DB       *sqlx.DB
	Users    user.Repository
	Academic academic.Repository
}

type depsParam struct {
	dig.In
	Conf        *core.Config
	Logger      core.Logger
	Validate    *validator.Validate
	Translator  ut.Translator
	UserSvc     user.Service
	AcademicSvc *academic.Service
	OutcomeSvc  *outcome.Service
	Importer    *gradeimport.Importer
	Reports     *gradereport.Service
}

func newLogger(conf *core.Config) *logsvc.RollbarLogger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newAppLogger(logger *logsvc.RollbarLogger) core.Logger { return logger }

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newStorage(conf *core.Config, loggerParam DBLoggerParam) Storage {
	if conf.Database.Engine == engineInMemory {
		loggerParam.Logger.Warn("using the in-memory database: data is lost on exit")
		db := inmemdb.Open()
		return Storage{Users: inmemdb.NewUserRepository(db), Academic: inmemdb.NewAcademicRepository(db)}
	}

	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db, "up"); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return Storage{DB: db, Users: sqlxrepos.NewUserRepository(db), Academic: sqlxrepos.NewAcademicRepository(db)}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridAPIKey == "" {
		return emailsvc.NewConsoleService(conf, os.Stdout, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newOutcomeService(repo academic.Repository) *outcome.Service {
	return outcome.NewService(repo)
}

func newImporter(conf *core.Config, repo academic.Repository, mailSvc core.EmailService, logger core.Logger) *gradeimport.Importer {
	return gradeimport.NewImporter(conf, repo, mailSvc, logger)
}

func newReports(repo academic.Repository, users user.Service) *gradereport.Service {
	return gradereport.NewService(repo, users)
}

func newDeps(p depsParam) echoapi.Deps {
	return echoapi.Deps{
		Conf:        p.Conf,
		Logger:      p.Logger,
		Validate:    p.Validate,
		Translator:  p.Translator,
		UserSvc:     p.UserSvc,
		AcademicSvc: p.AcademicSvc,
		OutcomeSvc:  p.OutcomeSvc,
		Importer:    p.Importer,
		Reports:     p.Reports,
	}
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newAppLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStorage))
	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(user.NewService))
	must(c.Provide(academic.NewService))
	must(c.Provide(newOutcomeService))
	must(c.Provide(newImporter))
	must(c.Provide(newReports))
	must(c.Provide(newDeps))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
