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

	echoapi "github.com/speakwell/academy/apps/api/echo"
	"github.com/speakwell/academy/core"
	"github.com/speakwell/academy/core/account"
	"github.com/speakwell/academy/core/assessment"
	"github.com/speakwell/academy/core/course"
	emailsvc "github.com/speakwell/academy/services/email"
	logsvc "github.com/speakwell/academy/services/logger"
	"github.com/speakwell/academy/storage/database"
	inmemdb "github.com/speakwell/academy/storage/database/inmem"
	sqlxrepos "github.com/speakwell/academy/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type repositories struct {
	dig.Out
	Course     course.Repository
	Assessment assessment.Repository
	Account    account.Repository
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

// newDB returns nil when the in-memory engine is configured.
func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	if conf.Database.Engine == database.InMemory {
		loggerParam.Logger.Warn("using the in-memory database: data is lost on exit")
		return nil
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
	return db
}

func newRepositories(db *sqlx.DB) repositories {
	if db == nil {
		mem := inmemdb.NewDB()
		return repositories{
			Course:     inmemdb.NewCourseRepository(mem),
			Assessment: inmemdb.NewAssessmentRepository(mem),
			Account:    inmemdb.NewProfileRepository(mem),
		}
	}
	return repositories{
		Course:     sqlxrepos.NewCourseRepository(db),
		Assessment: sqlxrepos.NewAssessmentRepository(db),
		Account:    sqlxrepos.NewProfileRepository(db),
	}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newServer(
	conf *core.Config,
	logger core.Logger,
	courseSvc course.Service,
	assessmentSvc assessment.Service,
	accountSvc account.Service,
	validate *validator.Validate,
	translator ut.Translator,
) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		CourseSvc:     courseSvc,
		AssessmentSvc: assessmentSvc,
		AccountSvc:    accountSvc,
		Validate:      validate,
		Translator:    translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newRepositories))
	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(course.NewService))
	must(c.Provide(assessment.NewService))
	must(c.Provide(account.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
