package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/speakwell/academy/core"
	"github.com/speakwell/academy/core/account"
	"github.com/speakwell/academy/core/course"
	logsvc "github.com/speakwell/academy/services/logger"
	"github.com/speakwell/academy/storage/database"
)

var logger core.Logger

func main() {
	conf := core.NewConfig()

	stdLogger := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	rollbarLogger := logsvc.NewRollbarLogger(stdLogger, conf)
	rollbarLogger.Enable(!conf.Debug)
	logger = rollbarLogger

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	account.InitValidators(validate, translator)
	course.InitValidators(validate, translator)

	// set up DB
	var db *sqlx.DB
	if conf.Database.Engine != database.InMemory {
		var err error
		db, err = database.Open(conf)
		errAndDie(err)
		defer db.Close()
		errAndDie(db.Ping())
	}

	// start CLI
	cli := newCommandLine(conf, db, validate, logger, os.Stdout)
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("\nerror: %s\n", err), err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
