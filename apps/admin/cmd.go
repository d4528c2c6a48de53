package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/speakwell/academy/core"
	"github.com/speakwell/academy/core/account"
	"github.com/speakwell/academy/core/assessment"
	"github.com/speakwell/academy/core/course"
	emailsvc "github.com/speakwell/academy/services/email"
	inmemdb "github.com/speakwell/academy/storage/database/inmem"
	sqlxrepos "github.com/speakwell/academy/storage/database/sqlx"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db            *sqlx.DB // nil with the in-memory engine
	validate      *validator.Validate
	courseSvc     course.Service
	assessmentSvc assessment.Service
	accountSvc    account.Service
	out           io.Writer
}

func newCommandLine(conf *core.Config, db *sqlx.DB, validate *validator.Validate, logger core.Logger, out io.Writer) *commandLine {
	var (
		courseRepo     course.Repository
		assessmentRepo assessment.Repository
		accountRepo    account.Repository
	)
	if db == nil {
		mem := inmemdb.NewDB()
		courseRepo = inmemdb.NewCourseRepository(mem)
		assessmentRepo = inmemdb.NewAssessmentRepository(mem)
		accountRepo = inmemdb.NewProfileRepository(mem)
	} else {
		courseRepo = sqlxrepos.NewCourseRepository(db)
		assessmentRepo = sqlxrepos.NewAssessmentRepository(db)
		accountRepo = sqlxrepos.NewProfileRepository(db)
	}

	courseSvc := course.NewService(conf, courseRepo, validate, logger)
	return &commandLine{
		db:            db,
		validate:      validate,
		courseSvc:     courseSvc,
		assessmentSvc: assessment.NewService(conf, assessmentRepo, courseSvc, validate, emailsvc.NewConsoleService(conf, logger)),
		accountSvc:    account.NewService(accountRepo, validate),
		out:           out,
	}
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...] - run a migration command: up, down, status, version...")
	fmt.Fprintln(cli.out, "  importcourse -file FILE [-dryrun] - create or update a course from a YAML file")
	fmt.Fprintln(cli.out, "  preview -file FILE [-format text|json|html] - render a markdown lesson body")
	fmt.Fprintln(cli.out, "  stats - print catalog and learner numbers")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	importCmd := flag.NewFlagSet("importcourse", flag.ExitOnError)
	importFile := importCmd.String("file", "", "The course YAML file.")
	importDryRun := importCmd.Bool("dryrun", false, "Print the changes without saving them.")

	previewCmd := flag.NewFlagSet("preview", flag.ExitOnError)
	previewFile := previewCmd.String("file", "", "The markdown file, - for stdin.")
	previewFormat := previewCmd.String("format", "", "text, json or html. Defaults to text on a terminal, json otherwise.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "importcourse":
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importCourse(*importFile, *importDryRun)
	case "preview":
		if err := previewCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *previewFile == "" {
			previewCmd.Usage()
			return errHelp
		}
		return cli.preview(*previewFile, *previewFormat)
	case "stats":
		return cli.stats()
	default:
		cli.printUsage()
		return errHelp
	}
}
