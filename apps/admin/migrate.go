package main

import (
	"github.com/pkg/errors"
	"github.com/trezcool/goose"

	appfs "github.com/speakwell/academy/fs"
)

var (
	gooseRunFunc = goose.RunFS // mockable

	errNoSQLDatabase = errors.New("migrations need a SQL database engine")
)

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoSQLDatabase
	}
	if err := goose.SetDialect(cli.db.DriverName()); err != nil {
		return errors.Wrap(err, "setting migration dialect")
	}

	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], cli.db.DB, appfs.FS, "migrations", arguments...)
}
