package main

import (
	"context"

	"github.com/trezcool/coursehub/storage/database"
)

var migrateFunc = database.Migrate // mockable

func (cli *commandLine) migrate(args []string) error {
	db, err := cli.openDB()
	if err != nil {
		return err
	}
	return migrateFunc(context.Background(), db, args[0], args[1:]...)
}
