package main

import (
	"context"
	"fmt"

	"github.com/mygithubaccountn/EduPacee/storage/database"
)

var migrateFunc = database.Migrate // mockable

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoDatabase
	}
	return migrateFunc(cli.db, args[0], args[1:]...)
}

func (cli *commandLine) unlockCourses(dryRun bool) error {
	n, err := cli.academicSvc.UnlockAllCourses(context.Background(), dryRun)
	if err != nil {
		return err
	}
	if dryRun {
		fmt.Fprintf(cli.out, "%d course(s) would be unlocked\n", n)
	} else {
		fmt.Fprintf(cli.out, "%d course(s) unlocked\n", n)
	}
	return nil
}
