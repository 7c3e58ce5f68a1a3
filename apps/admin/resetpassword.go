package main

import (
	"context"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		return err
	}
	if err = checkPassword(pwd, usr); err != nil {
		return err
	}
	_, err = cli.usrSvc.SetPassword(ctx, usr, pwd)
	return err
}
