package main

import (
	"context"

	"github.com/mygithubaccountn/EduPacee/core"
	"github.com/mygithubaccountn/EduPacee/core/academic"
	"github.com/mygithubaccountn/EduPacee/core/user"
)

// addUser creates the user, or reactivates it and sets its password when the username
// or email is taken, then gives it the profile described by pd.
func (cli *commandLine) addUser(nu user.NewUser, pd academic.ProfileData) (academic.Role, error) {
	ctx := context.Background()
	if err := pd.Validate(cli.validate); err != nil {
		return academic.NoRole(), err
	}

	usr, err := cli.findUser(ctx, nu.Username, nu.Email)
	switch {
	case err == user.ErrNotFound:
		if err = nu.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
			return academic.NoRole(), err
		}
		if usr, err = cli.usrSvc.Create(ctx, nu); err != nil {
			return academic.NoRole(), err
		}
	case err != nil:
		return academic.NoRole(), err
	default:
		if err = checkPassword(nu.Password, usr); err != nil {
			return academic.NoRole(), err
		}
		usr.IsActive = true
		if usr, err = cli.usrSvc.SetPassword(ctx, usr, nu.Password); err != nil {
			return academic.NoRole(), err
		}
	}

	return cli.academicSvc.CreateProfile(ctx, usr.ID, pd)
}

func (cli *commandLine) findUser(ctx context.Context, uname, email string) (user.User, error) {
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Username: core.CleanString(uname, true /* lower */)})
	if err != user.ErrNotFound {
		return usr, err
	}
	return cli.usrRepo.GetUser(ctx, user.GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func checkPassword(pwd string, usr user.User) error {
	if tag := user.CheckPassword(pwd, usr.Name, usr.Username, usr.Email); tag != "" {
		return core.NewValidationError(nil, core.FieldError{Field: "password", Error: "password rejected (" + tag + ")"})
	}
	return nil
}
