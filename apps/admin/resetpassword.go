package main

import (
	"context"

	"github.com/trezcool/coursehub/core/user"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	svc, err := cli.userService()
	if err != nil {
		return err
	}

	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	uu := user.UpdateUser{Password: pwd, PasswordConfirm: pwd}
	if err = uu.Validate(ctx, usr, cli.validate, svc); err != nil {
		return cli.fieldsError(err)
	}
	_, err = svc.SetPassword(ctx, usr, pwd)
	return err
}
