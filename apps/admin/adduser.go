package main

import (
	"context"
	"strings"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/account"
	"github.com/trezcool/coursehub/core/user"
)

type addUserOpts struct {
	email    string
	name     string
	role     string
	cohort   *string // nil keeps the current cohort
	isAdmin  bool
	adminSet bool
	pwd      string
}

// addUser updates or creates a user.User
func (cli *commandLine) addUser(opts addUserOpts) error {
	ctx := context.Background()
	svc, err := cli.userService()
	if err != nil {
		return err
	}

	email := core.CleanString(opts.email, true /* lower */)
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		return cli.createUser(ctx, svc, email, opts)
	}

	uu := user.UpdateUser{
		Name:            opts.name,
		Role:            account.Role(opts.role),
		Cohort:          opts.cohort,
		Password:        opts.pwd,
		PasswordConfirm: opts.pwd,
	}
	if opts.adminSet {
		uu.IsAdmin = &opts.isAdmin
	}
	if err = uu.Validate(ctx, usr, cli.validate, svc); err != nil {
		return cli.fieldsError(err)
	}
	_, err = svc.Update(ctx, usr, uu)
	return err
}

func (cli *commandLine) createUser(ctx context.Context, svc *user.Service, email string, opts addUserOpts) error {
	name := opts.name
	if core.CleanString(name) == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	nu := user.NewUser{
		Name:            name,
		Email:           email,
		Role:            account.Role(opts.role),
		IsAdmin:         opts.isAdmin,
		Password:        opts.pwd,
		PasswordConfirm: opts.pwd,
	}
	if opts.cohort != nil {
		nu.Cohort = *opts.cohort
	}
	if err := nu.Validate(ctx, cli.validate, svc); err != nil {
		return cli.fieldsError(err)
	}
	_, err := svc.Create(ctx, nu)
	return err
}
