package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ahmadkeyhan/qrcodile/core"
	"github.com/ahmadkeyhan/qrcodile/core/user"
)

var cliRoles = map[string]string{
	"admin": user.RoleAdmin,
	"owner": user.RoleAdminOwner,
	"staff": user.RoleStaff,
}

// addUser updates or creates an active user.User with the given role.
func (cli *commandLine) addUser(name, uname, email, pwd, role string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	name = core.CleanString(name)

	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, uname)
	if errors.Cause(err) == user.ErrNotFound {
		usr, err = cli.usrSvc.GetByUsernameOrEmail(ctx, email)
	}
	switch {
	case errors.Cause(err) == user.ErrNotFound:
		if name == "" {
			name = uname
		}
		_, err = cli.usrSvc.Create(ctx, user.NewUser{
			Name:     name,
			Username: uname,
			Email:    email,
			Password: pwd,
			Roles:    []string{role},
		})
		return errors.Wrap(err, "creating user")
	case err != nil:
		return errors.Wrap(err, "getting user")
	}

	if name == "" {
		name = usr.Name
	}
	active := true
	_, err = cli.usrSvc.Update(ctx, usr, user.UpdateUser{
		Name:     name,
		Username: uname,
		Email:    email,
		IsActive: &active,
		Roles:    []string{role},
		Password: pwd,
	})
	return errors.Wrap(err, "updating user")
}
