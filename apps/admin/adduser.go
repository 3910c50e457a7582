package main

import (
	"context"

	"github.com/fmlibermann/website/core/user"
)

// addUser creates an active admin account; the password policy applies.
func (cli *commandLine) addUser(uname, pwd string) error {
	usr, err := cli.usrSvc.Create(context.Background(), user.NewUser{Username: uname, Password: pwd})
	if err != nil {
		return err
	}
	cli.printf("admin %q created\n", usr.Username)
	return nil
}
