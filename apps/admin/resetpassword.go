package main

import (
	"context"

	"github.com/fmlibermann/website/core/user"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	usr, err := cli.usrSvc.SetPassword(context.Background(), user.SetUserPassword{Username: uname, Password: pwd})
	if err != nil {
		return err
	}
	cli.printf("password of %q reset\n", usr.Username)
	return nil
}
