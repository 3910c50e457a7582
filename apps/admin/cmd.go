package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/fmlibermann/website/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db     *sql.DB
	usrSvc *user.Service
	out    io.Writer
}

func (cli *commandLine) printf(format string, a ...interface{}) {
	out := cli.out
	if out == nil {
		out = os.Stdout
	}
	_, _ = fmt.Fprintf(out, format, a...)
}

func (cli *commandLine) printUsage() {
	cli.printf("Usage:\n")
	cli.printf("  adduser -username USERNAME          - create an admin account\n")
	cli.printf("  resetpassword -username USERNAME    - reset an admin's password and re-activate the account\n")
	cli.printf("  migrate COMMAND [ARGS]              - run a goose migration command (up, down, status, ...)\n")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserUname := addUserCmd.String("username", "", "The admin's username. The password will be prompted next.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The admin's username. The password will be prompted next.")

	switch args[1] {
	case "adduser":
		pwd, err := cli.parseUserCmd(addUserCmd, addUserUname, args[2:])
		if err != nil {
			return err
		}
		return cli.addUser(*addUserUname, pwd)
	case "resetpassword":
		pwd, err := cli.parseUserCmd(resetPasswordCmd, resetPasswordUname, args[2:])
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordUname, pwd)
	case "migrate":
		if len(args) < 3 {
			cli.printf("Usage: migrate COMMAND [ARGS]\n")
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

// parseUserCmd parses the flags of cmd and prompts for the password.
func (cli *commandLine) parseUserCmd(cmd *flag.FlagSet, uname *string, args []string) (string, error) {
	if err := cmd.Parse(args); err != nil {
		return "", errHelp
	}
	if *uname == "" {
		cmd.Usage()
		return "", errHelp
	}
	cli.printf("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	cli.printf("\n")
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		cmd.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}
