package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"sort"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/coursehub/apps/api/di"
	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	openStore  func() (di.Store, error)
	openDB     func() (*sql.DB, error)
	mailSvc    core.EmailService
	validate   *validator.Validate
	translator ut.Translator
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  adduser -email EMAIL [-name NAME] [-role ROLE] [-cohort COHORT] [-admin] - create or update a user (password prompted)")
	fmt.Println("  resetpassword -email EMAIL - reset user's password")
	fmt.Println("  migrate COMMAND [ARGS...] - run database migrations (postgres backend)")
	fmt.Println("  seed - load the demo fixtures into an empty backend")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserName := addUserCmd.String("name", "", "The user's full name. Defaults to the email local part.")
	addUserRole := addUserCmd.String("role", "", "One of: free, member, master, both.")
	addUserCohort := addUserCmd.String("cohort", "", "The master cohort of the user.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Grant admin rights.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		opts := addUserOpts{
			email:   *addUserEmail,
			name:    *addUserName,
			role:    *addUserRole,
			isAdmin: *addUserAdmin,
			pwd:     pwd,
		}
		addUserCmd.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "cohort":
				opts.cohort = addUserCohort
			case "admin":
				opts.adminSet = true
			}
		})
		return cli.addUser(opts)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "seed":
		return cli.seed()

	default:
		cli.printUsage()
		return errHelp
	}
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

// fieldsError flattens validation errors into a single readable error.
func (cli *commandLine) fieldsError(err error) error {
	var fields map[string]string
	switch e := pkgerrors.Cause(err).(type) {
	case validator.ValidationErrors:
		fields = core.TranslateValidationErrors(e, cli.translator)
	case *core.ValidationError:
		fields = make(map[string]string, len(e.Fields))
		for _, f := range e.Fields {
			fields[f.Field] = f.Error
		}
	default:
		return err
	}

	msgs := make([]string, 0, len(fields))
	for fld, msg := range fields {
		msgs = append(msgs, fld+": "+msg)
	}
	sort.Strings(msgs)
	return errors.New(strings.Join(msgs, "; "))
}

func (cli *commandLine) userService() (*user.Service, error) {
	store, err := cli.openStore()
	if err != nil {
		return nil, err
	}
	return user.NewService(store.Users, cli.mailSvc), nil
}
