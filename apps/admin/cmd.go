package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/mygithubaccountn/EduPacee/core"
	"github.com/mygithubaccountn/EduPacee/core/academic"
	"github.com/mygithubaccountn/EduPacee/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp       = errors.New("help provided")
	errNoDatabase = errors.New("no database connection")
)

type commandLine struct {
	db          *sqlx.DB
	usrRepo     user.Repository
	usrSvc      user.Service
	academicSvc *academic.Service
	validate    *validator.Validate
	translator  ut.Translator
	out         io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME -email EMAIL -role student|teacher|board -external-id ID [-name NAME] [-detail DETAIL] - create a user with a role")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...] - run a goose migration command (up, down, status, redo, version...)")
	fmt.Fprintln(cli.out, "  unlockcourses [-dry-run] - unlock every locked course")
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserCmd.SetOutput(cli.out)
	addUserUname := addUserCmd.String("username", "", "The new user's username. The password will be prompted next.")
	addUserEmail := addUserCmd.String("email", "", "The new user's email.")
	addUserName := addUserCmd.String("name", "", "The new user's full name (defaults to the username).")
	addUserRole := addUserCmd.String("role", "", "One of student, teacher or board.")
	addUserExtID := addUserCmd.String("external-id", "", "The student ID or the employee ID.")
	addUserDetail := addUserCmd.String("detail", "", "The program, department or designation.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordCmd.SetOutput(cli.out)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	unlockCmd := flag.NewFlagSet("unlockcourses", flag.ContinueOnError)
	unlockCmd.SetOutput(cli.out)
	unlockDryRun := unlockCmd.Bool("dry-run", false, "Only report how many courses would be unlocked.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		kind, ok := parseRoleKind(*addUserRole)
		if *addUserUname == "" || *addUserEmail == "" || *addUserExtID == "" || !ok {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		name := *addUserName
		if name == "" {
			name = *addUserUname
		}
		nu := user.NewUser{Name: name, Username: *addUserUname, Email: *addUserEmail, Password: pwd, PasswordConfirm: pwd}
		pd := academic.ProfileData{Kind: kind, ExternalID: *addUserExtID, Detail: *addUserDetail}
		role, err := cli.addUser(nu, pd)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "user %q saved with the %s role\n", core.CleanString(*addUserUname, true), role.Kind)
		return nil

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "unlockcourses":
		if err := unlockCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.unlockCourses(*unlockDryRun)

	default:
		cli.printUsage()
		return errHelp
	}
}

func parseRoleKind(s string) (academic.RoleKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "student":
		return academic.RoleStudent, true
	case "teacher":
		return academic.RoleTeacher, true
	case "board", string(academic.RoleBoard):
		return academic.RoleBoard, true
	}
	return academic.RoleNone, false
}

// explain renders validation failures field by field.
func (cli *commandLine) explain(err error) string {
	switch e := pkgerrors.Cause(err).(type) {
	case validator.ValidationErrors:
		msgs := make([]string, 0, len(e))
		for _, fe := range e {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), fe.Translate(cli.translator)))
		}
		return strings.Join(msgs, "; ")
	case *core.ValidationError:
		return describeFields(e)
	}
	return err.Error()
}

func describeFields(err *core.ValidationError) string {
	if len(err.Fields) == 0 {
		return err.Error()
	}
	msgs := make([]string, 0, len(err.Fields))
	for _, f := range err.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.Field, f.Error))
	}
	return strings.Join(msgs, "; ")
}
