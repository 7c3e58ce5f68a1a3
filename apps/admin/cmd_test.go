package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mygithubaccountn/EduPacee/core"
	"github.com/mygithubaccountn/EduPacee/core/academic"
	"github.com/mygithubaccountn/EduPacee/core/user"
	emailsvc "github.com/mygithubaccountn/EduPacee/services/email"
	logsvc "github.com/mygithubaccountn/EduPacee/services/logger"
	inmemdb "github.com/mygithubaccountn/EduPacee/storage/database/inmem"
	testutil "github.com/mygithubaccountn/EduPacee/tests"
)

const strongPwd = "Str0ng-Pass!"

type cliEnv struct {
	cli      *commandLine
	out      *bytes.Buffer
	usrRepo  user.Repository
	academic academic.Repository
}

func setup(t *testing.T) cliEnv {
	conf := &core.Config{AppName: "EduPace", SecretKey: "test-secret-key", PasswordResetTimeoutDelta: time.Hour}
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "TEST : ", log.LstdFlags), conf)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	academic.InitValidators(validate, translator)

	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	academicRepo := inmemdb.NewAcademicRepository(db)
	mailSvc, _ := emailsvc.NewConsoleServiceMock(conf, logger)

	out := new(bytes.Buffer)
	return cliEnv{
		cli: &commandLine{
			db:          &sqlx.DB{},
			usrRepo:     usrRepo,
			usrSvc:      user.NewService(conf, usrRepo, mailSvc),
			academicSvc: academic.NewService(academicRepo),
			validate:    validate,
			translator:  translator,
			out:         out,
		},
		out:      out,
		usrRepo:  usrRepo,
		academic: academicRepo,
	}
}

func mockPassword(pwd string) {
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			case tt.wantErrStr != "":
				if err == nil || err.Error() != tt.wantErrStr {
					t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
				}
			case err != nil:
				t.Errorf("cli.run() unexpected error = %v", err)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	env := setup(t)
	runCLITests(t, env.cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
	})
	assert.Contains(t, env.out.String(), "unlockcourses [-dry-run]")
}

func Test_commandLine_migrate(t *testing.T) {
	env := setup(t)

	var gotCmd string
	migrateFunc = func(db *sqlx.DB, command string, args ...string) error {
		gotCmd = command
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	}
	runCLITests(t, env.cli, tests)
	assert.Equal(t, "version", gotCmd)

	env.cli.db = nil
	runCLITests(t, env.cli, []cliTest{{name: "in-memory store", args: []string{"migrate", "up"}, wantErr: errNoDatabase}})
}

func Test_commandLine_addUser(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	mockPassword(strongPwd)

	runCLITests(t, env.cli, []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no role", args: []string{"adduser", "-username", "alice", "-email", "alice@test.edu", "-external-id", "S100"}, wantErr: errHelp},
		{
			name:    "unknown role",
			args:    []string{"adduser", "-username", "alice", "-email", "alice@test.edu", "-role", "dean", "-external-id", "S100"},
			wantErr: errHelp,
		},
		{name: "student", args: []string{"adduser", "-username", "Alice", "-email", "alice@test.edu", "-role", "student", "-external-id", "S100", "-name", "Alice A."}},
		{name: "board", args: []string{"adduser", "-username", "bob", "-email", "bob@test.edu", "-role", "board", "-external-id", "B100"}},
	})

	alice, err := env.usrRepo.GetUser(ctx, user.GetFilter{Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", alice.Name)
	assert.NoError(t, alice.CheckPassword(strongPwd))
	role, err := env.cli.academicSvc.ResolveRole(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, academic.RoleStudent, role.Kind)
	assert.Contains(t, env.out.String(), `user "alice" saved with the student role`)

	bob, err := env.usrRepo.GetUser(ctx, user.GetFilter{Username: "bob"})
	require.NoError(t, err)
	assert.Equal(t, "bob", bob.Name)
	role, err = env.cli.academicSvc.ResolveRole(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, academic.RoleBoard, role.Kind)

	// an existing user is reactivated with the new password
	alice.IsActive = false
	_, err = env.usrRepo.UpdateUser(ctx, alice)
	require.NoError(t, err)
	mockPassword("An0ther-Pass!")
	require.NoError(t, env.cli.run([]string{"admin", "adduser", "-username", "alice", "-email", "alice@test.edu", "-role", "student", "-external-id", "S100"}))
	alice, err = env.usrRepo.GetUser(ctx, user.GetFilter{ID: alice.ID})
	require.NoError(t, err)
	assert.True(t, alice.IsActive)
	assert.NoError(t, alice.CheckPassword("An0ther-Pass!"))

	// one profile per user
	err = env.cli.run([]string{"admin", "adduser", "-username", "alice", "-email", "alice@test.edu", "-role", "teacher", "-external-id", "T100"})
	require.Error(t, err)
	assert.Equal(t, "kind: user already has the student role", env.cli.explain(err))

	mockPassword("password")
	err = env.cli.run([]string{"admin", "adduser", "-username", "carol", "-email", "carol@test.edu", "-role", "teacher", "-external-id", "T200"})
	require.Error(t, err)
	_, err = env.usrRepo.GetUser(ctx, user.GetFilter{Username: "carol"})
	assert.Equal(t, user.ErrNotFound, err)
}

func Test_commandLine_resetPassword(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "User", "awe", "awe@test.cd", "0ld-Passw0rd", true)

	tests := []struct {
		cliTest
		pwd string
	}{
		{cliTest: cliTest{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp}},
		{cliTest: cliTest{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp}},
		{cliTest: cliTest{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, wantErr: user.ErrNotFound}, pwd: strongPwd},
		{cliTest: cliTest{name: "weak password", args: []string{"resetpassword", "-username", usr.Username}, wantErrStr: "password"}, pwd: "lol"},
		{cliTest: cliTest{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}}, pwd: strongPwd},
		{cliTest: cliTest{name: "reset with email", args: []string{"resetpassword", "-username", "AWE@test.cd"}}, pwd: "An0ther-Pass!"},
	}
	for _, tt := range tests {
		mockPassword(tt.pwd)
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := env.cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Contains(t, env.cli.explain(err), tt.wantErrStr)
			default:
				require.NoError(t, err)
				refreshed, err := env.usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
				require.NoError(t, err)
				assert.NoError(t, refreshed.CheckPassword(tt.pwd))
			}
		})
	}
}

func Test_commandLine_unlockCourses(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	locked := testutil.CreateCourse(t, env.academic, "CS101", true)
	testutil.CreateCourse(t, env.academic, "CS102", true)
	testutil.CreateCourse(t, env.academic, "CS103", false)

	require.NoError(t, env.cli.run([]string{"admin", "unlockcourses", "-dry-run"}))
	assert.Equal(t, "2 course(s) would be unlocked\n", env.out.String())
	c, err := env.academic.GetCourse(ctx, locked.ID)
	require.NoError(t, err)
	assert.True(t, c.IsLocked)

	env.out.Reset()
	require.NoError(t, env.cli.run([]string{"admin", "unlockcourses"}))
	assert.Equal(t, "2 course(s) unlocked\n", env.out.String())
	c, err = env.academic.GetCourse(ctx, locked.ID)
	require.NoError(t, err)
	assert.False(t, c.IsLocked)

	env.out.Reset()
	require.NoError(t, env.cli.run([]string{"admin", "unlockcourses"}))
	assert.Equal(t, "0 course(s) unlocked\n", env.out.String())
}
