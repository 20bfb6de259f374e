package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coursehub/apps/api/di"
	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/account"
	"github.com/trezcool/coursehub/core/program"
	"github.com/trezcool/coursehub/core/review"
	"github.com/trezcool/coursehub/core/user"
	appfs "github.com/trezcool/coursehub/fs"
	emailsvc "github.com/trezcool/coursehub/services/email"
	"github.com/trezcool/coursehub/storage/database/mockdb"
	"github.com/trezcool/coursehub/testutil"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

var _ io.Closer = nopCloser{}

func setup(t *testing.T) (*commandLine, di.Store) {
	conf := testutil.NewConfig()
	logger := new(testutil.Logger)

	db, err := mockdb.Open(mockdb.Options{})
	if err != nil {
		t.Fatalf("mockdb.Open(): %v", err)
	}
	store := di.Store{
		Programs: mockdb.NewProgramRepository(db),
		Lectures: mockdb.NewLectureRepository(db),
		Reviews:  mockdb.NewReviewRepository(db),
		Users:    mockdb.NewUserRepository(db),
		Posts:    mockdb.NewPostRepository(db),
		Waitlist: mockdb.NewWaitlistRepository(db),
		Closer:   nopCloser{},
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	user.LoadCommonPasswords(appfs.FS, appfs.CommonPasswords, logger)
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, conf.FrontendBaseURL, logger)
	emailsvc.ResetSentMessages()

	// start CLI
	return &commandLine{
		openStore:  func() (di.Store, error) { return store, nil },
		openDB:     func() (*sql.DB, error) { return nil, nil },
		mailSvc:    emailsvc.NewConsoleServiceMock(conf, logger),
		validate:   validate,
		translator: translator,
	}, store
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func (tt cliTest) check(t *testing.T, err error) bool {
	t.Helper()
	switch {
	case err == nil:
		if tt.wantErr != nil || tt.wantErrStr != "" {
			t.Errorf("cli.run() error = nil, wantErr %v %s", tt.wantErr, tt.wantErrStr)
		}
		return true
	case tt.wantErr != nil:
		if err != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
		}
	default:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
	return false
}

type pwdExtra struct {
	pwd string
}

func mockPassword(tt cliTest) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		if extra, ok := tt.extra.(pwdExtra); ok {
			return []byte(extra.pwd), nil
		}
		return nil, nil
	}
}

func Test_commandLine_help(t *testing.T) {
	cli, _ := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	migrateFunc = func(_ context.Context, _ *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
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
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "add_certificates", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	t.Run("non postgres backend", func(t *testing.T) {
		cli.openDB = func() (*sql.DB, error) { return nil, fmt.Errorf("migrations need the postgres backend, got \"mock\"") }
		tt := cliTest{wantErrStr: "migrations need the postgres backend, got \"mock\""}
		tt.check(t, cli.run([]string{"admin", "migrate", "up"}))
	})
}

func Test_commandLine_addUser(t *testing.T) {
	cli, store := setup(t)
	ctx := context.Background()
	existing := testutil.CreateUser(t, store.Users, "Grace Hopper", "grace@coursehub.test", "Old-Passw0rd!", account.RoleMember, false, "")

	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"adduser", "-email", "ada@coursehub.test"}, wantErr: errHelp},
		{
			name: "weak password", args: []string{"adduser", "-email", "ada@coursehub.test"}, extra: pwdExtra{pwd: "abc"},
			wantErrStr: "password: password must contain at least 8 characters",
		},
		{
			name: "unknown role", args: []string{"adduser", "-email", "ada@coursehub.test", "-role", "root"}, extra: pwdExtra{pwd: "An4lytical-Engine"},
			wantErrStr: "role: role must be one of: free, member, master, both",
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	t.Run("create", func(t *testing.T) {
		tt := cliTest{extra: pwdExtra{pwd: "An4lytical-Engine"}}
		mockPassword(tt)
		args := []string{"admin", "adduser", "-email", " ADA@coursehub.test", "-role", "master", "-cohort", "3", "-admin"}
		if !tt.check(t, cli.run(args)) {
			return
		}
		usr, err := store.Users.GetByEmail(ctx, "ada@coursehub.test")
		if err != nil {
			t.Fatalf("GetByEmail() failed: %v", err)
		}
		if got, want := usr.Viewer(), (account.Viewer{ID: usr.ID, Role: account.RoleMaster, IsAdmin: true, Cohort: "3"}); got != want {
			t.Errorf("Viewer() = %v, want %v", got, want)
		}
		if usr.Name != "ada" {
			t.Errorf("Name = %q, want %q", usr.Name, "ada")
		}
		if err = usr.CheckPassword("An4lytical-Engine"); err != nil {
			t.Errorf("CheckPassword() failed: %v", err)
		}
		if msgs := emailsvc.GetSentMessages(); len(msgs) != 1 || msgs[0].TemplateName != "welcome" {
			t.Errorf("sent messages = %v, want one welcome mail", msgs)
		}
	})

	t.Run("update", func(t *testing.T) {
		tt := cliTest{extra: pwdExtra{pwd: "New-Passw0rd!"}}
		mockPassword(tt)
		if !tt.check(t, cli.run([]string{"admin", "adduser", "-email", existing.Email, "-admin"})) {
			return
		}
		usr, err := store.Users.Get(ctx, existing.ID)
		if err != nil {
			t.Fatalf("Get() failed: %v", err)
		}
		if usr.Name != existing.Name || usr.Role != account.RoleMember || !usr.IsAdmin {
			t.Errorf("updated user = %+v", usr)
		}
		if err = usr.CheckPassword("New-Passw0rd!"); err != nil {
			t.Errorf("CheckPassword() failed: %v", err)
		}
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, store := setup(t)
	usr := testutil.CreateUser(t, store.Users, "Ada Lovelace", "ada@coursehub.test", "Old-Passw0rd!", account.RoleFree, false, "")

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol@coursehub.test"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@coursehub.test"}, extra: pwdExtra{pwd: "An4lytical-Engine"}, wantErr: user.ErrNotFound},
		{
			name: "common password", args: []string{"resetpassword", "-email", usr.Email}, extra: pwdExtra{pwd: "P@ssw0rd"},
			wantErrStr: "password: password is too common",
		},
		{name: "reset", args: []string{"resetpassword", "-email", usr.Email}, extra: pwdExtra{pwd: "An4lytical-Engine"}},
		{name: "reset with upper-cased email", args: []string{"resetpassword", "-email", "ADA@coursehub.test"}, extra: pwdExtra{pwd: "Difference-Engine2"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt)

		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(t, cli.run(args)) {
				return
			}
			refreshed, err := store.Users.Get(context.Background(), usr.ID)
			if err != nil {
				t.Fatalf("Get() failed: %v", err)
			}
			if err = refreshed.CheckPassword(tt.extra.(pwdExtra).pwd); err != nil {
				t.Error("failed to update new password")
			}
		})
	}
}

func Test_commandLine_seed(t *testing.T) {
	cli, store := setup(t)
	ctx := context.Background()

	if err := cli.run([]string{"admin", "seed"}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	fx, err := mockdb.LoadFixtures(appfs.FS, appfs.FixturesDir)
	if err != nil {
		t.Fatalf("LoadFixtures() failed: %v", err)
	}
	progs, err := store.Programs.List(ctx, program.QueryFilter{})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(progs) != len(fx.Programs) {
		t.Errorf("got %d programs, want %d", len(progs), len(fx.Programs))
	}
	lecs, err := store.Lectures.List(ctx)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(lecs) != len(fx.Lectures) {
		t.Errorf("got %d lectures, want %d", len(lecs), len(fx.Lectures))
	}
	progIDs := make(map[int]bool, len(progs))
	for _, prog := range progs {
		progIDs[prog.ID] = true
	}
	for _, lec := range lecs {
		if !progIDs[lec.ProgramID] {
			t.Errorf("lecture %q points to unknown program %d", lec.Title, lec.ProgramID)
		}
	}
	revs, err := store.Reviews.List(ctx)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(revs) != len(fx.Reviews) {
		t.Errorf("got %d reviews, want %d", len(revs), len(fx.Reviews))
	}
	checkLikes(t, ctx, store, revs)

	tt := cliTest{wantErr: errStoreNotEmpty}
	tt.check(t, cli.run([]string{"admin", "seed"}))
}

// checkLikes asserts the review likes point to seeded users.
func checkLikes(t *testing.T, ctx context.Context, store di.Store, revs []review.Review) {
	t.Helper()
	for _, rev := range revs {
		for _, id := range rev.Likes {
			if _, err := store.Users.Get(ctx, id); err != nil {
				t.Errorf("review %d liked by unknown user %d", rev.ID, id)
			}
		}
	}
}
