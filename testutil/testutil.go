// Package testutil holds helpers shared by the tests of the app packages.
package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/account"
	"github.com/trezcool/coursehub/core/lecture"
	"github.com/trezcool/coursehub/core/program"
	"github.com/trezcool/coursehub/core/user"
)

// NewConfig loads the TEST configuration.
func NewConfig() *core.Config {
	if err := os.Setenv("ENV", "test"); err != nil {
		panic(err)
	}
	return core.NewConfig()
}

// Logger records the messages logged through it.
type Logger struct {
	mu       sync.Mutex
	Messages []string
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string) {
	l.mu.Lock()
	l.Messages = append(l.Messages, fmt.Sprintf("%s: %s", level, msg))
	l.mu.Unlock()
}

func (l *Logger) Debug(msg string, _ ...interface{}) { l.log("DEBUG", msg) }
func (l *Logger) Info(msg string, _ ...interface{})  { l.log("INFO", msg) }
func (l *Logger) Warn(msg string, _ ...interface{})  { l.log("WARN", msg) }
func (l *Logger) Error(msg string, _ ...interface{}) { l.log("ERROR", msg) }
func (l *Logger) Fatal(msg string, _ ...interface{}) { l.log("FATAL", msg) }

// Logged returns a copy of the logged messages.
func (l *Logger) Logged() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.Messages...)
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	role account.Role,
	isAdmin bool,
	cohort string,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsAdmin:   isAdmin,
		Cohort:    cohort,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
		usr.PasswordHash = hash
	}
	usr, err := repo.Create(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func CreateProgram(t *testing.T, repo program.Repository, slug string, typ program.Type, hasCommonCourse bool) program.Program {
	t.Helper()
	prog, err := repo.Create(context.Background(), program.Program{
		Slug:            slug,
		Title:           slug,
		Type:            typ,
		HasCommonCourse: hasCommonCourse,
		Tags:            []string{},
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("createProgram() failed: %v", err)
	}
	return prog
}

func CreateLecture(t *testing.T, repo lecture.Repository, programID int, title string, lvl lecture.Level, order int, cohort ...int) lecture.Lecture {
	t.Helper()
	lec := lecture.Lecture{
		ProgramID: programID,
		Title:     title,
		Level:     lvl,
		Order:     order,
		Content:   title + " content",
		VideoURL:  "https://videos.test/" + title,
		Tags:      []string{},
		CreatedAt: time.Now().UTC(),
	}
	if len(cohort) > 0 {
		lec.CohortNumber = &cohort[0]
	}
	lec, err := repo.Create(context.Background(), lec)
	if err != nil {
		t.Fatalf("createLecture() failed: %v", err)
	}
	return lec
}
