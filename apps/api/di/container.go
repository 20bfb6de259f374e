// Package di wires the API dependencies with a dig.Container.
package di

import (
	"context"
	"io"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/coursehub/apps/api/echo"
	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/lecture"
	"github.com/trezcool/coursehub/core/post"
	"github.com/trezcool/coursehub/core/program"
	"github.com/trezcool/coursehub/core/review"
	"github.com/trezcool/coursehub/core/user"
	"github.com/trezcool/coursehub/core/waitlist"
	emailsvc "github.com/trezcool/coursehub/services/email"
	logsvc "github.com/trezcool/coursehub/services/logger"
	"github.com/trezcool/coursehub/storage/database"
	"github.com/trezcool/coursehub/storage/database/mockdb"
	"github.com/trezcool/coursehub/storage/database/sqlxdb"
	"github.com/trezcool/coursehub/storage/remote"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type StoreCloserParam struct {
	dig.In
	Closer io.Closer `name:"storeCloser"`
}

// Store holds the repositories of the configured data backend.
type Store struct {
	dig.Out

	Programs program.Repository
	Lectures lecture.Repository
	Reviews  review.Repository
	Users    user.Repository
	Posts    post.Repository
	Waitlist waitlist.Repository
	Closer   io.Closer `name:"storeCloser"`
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

var nopCloser = closerFunc(func() error { return nil })

// NewLogger returns a rollbar logger writing to stdout with the given prefix.
func NewLogger(conf *core.Config, prefix string, flags int) *logsvc.RollbarLogger {
	stdLogger := log.New(os.Stdout, prefix, flags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newLogger(conf *core.Config) core.Logger {
	return NewLogger(conf, "API : ", log.LstdFlags)
}

func newDBLogger(conf *core.Config) core.Logger {
	return NewLogger(conf, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
}

// OpenStore connects to the backend named by conf.Backend.
// The postgres database is created and migrated if needed.
func OpenStore(ctx context.Context, conf *core.Config) (Store, error) {
	switch conf.Backend {
	case core.BackendMock:
		db, err := mockdb.Open(mockdb.Options{
			MinLatency: conf.Mock.MinLatency,
			MaxLatency: conf.Mock.MaxLatency,
			Seed:       true,
		})
		if err != nil {
			return Store{}, errors.Wrap(err, "opening mock database")
		}
		return Store{
			Programs: mockdb.NewProgramRepository(db),
			Lectures: mockdb.NewLectureRepository(db),
			Reviews:  mockdb.NewReviewRepository(db),
			Users:    mockdb.NewUserRepository(db),
			Posts:    mockdb.NewPostRepository(db),
			Waitlist: mockdb.NewWaitlistRepository(db),
			Closer:   nopCloser,
		}, nil

	case core.BackendRemote:
		if conf.RecordService.BaseURL == "" {
			return Store{}, errors.New("remote backend needs a record service base URL")
		}
		client := remote.NewClient(conf)
		return Store{
			Programs: remote.NewProgramRepository(client),
			Lectures: remote.NewLectureRepository(client),
			Reviews:  remote.NewReviewRepository(client),
			Users:    remote.NewUserRepository(client),
			Posts:    remote.NewPostRepository(client),
			Waitlist: remote.NewWaitlistRepository(client),
			Closer:   nopCloser,
		}, nil

	case core.BackendPostgres:
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return Store{}, err
		}
		db, err := database.Open(conf)
		if err != nil {
			return Store{}, errors.Wrap(err, "opening database")
		}
		if err = database.Migrate(ctx, db.DB, "up"); err != nil {
			_ = db.Close()
			return Store{}, err
		}
		return Store{
			Programs: sqlxdb.NewProgramRepository(db),
			Lectures: sqlxdb.NewLectureRepository(db),
			Reviews:  sqlxdb.NewReviewRepository(db),
			Users:    sqlxdb.NewUserRepository(db),
			Posts:    sqlxdb.NewPostRepository(db),
			Waitlist: sqlxdb.NewWaitlistRepository(db),
			Closer:   db,
		}, nil
	}
	return Store{}, errors.Errorf("unknown backend %q", conf.Backend)
}

func newStore(conf *core.Config, loggerParam DBLoggerParam) Store {
	store, err := OpenStore(context.Background(), conf)
	if err != nil {
		loggerParam.Logger.Fatal("setting up store: "+err.Error(), err)
	}
	loggerParam.Logger.Info("using the " + conf.Backend + " backend")
	return store
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newTranslator() ut.Translator {
	return core.NewTranslator()
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStore))
	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(newTranslator))
	must(c.Provide(program.NewService, dig.As(new(program.ServiceInterface))))
	must(c.Provide(lecture.NewService, dig.As(new(lecture.ServiceInterface))))
	must(c.Provide(review.NewService, dig.As(new(review.ServiceInterface))))
	must(c.Provide(user.NewService, dig.As(new(user.ServiceInterface))))
	must(c.Provide(post.NewService, dig.As(new(post.ServiceInterface))))
	must(c.Provide(waitlist.NewService, dig.As(new(waitlist.ServiceInterface))))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
