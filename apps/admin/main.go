package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/apps/api/di"
	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/user"
	appfs "github.com/trezcool/coursehub/fs"
	emailsvc "github.com/trezcool/coursehub/services/email"
	"github.com/trezcool/coursehub/storage/database"
)

func main() {
	os.Exit(run())
}

func run() int {
	conf := core.NewConfig()
	logger := di.NewLogger(conf, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	defer logger.Close()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	user.LoadCommonPasswords(appfs.FS, appfs.CommonPasswords, logger)
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, conf.FrontendBaseURL, logger)

	var (
		store  *di.Store
		sqlDB  *sql.DB
		closed []func() error
	)
	defer func() {
		for _, closeFn := range closed {
			if err := closeFn(); err != nil {
				logger.Error("closing: "+err.Error(), err)
			}
		}
	}()

	// start CLI
	cli := commandLine{
		openStore: func() (di.Store, error) {
			if store == nil {
				s, err := di.OpenStore(context.Background(), conf)
				if err != nil {
					return di.Store{}, err
				}
				store = &s
				closed = append(closed, s.Closer.Close)
			}
			return *store, nil
		},
		openDB: func() (*sql.DB, error) {
			if conf.Backend != core.BackendPostgres {
				return nil, errors.Errorf("migrations need the %s backend, got %q", core.BackendPostgres, conf.Backend)
			}
			if sqlDB == nil {
				db, err := database.Open(conf)
				if err != nil {
					return nil, errors.Wrap(err, "opening database")
				}
				if err = db.Ping(); err != nil {
					_ = db.Close()
					return nil, errors.Wrap(err, "pinging database")
				}
				sqlDB = db.DB
				closed = append(closed, db.Close)
			}
			return sqlDB, nil
		},
		mailSvc:    emailsvc.NewConsoleService(conf, logger),
		validate:   validate,
		translator: translator,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("error: "+err.Error(), err)
		}
		return 1
	}
	return 0
}
