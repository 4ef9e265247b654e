package main

import (
	"context"
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/ahmadkeyhan/qrcodile/assets"
	"github.com/ahmadkeyhan/qrcodile/core"
	"github.com/ahmadkeyhan/qrcodile/core/category"
	"github.com/ahmadkeyhan/qrcodile/core/menu"
	"github.com/ahmadkeyhan/qrcodile/core/user"
	emailsvc "github.com/ahmadkeyhan/qrcodile/services/email"
	logsvc "github.com/ahmadkeyhan/qrcodile/services/logger"
	"github.com/ahmadkeyhan/qrcodile/storage/database"
	sqlxrepos "github.com/ahmadkeyhan/qrcodile/storage/database/sqlx"
)

var stdLogger *log.Logger

func main() {
	stdLogger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(stdLogger, conf)

	// set up DB
	errAndDie(database.CreateIfNotExist(context.Background(), conf))
	db, err := database.Open(conf)
	errAndDie(err)

	// start CLI
	categorySvc := category.NewService(sqlxrepos.NewCategoryRepository(db))
	mailSvc := emailsvc.NewConsoleService(conf, nil /* stdout */, logger)
	templates := core.ParseEmailTemplates(assets.FS, assets.EmailTemplatesDir, conf, logger)
	cli := commandLine{
		usrSvc:      user.NewService(conf, sqlxrepos.NewUserRepository(db), mailSvc, templates, logger),
		categorySvc: categorySvc,
		menuSvc:     menu.NewService(sqlxrepos.NewMenuRepository(db), categorySvc),
		migrate:     migrateFunc(db),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			stdLogger.Printf("\nerror: %+v\n", err)
		}
		os.Exit(1)
	}
}

func migrateFunc(db *sqlx.DB) func(command string, args ...string) error {
	return func(command string, args ...string) error {
		return database.Migrate(db, command, args...)
	}
}

func errAndDie(err error) {
	if err != nil {
		stdLogger.Fatalf("%+v", err)
	}
}
