package dig_container

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/dig"

	echoapi "github.com/ahmadkeyhan/qrcodile/apps/api/echo"
	"github.com/ahmadkeyhan/qrcodile/assets"
	"github.com/ahmadkeyhan/qrcodile/core"
	"github.com/ahmadkeyhan/qrcodile/core/category"
	"github.com/ahmadkeyhan/qrcodile/core/event"
	"github.com/ahmadkeyhan/qrcodile/core/menu"
	"github.com/ahmadkeyhan/qrcodile/core/ordering"
	"github.com/ahmadkeyhan/qrcodile/core/product"
	"github.com/ahmadkeyhan/qrcodile/core/qrcode"
	"github.com/ahmadkeyhan/qrcodile/core/user"
	emailsvc "github.com/ahmadkeyhan/qrcodile/services/email"
	logsvc "github.com/ahmadkeyhan/qrcodile/services/logger"
	metricsvc "github.com/ahmadkeyhan/qrcodile/services/metrics"
	"github.com/ahmadkeyhan/qrcodile/storage/database"
	inmemdb "github.com/ahmadkeyhan/qrcodile/storage/database/inmem"
	sqlxrepos "github.com/ahmadkeyhan/qrcodile/storage/database/sqlx"
)

const engineInMem = "inmem"

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// DBParam is the connection backing the repositories, closed on shutdown.
	DBParam struct {
		dig.In
		DB io.Closer `name:"db"`
	}

	repositories struct {
		dig.Out
		DB         io.Closer `name:"db"`
		Users      user.Repository
		Categories category.Repository
		MenuItems  menu.Repository
		Products   product.Repository
		Events     event.Repository
		QRCodes    qrcode.Repository
	}

	serverParams struct {
		dig.In
		Conf        *core.Config
		Logger      core.Logger
		Shutdown    chan os.Signal
		Validate    *validator.Validate
		Uni         *ut.UniversalTranslator
		UserSvc     user.ServiceInterface
		CategorySvc *category.Service
		MenuSvc     *menu.Service
		ProductSvc  *product.Service
		EventSvc    *event.Service
		QRCodeSvc   *qrcode.Service
		Notifier    ordering.Notifier
	}
)

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

// newRepositories sets up the database engine of the configuration & its repositories.
func newRepositories(conf *core.Config, loggerParam DBLoggerParam) repositories {
	if conf.Database.Engine == engineInMem {
		loggerParam.Logger.Warn("using the in-memory database: data is lost on shutdown")
		db := inmemdb.NewDB()
		return repositories{
			DB:         db,
			Users:      inmemdb.NewUserRepository(db),
			Categories: inmemdb.NewCategoryRepository(db),
			MenuItems:  inmemdb.NewMenuRepository(db),
			Products:   inmemdb.NewProductRepository(db),
			Events:     inmemdb.NewEventRepository(db),
			QRCodes:    inmemdb.NewQRCodeRepository(db),
		}
	}

	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(context.Background(), conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db, "up"); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal("setting up database", err)
	}
	return repositories{
		DB:         db,
		Users:      sqlxrepos.NewUserRepository(db),
		Categories: sqlxrepos.NewCategoryRepository(db),
		MenuItems:  sqlxrepos.NewMenuRepository(db),
		Products:   sqlxrepos.NewProductRepository(db),
		Events:     sqlxrepos.NewEventRepository(db),
		QRCodes:    sqlxrepos.NewQRCodeRepository(db),
	}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(conf, nil /* stdout */, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newEmailTemplates(conf *core.Config, logger core.Logger) *core.EmailTemplates {
	return core.ParseEmailTemplates(assets.FS, assets.EmailTemplatesDir, conf, logger)
}

// newValidator returns the validator & translators of every domain.
func newValidator(logger core.Logger) (*validator.Validate, *ut.UniversalTranslator) {
	validate := validator.New()
	uni := core.NewUniversalTranslator()

	core.InitValidators(validate, uni)
	user.InitValidators(validate, uni, logger)
	menu.InitValidators(validate, uni)
	return validate, uni
}

func newUserService(
	conf *core.Config,
	repo user.Repository,
	mailSvc core.EmailService,
	templates *core.EmailTemplates,
	logger core.Logger,
) user.ServiceInterface {
	return user.NewService(conf, repo, mailSvc, templates, logger)
}

func newMenuService(repo menu.Repository, categories *category.Service) *menu.Service {
	return menu.NewService(repo, categories)
}

func newReorderMetrics() *metricsvc.ReorderMetrics {
	return metricsvc.NewReorderMetrics(nil /* default registerer */)
}

// newNotifier counts & logs the outcome of every move.
func newNotifier(logger core.Logger, metrics *metricsvc.ReorderMetrics) ordering.Notifier {
	return ordering.Notifiers{metrics, logsvc.ReorderNotifier(logger)}
}

func newShutdownChannel() chan os.Signal {
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	return shutdown
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(p.Conf.Server.Address, p.Shutdown, &echoapi.Deps{
		Conf:        p.Conf,
		Logger:      p.Logger,
		Validate:    p.Validate,
		Uni:         p.Uni,
		UserSvc:     p.UserSvc,
		CategorySvc: p.CategorySvc,
		MenuSvc:     p.MenuSvc,
		ProductSvc:  p.ProductSvc,
		EventSvc:    p.EventSvc,
		QRCodeSvc:   p.QRCodeSvc,
		Notifier:    p.Notifier,
		Metrics:     promhttp.Handler(),
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRepositories))
	must(c.Provide(newEmailService))
	must(c.Provide(newEmailTemplates))
	must(c.Provide(newValidator))
	must(c.Provide(newUserService))
	must(c.Provide(category.NewService))
	must(c.Provide(newMenuService))
	must(c.Provide(product.NewService))
	must(c.Provide(event.NewService))
	must(c.Provide(qrcode.NewService))
	must(c.Provide(newReorderMetrics))
	must(c.Provide(newNotifier))
	must(c.Provide(newShutdownChannel))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
