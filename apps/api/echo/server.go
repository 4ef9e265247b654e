package echoapi

import (
	"context"
	"net/http"
	"os"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/ahmadkeyhan/qrcodile/core"
	"github.com/ahmadkeyhan/qrcodile/core/category"
	"github.com/ahmadkeyhan/qrcodile/core/event"
	"github.com/ahmadkeyhan/qrcodile/core/menu"
	"github.com/ahmadkeyhan/qrcodile/core/ordering"
	"github.com/ahmadkeyhan/qrcodile/core/product"
	"github.com/ahmadkeyhan/qrcodile/core/qrcode"
	"github.com/ahmadkeyhan/qrcodile/core/user"
)

// Ordered collections
const (
	CollectionCategories = "categories"
	CollectionMenuItems  = "menu_items"
	CollectionProducts   = "products"
)

type (
	Deps struct {
		Conf        *core.Config
		Logger      core.Logger
		Validate    *validator.Validate
		Uni         *ut.UniversalTranslator
		UserSvc     user.ServiceInterface
		CategorySvc *category.Service
		MenuSvc     *menu.Service
		ProductSvc  *product.Service
		EventSvc    *event.Service
		QRCodeSvc   *qrcode.Service
		Notifier    ordering.Notifier // receives the outcome of every reorder; optional
		Metrics     http.Handler      // served at /metrics; optional
	}

	Server struct {
		address  string
		deps     *Deps
		app      *echo.Echo
		tokens   *TokenIssuer
		shutdown chan os.Signal
		errors   chan error

		categories *ordering.Board
		menuItems  *ordering.Board
		products   *ordering.Board
	}
)

// NewServer sets up the API; shutdown receives the signals that stop it (created when nil).
func NewServer(address string, shutdown chan os.Signal, deps *Deps) *Server {
	if shutdown == nil {
		shutdown = make(chan os.Signal, 1)
	}
	if deps.Logger == nil {
		deps.Logger = core.NopLogger{}
	}

	s := &Server{
		address:  address,
		deps:     deps,
		app:      echo.New(),
		tokens:   NewTokenIssuer(deps.Conf),
		shutdown: shutdown,
		errors:   make(chan error, 1),

		categories: ordering.NewBoard(CollectionCategories, deps.CategorySvc, deps.Notifier, deps.Logger),
		menuItems:  ordering.NewBoard(CollectionMenuItems, deps.MenuSvc, deps.Notifier, deps.Logger),
		products:   ordering.NewBoard(CollectionProducts, deps.ProductSvc, deps.Notifier, deps.Logger),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	core.RegisterMessages(s.deps.Uni, httpMessages)
	core.RegisterMessages(s.deps.Uni, orderingMessages)
	core.RegisterMessages(s.deps.Uni, userMessages)

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{conf.FrontendBaseURL},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderAcceptEncoding, "Accept-Language"},
	}))
	s.app.Use(localeMiddleware(s.deps.Uni, conf.DefaultLocale))

	s.app.GET("/", s.home)
	if s.deps.Metrics != nil {
		s.app.GET("/metrics", echo.WrapHandler(s.deps.Metrics))
	}

	v1 := s.app.Group("/v1")
	jwt := s.tokens.middleware()

	registerUserAPI(v1, jwt, s.tokens, s.deps.UserSvc, s.deps.Validate)
	registerCategoryAPI(v1, jwt, s.deps.CategorySvc, s.categories, s.menuItems, s.deps.Validate)
	registerMenuAPI(v1, jwt, s.deps.MenuSvc, s.menuItems, s.deps.Validate)
	registerProductAPI(v1, jwt, s.deps.ProductSvc, s.products, s.deps.Validate)
	registerEventAPI(v1, jwt, s.deps.EventSvc, s.deps.Validate)
	registerQRCodeAPI(v1, jwt, s.deps.QRCodeSvc, s.deps.Validate)
}

// Tokens returns the issuer of the JWTs accepted by the server.
func (s *Server) Tokens() *TokenIssuer {
	return s.tokens
}

// Start blocks until the server stops; failures are reported on Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// Shutdown stops the server gracefully, then waits for the reorders still being persisted.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.app.Shutdown(ctx)

	settled := make(chan struct{})
	go func() {
		for _, board := range []*ordering.Board{s.categories, s.menuItems, s.products} {
			board.Wait()
		}
		close(settled)
	}()
	select {
	case <-settled:
	case <-ctx.Done():
		if err == nil {
			err = errors.Wrap(ctx.Err(), "waiting for reorders")
		}
	}
	return err
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
