package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
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

var (
	errUnauthorized       = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAccountDeactivated = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired     = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden      = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound       = echo.NewHTTPError(http.StatusNotFound, "not found")

	// not found errors of the core services
	notFoundErrors = []error{
		category.ErrNotFound,
		menu.ErrNotFound,
		menu.ErrCategoryNotFound,
		product.ErrNotFound,
		event.ErrNotFound,
		qrcode.ErrNotFound,
		user.ErrNotFound,
	}

	httpMessages = map[string]core.Texts{
		"user not authenticated":   {core.LocaleFa: "کاربر احراز هویت نشده است"},
		"refresh has expired":      {core.LocaleFa: "مهلت تمدید نشست به پایان رسیده است"},
		"permission denied":        {core.LocaleFa: "دسترسی مجاز نیست"},
		"not found":                {core.LocaleFa: "یافت نشد"},
		"missing or malformed jwt": {core.LocaleFa: "توکن ارسال نشده یا نامعتبر است"},
		category.ErrNotFound.Error(): {core.LocaleFa: "دسته‌بندی یافت نشد"},
		menu.ErrNotFound.Error():     {core.LocaleFa: "آیتم منو یافت نشد"},
		product.ErrNotFound.Error():  {core.LocaleFa: "محصول یافت نشد"},
		event.ErrNotFound.Error():    {core.LocaleFa: "رویداد یافت نشد"},
		qrcode.ErrNotFound.Error():   {core.LocaleFa: "کد QR یافت نشد"},
		user.ErrNotFound.Error():     {core.LocaleFa: "کاربر یافت نشد"},
		ordering.ErrMoveInFlight.Error(): {
			core.LocaleFa: "تغییر ترتیب دیگری در حال ذخیره است؛ کمی بعد دوباره تلاش کنید",
		},
		ordering.ErrNotLoaded.Error(): {core.LocaleFa: "ترتیب این گروه تغییر کرده است؛ دوباره تلاش کنید"},
	}
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// Messages are translated to the locale of the request.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}
		trans := contextTranslator(ctx)

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = translateMessage(trans, origErr.Message)
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = translateMessage(trans, origErr.Message)
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			message = core.TranslateValidationErrors(origErr, trans)
		case *core.ValidationError:
			code = http.StatusBadRequest
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = core.Translate(trans, fErr.Error)
				}
				message = fldErrs
			} else {
				message = core.Translate(trans, origErr.Error())
			}
		case *ordering.InvalidMoveError:
			code = http.StatusBadRequest
			message = core.Translate(trans, invalidMoveMessage)
		default:
			switch {
			case isNotFound(cause):
				code = http.StatusNotFound
				message = core.Translate(trans, cause.Error())
			case cause == ordering.ErrMoveInFlight, cause == ordering.ErrNotLoaded:
				code = http.StatusConflict
				message = core.Translate(trans, cause.Error())
			case cause == user.ErrInvalidCredentials:
				code = http.StatusBadRequest
				message = core.Translate(trans, cause.Error())
			case cause == user.ErrAccountDeactivated:
				code = http.StatusForbidden
				message = core.Translate(trans, cause.Error())
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				var usr user.User
				if claims, cErr := getContextClaims(ctx); cErr == nil {
					usr.ID = claims.Subject
					usr.Username = claims.Username
					usr.Email = claims.Email
				}
				logger.Error(msg, errors.Wrap(err, msg), usr)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

func translateMessage(trans ut.Translator, msg interface{}) interface{} {
	if s, ok := msg.(string); ok {
		return core.Translate(trans, s)
	}
	return msg
}

func isNotFound(err error) bool {
	for _, nf := range notFoundErrors {
		if err == nf {
			return true
		}
	}
	return false
}
