package echoapi

import (
	"sort"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ahmadkeyhan/qrcodile/core"
)

const contextTranslatorKey = "translator"

// localeMiddleware picks the translator of the request from its Accept-Language header
// (or the "lang" query param), falling back to defaultLocale.
func localeMiddleware(uni *ut.UniversalTranslator, defaultLocale string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			var locales []string
			if lang := ctx.QueryParam("lang"); lang != "" {
				locales = append(locales, lang)
			}
			locales = append(locales, acceptedLanguages(ctx.Request().Header.Get("Accept-Language"))...)

			trans := core.FindTranslator(uni, defaultLocale, locales...)
			ctx.Set(contextTranslatorKey, trans)
			ctx.Response().Header().Set("Content-Language", trans.Locale())
			return next(ctx)
		}
	}
}

// acceptedLanguages parses an Accept-Language header ("fa-IR,fa;q=0.9,en;q=0.8"), keeping its order.
func acceptedLanguages(header string) []string {
	if header == "" {
		return nil
	}
	parts := strings.Split(header, ",")
	langs := make([]string, 0, len(parts)*2)
	for _, part := range parts {
		lang := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if lang == "" || lang == "*" {
			continue
		}
		lang = strings.ToLower(strings.ReplaceAll(lang, "-", "_"))
		langs = append(langs, lang)
		if base := strings.SplitN(lang, "_", 2)[0]; base != lang {
			langs = append(langs, base)
		}
	}
	return langs
}

// contextTranslator returns the translator set by localeMiddleware; nil when none was set.
func contextTranslator(ctx echo.Context) ut.Translator {
	trans, _ := ctx.Get(contextTranslatorKey).(ut.Translator)
	return trans
}

// adminMiddleware only lets admins with any of the roles (when provided) through.
func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin && claimsHaveAnyRole(claims, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// menuManagerMiddleware only lets admins & staff through.
func menuManagerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		if claims.CanManageMenu() {
			return next(ctx)
		}
		return errHttpForbidden
	}
}

func claimsHaveAnyRole(claims Claims, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	owned := append([]string{}, claims.Roles...)
	sort.Strings(owned)
	for _, role := range roles {
		if i := sort.SearchStrings(owned, role); i < len(owned) && owned[i] == role {
			return true
		}
	}
	return false
}
