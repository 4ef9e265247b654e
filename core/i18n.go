package core

import (
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/fa"
	ut "github.com/go-playground/universal-translator"
)

// Supported locales
const (
	LocaleEn = "en"
	LocaleFa = "fa"
)

// Texts holds the translations of a single message: {locale: text}.
// Texts may use "{0}", "{1}".. placeholders.
type Texts map[string]string

// NewUniversalTranslator returns a translator for every supported locale, falling back to English.
func NewUniversalTranslator() *ut.UniversalTranslator {
	_en := en.New()
	return ut.New(_en, _en, fa.New())
}

// RegisterMessages adds every message of msgs to the matching locale translators of uni.
func RegisterMessages(uni *ut.UniversalTranslator, msgs map[string]Texts, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	for key, texts := range msgs {
		for locale, text := range texts {
			if trans, ok := uni.GetTranslator(locale); ok {
				_ = trans.Add(key, text, ovrd)
			}
		}
	}
}

// Translate translates key, returning key itself when no translation is found.
func Translate(trans ut.Translator, key string, params ...string) string {
	if trans == nil {
		return key
	}
	s, err := trans.T(key, params...)
	if err != nil || s == "" {
		return key
	}
	return s
}

// FindTranslator returns the translator of the first supported locale, else the one of defaultLocale.
func FindTranslator(uni *ut.UniversalTranslator, defaultLocale string, locales ...string) ut.Translator {
	if trans, ok := uni.FindTranslator(locales...); ok {
		return trans
	}
	if trans, ok := uni.GetTranslator(defaultLocale); ok {
		return trans
	}
	return uni.GetFallback()
}
