package core

import (
	"reflect"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	alphaNumUnderTag   = "alphanum_"
	alphaNumUnderRegex = regexp.MustCompile(`^[\w\s]+$`)
	alphaNumUnderTexts = Texts{
		LocaleEn: "only alphanumeric characters and underscores are allowed",
		LocaleFa: "فقط حروف، اعداد و زیرخط مجاز است",
	}

	requiredTexts = Texts{
		LocaleEn: "this field is required",
		LocaleFa: "این فیلد الزامی است",
	}

	// validator only ships English defaults
	persianTexts = map[string]string{
		"email":    "{0} باید یک ایمیل معتبر باشد",
		"min":      "{0} باید حداقل {1} باشد",
		"max":      "{0} باید حداکثر {1} باشد",
		"gte":      "{0} باید بزرگتر یا مساوی {1} باشد",
		"gt":       "{0} باید بزرگتر از {1} باشد",
		"url":      "{0} باید یک نشانی اینترنتی معتبر باشد",
		"hexcolor": "{0} باید یک رنگ HEX معتبر باشد",
		"eqfield":  "{0} باید با {1} برابر باشد",
		"gtefield": "{0} باید بزرگتر یا مساوی {1} باشد",
		"uuid":     "{0} باید یک شناسه‌ی UUID معتبر باشد",
		"oneof":    "{0} باید یکی از [{1}] باشد",
		"unique":   "{0} نباید مقدار تکراری داشته باشد",
	}
)

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, uni *ut.UniversalTranslator) {
	if trans, ok := uni.GetTranslator(LocaleEn); ok {
		_ = en_translations.RegisterDefaultTranslations(validate, trans)
	}

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(alphaNumUnderTag, alphaNumUnderValidation)
	RegisterCustomTranslation(validate, uni, alphaNumUnderTag, alphaNumUnderTexts)

	RegisterCustomTranslation(validate, uni, "required", requiredTexts, true)
	RegisterCustomTranslation(validate, uni, "required_with", requiredTexts, true)
	for tag, text := range persianTexts {
		RegisterCustomTranslation(validate, uni, tag, Texts{LocaleFa: text})
	}
}

// RegisterCustomTranslation registers the translations of the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, uni *ut.UniversalTranslator, tag string, texts Texts, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	for locale, text := range texts {
		trans, ok := uni.GetTranslator(locale)
		if !ok {
			continue
		}
		text := text
		_ = validate.RegisterTranslation(
			tag, trans,
			func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
			func(t ut.Translator, fe validator.FieldError) string {
				s, _ := t.T(tag, fe.Field(), fe.Param())
				return s
			},
		)
	}
}

// TranslateValidationErrors maps every failed field to its translated message.
func TranslateValidationErrors(errs validator.ValidationErrors, trans ut.Translator) map[string]string {
	fldErrs := make(map[string]string, len(errs))
	for _, vErr := range errs {
		fldErrs[vErr.Field()] = vErr.Translate(trans)
	}
	return fldErrs
}

// Custom Global Validators

// alphaNumUnderValidation only allows alphanumeric characters and underscores.
func alphaNumUnderValidation(fl validator.FieldLevel) bool {
	return alphaNumUnderRegex.MatchString(fl.Field().String())
}
