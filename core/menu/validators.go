package menu

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/ahmadkeyhan/qrcodile/core"
)

var (
	pricingTag   = "pricing"
	pricingTexts = core.Texts{
		core.LocaleEn: "a price or a price list is required",
		core.LocaleFa: "قیمت یا فهرست قیمت الزامی است",
	}

	negativePriceTag   = "nonnegprice"
	negativePriceTexts = core.Texts{
		core.LocaleEn: "price cannot be negative",
		core.LocaleFa: "قیمت نمی‌تواند منفی باشد",
	}
)

// InitValidators registers the menu validators & their translations.
func InitValidators(validate *validator.Validate, uni *ut.UniversalTranslator) {
	validate.RegisterStructValidation(menuItemStructValidation, NewMenuItem{})
	core.RegisterCustomTranslation(validate, uni, pricingTag, pricingTexts)
	core.RegisterCustomTranslation(validate, uni, negativePriceTag, negativePriceTexts)

	// plain messages of core.ValidationError
	core.RegisterMessages(uni, map[string]core.Texts{
		pricingTexts[core.LocaleEn]:       pricingTexts,
		negativePriceTexts[core.LocaleEn]: negativePriceTexts,
		ErrCategoryNotFound.Error(): {
			core.LocaleEn: ErrCategoryNotFound.Error(),
			core.LocaleFa: "دسته‌بندی یافت نشد",
		},
	})
}

// menuItemStructValidation checks that a new item has a valid price or a price list.
func menuItemStructValidation(sl validator.StructLevel) {
	nmi, ok := sl.Current().Interface().(NewMenuItem)
	if !ok {
		return
	}
	if nmi.Price.Valid && nmi.Price.Float64 < 0 {
		sl.ReportError(nmi.Price, "price", "Price", negativePriceTag, "")
	}
	if !nmi.Price.Valid && len(nmi.PriceList) == 0 {
		sl.ReportError(nmi.Price, "price", "Price", pricingTag, "")
		sl.ReportError(nmi.PriceList, "price_list", "PriceList", pricingTag, "")
	}
}

// validatePricing applies the pricing rules to an updated item.
func validatePricing(price null.Float64, priceList []PriceListItem) error {
	if price.Valid && price.Float64 < 0 {
		return core.NewValidationError(nil, core.FieldError{Field: "price", Error: negativePriceTexts[core.LocaleEn]})
	}
	if !price.Valid && len(priceList) == 0 {
		return core.NewValidationError(nil,
			core.FieldError{Field: "price", Error: pricingTexts[core.LocaleEn]},
			core.FieldError{Field: "price_list", Error: pricingTexts[core.LocaleEn]},
		)
	}
	return nil
}
