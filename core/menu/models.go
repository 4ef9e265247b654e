package menu

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/ahmadkeyhan/qrcodile/core"
	"github.com/ahmadkeyhan/qrcodile/core/category"
	"github.com/ahmadkeyhan/qrcodile/core/ordering"
)

// PriceListItem prices one variant of a menu item (e.g. "small", "large").
type PriceListItem struct {
	SubItem string  `json:"sub_item" validate:"required,max=100"`
	Price   float64 `json:"price" validate:"gte=0"`
}

type MenuItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	IconName    string          `json:"icon_name"`
	Price       null.Float64    `json:"price"`
	PriceList   []PriceListItem `json:"price_list"`
	CategoryID  string          `json:"category_id"`
	Ingredients string          `json:"ingredients"`
	Image       string          `json:"image"`
	Order       int             `json:"order"`
	Available   bool            `json:"available"`
	CreatedAt   time.Time       `json:"created_at"` // UTC
	UpdatedAt   time.Time       `json:"updated_at"` // UTC
}

func (mi MenuItem) Entity() ordering.Entity {
	return ordering.Entity{ID: mi.ID, Name: mi.Name, GroupKey: mi.CategoryID, Order: mi.Order}
}

// NewMenuItem contains information needed to create a new MenuItem.
type NewMenuItem struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description" validate:"max=500"`
	IconName    string          `json:"icon_name" validate:"max=50"`
	Price       null.Float64    `json:"price"`
	PriceList   []PriceListItem `json:"price_list" validate:"omitempty,dive"`
	CategoryID  string          `json:"category_id" validate:"required,uuid"`
	Ingredients string          `json:"ingredients" validate:"max=500"`
	Image       string          `json:"image" validate:"omitempty,url"`
	Available   *bool           `json:"available"`
}

func (nmi *NewMenuItem) Validate(validate *validator.Validate) error {
	nmi.Name = core.CleanString(nmi.Name)
	nmi.Description = core.CleanString(nmi.Description)
	nmi.IconName = core.CleanString(nmi.IconName)
	nmi.CategoryID = core.CleanString(nmi.CategoryID)
	nmi.Ingredients = core.CleanString(nmi.Ingredients)
	nmi.Image = core.CleanString(nmi.Image)
	return validate.Struct(nmi)
}

// UpdateMenuItem defines what information may be provided to modify an existing MenuItem.
// Omitted fields keep their current value; changing CategoryID appends the item to its new category.
// Pricing is replaced as a whole when either Price or PriceList is provided.
type UpdateMenuItem struct {
	Name        string           `json:"name" validate:"required,max=100"`
	Description *string          `json:"description" validate:"omitempty,max=500"`
	IconName    *string          `json:"icon_name" validate:"omitempty,max=50"`
	Price       null.Float64     `json:"price"`
	PriceList   []PriceListItem  `json:"price_list" validate:"omitempty,dive"`
	CategoryID  string           `json:"category_id" validate:"required,uuid"`
	Ingredients *string          `json:"ingredients" validate:"omitempty,max=500"`
	Image       *string          `json:"image" validate:"omitempty,url"`
	Available   *bool            `json:"available"`
}

// Apply returns orig modified by the provided fields.
func (umi *UpdateMenuItem) Apply(orig MenuItem) MenuItem {
	item := orig
	item.Name = umi.Name
	item.CategoryID = umi.CategoryID
	if umi.Description != nil {
		item.Description = *umi.Description
	}
	if umi.IconName != nil {
		item.IconName = *umi.IconName
	}
	if umi.Price.Valid || umi.PriceList != nil {
		item.Price = umi.Price
		item.PriceList = umi.PriceList
	}
	if umi.Ingredients != nil {
		item.Ingredients = *umi.Ingredients
	}
	if umi.Image != nil {
		item.Image = *umi.Image
	}
	if umi.Available != nil {
		item.Available = *umi.Available
	}
	return item
}

func (umi *UpdateMenuItem) Validate(orig MenuItem, validate *validator.Validate) error {
	if name := core.CleanString(umi.Name); name != "" {
		umi.Name = name
	} else {
		umi.Name = orig.Name
	}
	if catID := core.CleanString(umi.CategoryID); catID != "" {
		umi.CategoryID = catID
	} else {
		umi.CategoryID = orig.CategoryID
	}
	for _, s := range []*string{umi.Description, umi.IconName, umi.Ingredients, umi.Image} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	if err := validate.Struct(umi); err != nil {
		return err
	}

	// the resulting item must still be priced
	merged := umi.Apply(orig)
	return validatePricing(merged.Price, merged.PriceList)
}

type SetAvailability struct {
	Available *bool `json:"available" validate:"required"`
}

func (sa SetAvailability) Validate(validate *validator.Validate) error { return validate.Struct(sa) }

type QueryFilter struct {
	CategoryID string `query:"category_id"`
	Available  *bool  `query:"available"`
	Search     string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.CategoryID = core.CleanString(qf.CategoryID)
	qf.Search = core.CleanString(qf.Search)
}

// Settings holds the title & description shown on top of the public menu.
type Settings struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updated_at"` // UTC; zero when never saved
}

func DefaultSettings() Settings {
	return Settings{
		Title:       "منوی کافه",
		Description: "مجموعه‌ای از نوشیدنی‌ها و خوراکی‌های ما را که با عشق و بهترین مواد اولیه درست شده‌اند، کاوش کنید.",
	}
}

type UpdateSettings struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

func (us *UpdateSettings) Validate(validate *validator.Validate) error {
	us.Title = core.CleanString(us.Title)
	us.Description = core.CleanString(us.Description)
	return validate.Struct(us)
}

// Section is a category of the public menu with its available items.
type Section struct {
	category.Category
	Items []MenuItem `json:"items"`
}

type Menu struct {
	Settings Settings  `json:"settings"`
	Sections []Section `json:"sections"`
}
