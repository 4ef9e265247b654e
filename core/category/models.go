package category

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ahmadkeyhan/qrcodile/core"
	"github.com/ahmadkeyhan/qrcodile/core/ordering"
)

type Category struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	IconName    string    `json:"icon_name" db:"icon_name"`
	Order       int       `json:"order" db:"sort_order"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (c Category) Entity() ordering.Entity {
	return ordering.Entity{ID: c.ID, Name: c.Name, GroupKey: ordering.RootGroup, Order: c.Order}
}

// NewCategory contains information needed to create a new Category.
type NewCategory struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	IconName    string `json:"icon_name" validate:"max=50"`
}

func (nc *NewCategory) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	nc.IconName = core.CleanString(nc.IconName)
	return validate.Struct(nc)
}

// UpdateCategory defines what information may be provided to modify an existing Category.
// Omitted fields keep their current value.
type UpdateCategory struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	IconName    *string `json:"icon_name" validate:"omitempty,max=50"`
}

func (uc *UpdateCategory) Validate(orig Category, validate *validator.Validate) error {
	if name := core.CleanString(uc.Name); name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}
	if uc.Description != nil {
		desc := core.CleanString(*uc.Description)
		uc.Description = &desc
	} else {
		uc.Description = &orig.Description
	}
	if uc.IconName != nil {
		icon := core.CleanString(*uc.IconName)
		uc.IconName = &icon
	} else {
		uc.IconName = &orig.IconName
	}
	return validate.Struct(uc)
}
