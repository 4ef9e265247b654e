// Package product manages the roastery products sold beside the menu.
package product

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/ahmadkeyhan/qrcodile/core"
	"github.com/ahmadkeyhan/qrcodile/core/ordering"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = errors.New("product not found")
)

type Product struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Image       string    `json:"image" db:"image"`
	Price       float64   `json:"price" db:"price"`
	Order       int       `json:"order" db:"sort_order"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (p Product) Entity() ordering.Entity {
	return ordering.Entity{ID: p.ID, Name: p.Name, GroupKey: ordering.RootGroup, Order: p.Order}
}

type NewProduct struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description string  `json:"description" validate:"max=1000"`
	Image       string  `json:"image" validate:"omitempty,url"`
	Price       float64 `json:"price" validate:"gte=0"`
}

func (np *NewProduct) Validate(validate *validator.Validate) error {
	np.Name = core.CleanString(np.Name)
	np.Description = core.CleanString(np.Description)
	np.Image = core.CleanString(np.Image)
	return validate.Struct(np)
}

// UpdateProduct defines what may be modified on an existing Product; omitted fields are kept.
type UpdateProduct struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description *string  `json:"description" validate:"omitempty,max=1000"`
	Image       *string  `json:"image" validate:"omitempty,url"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
}

func (up *UpdateProduct) Validate(orig Product, validate *validator.Validate) error {
	if name := core.CleanString(up.Name); name != "" {
		up.Name = name
	} else {
		up.Name = orig.Name
	}
	if up.Description == nil {
		up.Description = &orig.Description
	}
	if up.Image == nil {
		up.Image = &orig.Image
	} else {
		img := core.CleanString(*up.Image)
		up.Image = &img
	}
	if up.Price == nil {
		up.Price = &orig.Price
	}
	return validate.Struct(up)
}

type (
	Repository interface {
		// CreateProduct appends p to the end of the list.
		CreateProduct(ctx context.Context, p Product) (Product, error)
		// QueryProducts returns every product sorted by order, then name.
		QueryProducts(ctx context.Context) ([]Product, error)
		GetProduct(ctx context.Context, id string) (Product, error)
		UpdateProduct(ctx context.Context, p Product) (Product, error)
		DeleteProduct(ctx context.Context, id string) error
		// SetProductOrders writes every order or none.
		SetProductOrders(ctx context.Context, orders ordering.Assignment) error
	}

	Service struct {
		repo Repository
	}
)

var _ ordering.Store = (*Service)(nil) // interface compliance check

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, np NewProduct) (Product, error) {
	now := NowFunc().UTC()
	p, err := svc.repo.CreateProduct(ctx, Product{
		Name:        np.Name,
		Description: np.Description,
		Image:       np.Image,
		Price:       np.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Product{}, errors.Wrap(err, "creating product")
	}
	return p, nil
}

func (svc *Service) Query(ctx context.Context) ([]Product, error) {
	products, err := svc.repo.QueryProducts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying products")
	}
	return products, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Product, error) {
	return svc.repo.GetProduct(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, up UpdateProduct) (Product, error) {
	return svc.repo.UpdateProduct(ctx, Product{
		ID:          id,
		Name:        up.Name,
		Description: *up.Description,
		Image:       *up.Image,
		Price:       *up.Price,
		UpdatedAt:   NowFunc().UTC(),
	})
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteProduct(ctx, id)
}

func (svc *Service) LoadGroup(ctx context.Context, groupID string) ([]ordering.Entity, error) {
	if groupID != ordering.RootGroup {
		return nil, ErrNotFound
	}
	products, err := svc.Query(ctx)
	if err != nil {
		return nil, err
	}
	entities := make([]ordering.Entity, 0, len(products))
	for _, p := range products {
		entities = append(entities, p.Entity())
	}
	return entities, nil
}

func (svc *Service) PersistOrder(ctx context.Context, groupID string, orders ordering.Assignment) error {
	if groupID != ordering.RootGroup {
		return ErrNotFound
	}
	return svc.repo.SetProductOrders(ctx, orders)
}
