package category

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/ahmadkeyhan/qrcodile/core/ordering"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = errors.New("category not found")
)

type (
	Repository interface {
		// CreateCategory appends cat to the end of the list.
		CreateCategory(ctx context.Context, cat Category) (Category, error)
		// QueryCategories returns every category sorted by order, then name.
		QueryCategories(ctx context.Context) ([]Category, error)
		GetCategory(ctx context.Context, id string) (Category, error)
		UpdateCategory(ctx context.Context, cat Category) (Category, error)
		// DeleteCategory deletes the category and its menu items atomically.
		DeleteCategory(ctx context.Context, id string) error
		// SetCategoryOrders writes every order or none; orders must only hold existing ids.
		SetCategoryOrders(ctx context.Context, orders ordering.Assignment) error
	}

	Service struct {
		repo Repository
	}
)

var _ ordering.Store = (*Service)(nil) // interface compliance check

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nc NewCategory) (Category, error) {
	now := NowFunc().UTC()
	cat, err := svc.repo.CreateCategory(ctx, Category{
		Name:        nc.Name,
		Description: nc.Description,
		IconName:    nc.IconName,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Category{}, errors.Wrap(err, "creating category")
	}
	return cat, nil
}

func (svc *Service) Query(ctx context.Context) ([]Category, error) {
	cats, err := svc.repo.QueryCategories(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying categories")
	}
	return cats, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Category, error) {
	return svc.repo.GetCategory(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateCategory) (Category, error) {
	cat := Category{ID: id, Name: uc.Name, UpdatedAt: NowFunc().UTC()}
	if uc.Description != nil {
		cat.Description = *uc.Description
	}
	if uc.IconName != nil {
		cat.IconName = *uc.IconName
	}
	return svc.repo.UpdateCategory(ctx, cat)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteCategory(ctx, id)
}

// LoadGroup loads the single list of categories.
func (svc *Service) LoadGroup(ctx context.Context, groupID string) ([]ordering.Entity, error) {
	if groupID != ordering.RootGroup {
		return nil, ErrNotFound
	}
	cats, err := svc.Query(ctx)
	if err != nil {
		return nil, err
	}
	entities := make([]ordering.Entity, 0, len(cats))
	for _, cat := range cats {
		entities = append(entities, cat.Entity())
	}
	return entities, nil
}

func (svc *Service) PersistOrder(ctx context.Context, groupID string, orders ordering.Assignment) error {
	if groupID != ordering.RootGroup {
		return ErrNotFound
	}
	return svc.repo.SetCategoryOrders(ctx, orders)
}
