package menu

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/ahmadkeyhan/qrcodile/core"
	"github.com/ahmadkeyhan/qrcodile/core/category"
	"github.com/ahmadkeyhan/qrcodile/core/ordering"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound         = errors.New("menu item not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrSettingsNotFound = errors.New("menu settings not found")
)

type (
	Repository interface {
		// CreateMenuItem appends item to the end of its category.
		// Returns ErrCategoryNotFound when the category does not exist.
		CreateMenuItem(ctx context.Context, item MenuItem) (MenuItem, error)
		// QueryMenuItems returns the matching items sorted by category, order and name.
		QueryMenuItems(ctx context.Context, filter *QueryFilter) ([]MenuItem, error)
		GetMenuItem(ctx context.Context, id string) (MenuItem, error)
		// UpdateMenuItem saves item; when its category changed, item is appended to the new category.
		UpdateMenuItem(ctx context.Context, item MenuItem) (MenuItem, error)
		SetMenuItemAvailability(ctx context.Context, id string, available bool, updatedAt time.Time) (MenuItem, error)
		DeleteMenuItem(ctx context.Context, id string) error
		// SetMenuItemOrders writes every order of the category or none.
		SetMenuItemOrders(ctx context.Context, categoryID string, orders ordering.Assignment) error

		GetMenuSettings(ctx context.Context) (Settings, error)
		SaveMenuSettings(ctx context.Context, settings Settings) (Settings, error)
	}

	// CategoryLister lists the categories of the public menu.
	CategoryLister interface {
		Query(ctx context.Context) ([]category.Category, error)
	}

	Service struct {
		repo       Repository
		categories CategoryLister
	}
)

var _ ordering.Store = (*Service)(nil) // interface compliance check

func NewService(repo Repository, categories CategoryLister) *Service {
	return &Service{repo: repo, categories: categories}
}

// trapCategoryNotFound reports a missing category as a field error.
func trapCategoryNotFound(err error) error {
	if errors.Cause(err) == ErrCategoryNotFound {
		return core.NewValidationError(err, core.FieldError{Field: "category_id", Error: err.Error()})
	}
	return err
}

func (svc *Service) Create(ctx context.Context, nmi NewMenuItem) (MenuItem, error) {
	now := NowFunc().UTC()
	available := true
	if nmi.Available != nil {
		available = *nmi.Available
	}
	item, err := svc.repo.CreateMenuItem(ctx, MenuItem{
		Name:        nmi.Name,
		Description: nmi.Description,
		IconName:    nmi.IconName,
		Price:       nmi.Price,
		PriceList:   nmi.PriceList,
		CategoryID:  nmi.CategoryID,
		Ingredients: nmi.Ingredients,
		Image:       nmi.Image,
		Available:   available,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return MenuItem{}, trapCategoryNotFound(err)
	}
	return item, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]MenuItem, error) {
	items, err := svc.repo.QueryMenuItems(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying menu items")
	}
	return items, nil
}

func (svc *Service) Get(ctx context.Context, id string) (MenuItem, error) {
	return svc.repo.GetMenuItem(ctx, id)
}

// Update saves the validated changes of orig.
func (svc *Service) Update(ctx context.Context, orig MenuItem, umi UpdateMenuItem) (MenuItem, error) {
	item := umi.Apply(orig)
	item.UpdatedAt = NowFunc().UTC()
	item, err := svc.repo.UpdateMenuItem(ctx, item)
	if err != nil {
		return MenuItem{}, trapCategoryNotFound(err)
	}
	return item, nil
}

func (svc *Service) SetAvailability(ctx context.Context, id string, available bool) (MenuItem, error) {
	return svc.repo.SetMenuItemAvailability(ctx, id, available, NowFunc().UTC())
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteMenuItem(ctx, id)
}

// LoadGroup loads the items of the category groupID.
func (svc *Service) LoadGroup(ctx context.Context, groupID string) ([]ordering.Entity, error) {
	if groupID == "" {
		return nil, ErrCategoryNotFound
	}
	items, err := svc.Query(ctx, &QueryFilter{CategoryID: groupID})
	if err != nil {
		return nil, err
	}
	entities := make([]ordering.Entity, 0, len(items))
	for _, item := range items {
		entities = append(entities, item.Entity())
	}
	return entities, nil
}

func (svc *Service) PersistOrder(ctx context.Context, groupID string, orders ordering.Assignment) error {
	if groupID == "" {
		return ErrCategoryNotFound
	}
	return svc.repo.SetMenuItemOrders(ctx, groupID, orders)
}

// GetSettings returns the saved settings, or the defaults when none were saved yet.
func (svc *Service) GetSettings(ctx context.Context) (Settings, error) {
	settings, err := svc.repo.GetMenuSettings(ctx)
	if err != nil {
		if errors.Cause(err) == ErrSettingsNotFound {
			return DefaultSettings(), nil
		}
		return Settings{}, errors.Wrap(err, "getting menu settings")
	}
	return settings, nil
}

func (svc *Service) UpdateSettings(ctx context.Context, us UpdateSettings) (Settings, error) {
	return svc.repo.SaveMenuSettings(ctx, Settings{
		Title:       us.Title,
		Description: us.Description,
		UpdatedAt:   NowFunc().UTC(),
	})
}

// PublicMenu returns every category, in order, with its available items.
func (svc *Service) PublicMenu(ctx context.Context) (Menu, error) {
	settings, err := svc.GetSettings(ctx)
	if err != nil {
		return Menu{}, err
	}
	cats, err := svc.categories.Query(ctx)
	if err != nil {
		return Menu{}, errors.Wrap(err, "querying categories")
	}
	available := true
	items, err := svc.Query(ctx, &QueryFilter{Available: &available})
	if err != nil {
		return Menu{}, err
	}

	byCategory := make(map[string][]MenuItem, len(cats))
	for _, item := range items {
		byCategory[item.CategoryID] = append(byCategory[item.CategoryID], item)
	}

	m := Menu{Settings: settings, Sections: make([]Section, 0, len(cats))}
	for _, cat := range cats {
		sectionItems := byCategory[cat.ID]
		if sectionItems == nil {
			sectionItems = []MenuItem{}
		}
		m.Sections = append(m.Sections, Section{Category: cat, Items: sectionItems})
	}
	return m, nil
}
