package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ahmadkeyhan/qrcodile/core/menu"
	"github.com/ahmadkeyhan/qrcodile/core/ordering"
)

type menuRepository struct {
	db *DB
}

var _ menu.Repository = (*menuRepository)(nil) // interface compliance check

func NewMenuRepository(db *DB) *menuRepository {
	return &menuRepository{db: db}
}

// countItems returns the number of items in a category; db.mutex must be held.
func (repo *menuRepository) countItems(categoryID string) int {
	var n int
	for _, item := range repo.db.menuItems {
		if item.CategoryID == categoryID {
			n++
		}
	}
	return n
}

func copyItem(item menu.MenuItem) menu.MenuItem {
	if item.PriceList != nil {
		item.PriceList = append([]menu.PriceListItem{}, item.PriceList...)
	}
	return item
}

func (repo *menuRepository) CreateMenuItem(_ context.Context, item menu.MenuItem) (menu.MenuItem, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.categories[item.CategoryID]; !ok {
		return menu.MenuItem{}, menu.ErrCategoryNotFound
	}
	item.ID = uuid.New().String()
	item.Order = repo.countItems(item.CategoryID)
	repo.db.menuItems[item.ID] = copyItem(item)
	return item, nil
}

func (repo *menuRepository) QueryMenuItems(_ context.Context, filter *menu.QueryFilter) ([]menu.MenuItem, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	items := make([]menu.MenuItem, 0)
	for _, item := range repo.db.menuItems {
		if filter != nil {
			if filter.CategoryID != "" && item.CategoryID != filter.CategoryID {
				continue
			}
			if filter.Available != nil && item.Available != *filter.Available {
				continue
			}
			if filter.Search != "" && !strings.Contains(strings.ToLower(item.Name), strings.ToLower(filter.Search)) {
				continue
			}
		}
		items = append(items, copyItem(item))
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.CategoryID != b.CategoryID {
			return a.CategoryID < b.CategoryID
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	return items, nil
}

func (repo *menuRepository) GetMenuItem(_ context.Context, id string) (menu.MenuItem, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if item, ok := repo.db.menuItems[id]; ok {
		return copyItem(item), nil
	}
	return menu.MenuItem{}, menu.ErrNotFound
}

func (repo *menuRepository) UpdateMenuItem(_ context.Context, item menu.MenuItem) (menu.MenuItem, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.menuItems[item.ID]
	if !ok {
		return menu.MenuItem{}, menu.ErrNotFound
	}
	item.Order = orig.Order
	item.CreatedAt = orig.CreatedAt
	if item.CategoryID != orig.CategoryID {
		if _, ok := repo.db.categories[item.CategoryID]; !ok {
			return menu.MenuItem{}, menu.ErrCategoryNotFound
		}
		item.Order = repo.countItems(item.CategoryID)
	}
	repo.db.menuItems[item.ID] = copyItem(item)
	return item, nil
}

func (repo *menuRepository) SetMenuItemAvailability(_ context.Context, id string, available bool, updatedAt time.Time) (menu.MenuItem, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	item, ok := repo.db.menuItems[id]
	if !ok {
		return menu.MenuItem{}, menu.ErrNotFound
	}
	item.Available = available
	item.UpdatedAt = updatedAt
	repo.db.menuItems[id] = item
	return copyItem(item), nil
}

func (repo *menuRepository) DeleteMenuItem(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.menuItems[id]; !ok {
		return menu.ErrNotFound
	}
	delete(repo.db.menuItems, id)
	return nil
}

func (repo *menuRepository) SetMenuItemOrders(_ context.Context, categoryID string, orders ordering.Assignment) error {
	repo.db.waitOrderWrite()
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if err := repo.db.takeOrderWriteErr(); err != nil {
		return err
	}
	err := checkOrders(orders, func(id string) bool {
		item, ok := repo.db.menuItems[id]
		return ok && item.CategoryID == categoryID
	})
	if err != nil {
		return err
	}
	for id, order := range orders {
		item := repo.db.menuItems[id]
		item.Order = order
		repo.db.menuItems[id] = item
	}
	return nil
}

func (repo *menuRepository) GetMenuSettings(_ context.Context) (menu.Settings, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if repo.db.settings == nil {
		return menu.Settings{}, menu.ErrSettingsNotFound
	}
	return *repo.db.settings, nil
}

func (repo *menuRepository) SaveMenuSettings(_ context.Context, settings menu.Settings) (menu.Settings, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.settings = &settings
	return settings, nil
}
