package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/ahmadkeyhan/qrcodile/core/category"
	"github.com/ahmadkeyhan/qrcodile/core/ordering"
)

type categoryRepository struct {
	db *DB
}

var _ category.Repository = (*categoryRepository)(nil) // interface compliance check

func NewCategoryRepository(db *DB) *categoryRepository {
	return &categoryRepository{db: db}
}

func (repo *categoryRepository) CreateCategory(_ context.Context, cat category.Category) (category.Category, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	cat.ID = uuid.New().String()
	cat.Order = len(repo.db.categories)
	repo.db.categories[cat.ID] = cat
	return cat, nil
}

func (repo *categoryRepository) QueryCategories(_ context.Context) ([]category.Category, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	cats := make([]category.Category, 0, len(repo.db.categories))
	for _, cat := range repo.db.categories {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].Order != cats[j].Order {
			return cats[i].Order < cats[j].Order
		}
		if cats[i].Name != cats[j].Name {
			return cats[i].Name < cats[j].Name
		}
		return cats[i].ID < cats[j].ID
	})
	return cats, nil
}

func (repo *categoryRepository) GetCategory(_ context.Context, id string) (category.Category, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if cat, ok := repo.db.categories[id]; ok {
		return cat, nil
	}
	return category.Category{}, category.ErrNotFound
}

func (repo *categoryRepository) UpdateCategory(_ context.Context, cat category.Category) (category.Category, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.categories[cat.ID]
	if !ok {
		return category.Category{}, category.ErrNotFound
	}
	orig.Name = cat.Name
	orig.Description = cat.Description
	orig.IconName = cat.IconName
	orig.UpdatedAt = cat.UpdatedAt
	repo.db.categories[cat.ID] = orig
	return orig, nil
}

func (repo *categoryRepository) DeleteCategory(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.categories[id]; !ok {
		return category.ErrNotFound
	}
	for itemID, item := range repo.db.menuItems {
		if item.CategoryID == id {
			delete(repo.db.menuItems, itemID)
		}
	}
	delete(repo.db.categories, id)
	return nil
}

func (repo *categoryRepository) SetCategoryOrders(_ context.Context, orders ordering.Assignment) error {
	repo.db.waitOrderWrite()
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if err := repo.db.takeOrderWriteErr(); err != nil {
		return err
	}
	err := checkOrders(orders, func(id string) bool {
		_, ok := repo.db.categories[id]
		return ok
	})
	if err != nil {
		return err
	}
	for id, order := range orders {
		cat := repo.db.categories[id]
		cat.Order = order
		repo.db.categories[id] = cat
	}
	return nil
}
