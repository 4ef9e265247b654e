package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/ahmadkeyhan/qrcodile/core/ordering"
	"github.com/ahmadkeyhan/qrcodile/core/product"
)

type productRepository struct {
	db *DB
}

var _ product.Repository = (*productRepository)(nil) // interface compliance check

func NewProductRepository(db *DB) *productRepository {
	return &productRepository{db: db}
}

func (repo *productRepository) CreateProduct(_ context.Context, p product.Product) (product.Product, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p.ID = uuid.New().String()
	p.Order = len(repo.db.products)
	repo.db.products[p.ID] = p
	return p, nil
}

func (repo *productRepository) QueryProducts(_ context.Context) ([]product.Product, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	products := make([]product.Product, 0, len(repo.db.products))
	for _, p := range repo.db.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].Order != products[j].Order {
			return products[i].Order < products[j].Order
		}
		if products[i].Name != products[j].Name {
			return products[i].Name < products[j].Name
		}
		return products[i].ID < products[j].ID
	})
	return products, nil
}

func (repo *productRepository) GetProduct(_ context.Context, id string) (product.Product, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.products[id]; ok {
		return p, nil
	}
	return product.Product{}, product.ErrNotFound
}

func (repo *productRepository) UpdateProduct(_ context.Context, p product.Product) (product.Product, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.products[p.ID]
	if !ok {
		return product.Product{}, product.ErrNotFound
	}
	orig.Name = p.Name
	orig.Description = p.Description
	orig.Image = p.Image
	orig.Price = p.Price
	orig.UpdatedAt = p.UpdatedAt
	repo.db.products[p.ID] = orig
	return orig, nil
}

func (repo *productRepository) DeleteProduct(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.products[id]; !ok {
		return product.ErrNotFound
	}
	delete(repo.db.products, id)
	return nil
}

func (repo *productRepository) SetProductOrders(_ context.Context, orders ordering.Assignment) error {
	repo.db.waitOrderWrite()
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if err := repo.db.takeOrderWriteErr(); err != nil {
		return err
	}
	err := checkOrders(orders, func(id string) bool {
		_, ok := repo.db.products[id]
		return ok
	})
	if err != nil {
		return err
	}
	for id, order := range orders {
		p := repo.db.products[id]
		p.Order = order
		repo.db.products[id] = p
	}
	return nil
}
