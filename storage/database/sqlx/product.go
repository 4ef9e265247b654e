package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ahmadkeyhan/qrcodile/core"
	"github.com/ahmadkeyhan/qrcodile/core/ordering"
	"github.com/ahmadkeyhan/qrcodile/core/product"
)

const productColumns = `id, name, description, image, price, sort_order, created_at, updated_at`

type productRepository struct {
	db core.DB
}

var _ product.Repository = (*productRepository)(nil) // interface compliance check

func NewProductRepository(db core.DB) *productRepository {
	return &productRepository{db: db}
}

func (repo productRepository) CreateProduct(ctx context.Context, p product.Product) (product.Product, error) {
	p.ID = uuid.New().String()
	q := `INSERT INTO product (id, name, description, image, price, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, (SELECT COUNT(*) FROM product), $6, $7)
		RETURNING sort_order`
	err := repo.db.GetContext(ctx, &p.Order, q,
		p.ID, p.Name, p.Description, p.Image, p.Price, p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	if err != nil {
		return product.Product{}, errors.Wrap(err, "inserting product")
	}
	return p, nil
}

func (repo productRepository) QueryProducts(ctx context.Context) ([]product.Product, error) {
	products := make([]product.Product, 0)
	q := `SELECT ` + productColumns + ` FROM product ORDER BY sort_order, name, id`
	if err := repo.db.SelectContext(ctx, &products, q); err != nil {
		return nil, errors.Wrap(err, "selecting products")
	}
	return products, nil
}

func (repo productRepository) GetProduct(ctx context.Context, id string) (product.Product, error) {
	if !isUUID(id) {
		return product.Product{}, product.ErrNotFound
	}
	var p product.Product
	q := `SELECT ` + productColumns + ` FROM product WHERE id = $1`
	if err := repo.db.GetContext(ctx, &p, q, id); err != nil {
		return product.Product{}, trapNoRowsErr(err, product.ErrNotFound, "selecting product")
	}
	return p, nil
}

func (repo productRepository) UpdateProduct(ctx context.Context, p product.Product) (product.Product, error) {
	if !isUUID(p.ID) {
		return product.Product{}, product.ErrNotFound
	}
	var updated product.Product
	q := `UPDATE product SET name = $2, description = $3, image = $4, price = $5, updated_at = $6
		WHERE id = $1 RETURNING ` + productColumns
	err := repo.db.GetContext(ctx, &updated, q, p.ID, p.Name, p.Description, p.Image, p.Price, p.UpdatedAt.UTC())
	if err != nil {
		return product.Product{}, trapNoRowsErr(err, product.ErrNotFound, "updating product")
	}
	return updated, nil
}

func (repo productRepository) DeleteProduct(ctx context.Context, id string) error {
	if !isUUID(id) {
		return product.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM product WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting product")
	}
	return checkAffected(res, product.ErrNotFound)
}

func (repo productRepository) SetProductOrders(ctx context.Context, orders ordering.Assignment) error {
	return setOrders(ctx, repo.db, "product", "", orders)
}
