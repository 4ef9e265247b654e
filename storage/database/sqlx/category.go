package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/ahmadkeyhan/qrcodile/core"
	"github.com/ahmadkeyhan/qrcodile/core/category"
	"github.com/ahmadkeyhan/qrcodile/core/ordering"
)

const categoryColumns = `id, name, description, icon_name, sort_order, created_at, updated_at`

type categoryRepository struct {
	db core.DB
}

var _ category.Repository = (*categoryRepository)(nil) // interface compliance check

func NewCategoryRepository(db core.DB) *categoryRepository {
	return &categoryRepository{db: db}
}

func (repo categoryRepository) CreateCategory(ctx context.Context, cat category.Category) (category.Category, error) {
	cat.ID = uuid.New().String()
	q := `INSERT INTO category (id, name, description, icon_name, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, (SELECT COUNT(*) FROM category), $5, $6)
		RETURNING sort_order`
	err := repo.db.GetContext(ctx, &cat.Order, q,
		cat.ID, cat.Name, cat.Description, cat.IconName, cat.CreatedAt.UTC(), cat.UpdatedAt.UTC())
	if err != nil {
		return category.Category{}, errors.Wrap(err, "inserting category")
	}
	return cat, nil
}

func (repo categoryRepository) QueryCategories(ctx context.Context) ([]category.Category, error) {
	cats := make([]category.Category, 0)
	q := `SELECT ` + categoryColumns + ` FROM category ORDER BY sort_order, name, id`
	if err := repo.db.SelectContext(ctx, &cats, q); err != nil {
		return nil, errors.Wrap(err, "selecting categories")
	}
	return cats, nil
}

func (repo categoryRepository) GetCategory(ctx context.Context, id string) (category.Category, error) {
	if !isUUID(id) {
		return category.Category{}, category.ErrNotFound
	}
	var cat category.Category
	q := `SELECT ` + categoryColumns + ` FROM category WHERE id = $1`
	if err := repo.db.GetContext(ctx, &cat, q, id); err != nil {
		return category.Category{}, trapNoRowsErr(err, category.ErrNotFound, "selecting category")
	}
	return cat, nil
}

func (repo categoryRepository) UpdateCategory(ctx context.Context, cat category.Category) (category.Category, error) {
	if !isUUID(cat.ID) {
		return category.Category{}, category.ErrNotFound
	}
	var updated category.Category
	q := `UPDATE category SET name = $2, description = $3, icon_name = $4, updated_at = $5
		WHERE id = $1 RETURNING ` + categoryColumns
	err := repo.db.GetContext(ctx, &updated, q, cat.ID, cat.Name, cat.Description, cat.IconName, cat.UpdatedAt.UTC())
	if err != nil {
		return category.Category{}, trapNoRowsErr(err, category.ErrNotFound, "updating category")
	}
	return updated, nil
}

func (repo categoryRepository) DeleteCategory(ctx context.Context, id string) error {
	if !isUUID(id) {
		return category.ErrNotFound
	}
	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM menu_item WHERE category_id = $1`, id); err != nil {
			return errors.Wrap(err, "deleting category menu items")
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM category WHERE id = $1`, id)
		if err != nil {
			return errors.Wrap(err, "deleting category")
		}
		return checkAffected(res, category.ErrNotFound)
	})
}

func (repo categoryRepository) SetCategoryOrders(ctx context.Context, orders ordering.Assignment) error {
	return setOrders(ctx, repo.db, "category", "", orders)
}
