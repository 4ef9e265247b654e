package sqlxrepos

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ahmadkeyhan/qrcodile/core"
	"github.com/ahmadkeyhan/qrcodile/core/menu"
	"github.com/ahmadkeyhan/qrcodile/core/ordering"
)

const menuItemColumns = `id, name, description, icon_name, price, price_list, category_id,
	ingredients, image, sort_order, available, created_at, updated_at`

type menuItemRow struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	Description string         `db:"description"`
	IconName    string         `db:"icon_name"`
	Price       null.Float64   `db:"price"`
	PriceList   types.JSONText `db:"price_list"`
	CategoryID  string         `db:"category_id"`
	Ingredients string         `db:"ingredients"`
	Image       string         `db:"image"`
	Order       int            `db:"sort_order"`
	Available   bool           `db:"available"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func newMenuItemRow(item menu.MenuItem) (menuItemRow, error) {
	priceList := item.PriceList
	if priceList == nil {
		priceList = []menu.PriceListItem{}
	}
	data, err := json.Marshal(priceList)
	if err != nil {
		return menuItemRow{}, errors.Wrap(err, "encoding price list")
	}
	return menuItemRow{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		IconName:    item.IconName,
		Price:       item.Price,
		PriceList:   types.JSONText(data),
		CategoryID:  item.CategoryID,
		Ingredients: item.Ingredients,
		Image:       item.Image,
		Order:       item.Order,
		Available:   item.Available,
		CreatedAt:   item.CreatedAt.UTC(),
		UpdatedAt:   item.UpdatedAt.UTC(),
	}, nil
}

func (row menuItemRow) toMenuItem() (menu.MenuItem, error) {
	priceList := make([]menu.PriceListItem, 0)
	if len(row.PriceList) > 0 {
		if err := row.PriceList.Unmarshal(&priceList); err != nil {
			return menu.MenuItem{}, errors.Wrap(err, "decoding price list")
		}
	}
	return menu.MenuItem{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		IconName:    row.IconName,
		Price:       row.Price,
		PriceList:   priceList,
		CategoryID:  row.CategoryID,
		Ingredients: row.Ingredients,
		Image:       row.Image,
		Order:       row.Order,
		Available:   row.Available,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

type menuRepository struct {
	db core.DB
}

var _ menu.Repository = (*menuRepository)(nil) // interface compliance check

func NewMenuRepository(db core.DB) *menuRepository {
	return &menuRepository{db: db}
}

func (repo menuRepository) CreateMenuItem(ctx context.Context, item menu.MenuItem) (menu.MenuItem, error) {
	if !isUUID(item.CategoryID) {
		return menu.MenuItem{}, menu.ErrCategoryNotFound
	}
	item.ID = uuid.New().String()
	row, err := newMenuItemRow(item)
	if err != nil {
		return menu.MenuItem{}, err
	}

	q := `INSERT INTO menu_item (id, name, description, icon_name, price, price_list, category_id,
			ingredients, image, sort_order, available, created_at, updated_at)
		VALUES (:id, :name, :description, :icon_name, :price, :price_list, :category_id,
			:ingredients, :image, (SELECT COUNT(*) FROM menu_item WHERE category_id = :category_id),
			:available, :created_at, :updated_at)
		RETURNING sort_order`
	rows, err := sqlx.NamedQueryContext(ctx, repo.db, q, row)
	if err != nil {
		if pqErrorCode(err) == foreignKeyViolation {
			return menu.MenuItem{}, menu.ErrCategoryNotFound
		}
		return menu.MenuItem{}, errors.Wrap(err, "inserting menu item")
	}
	defer func() { _ = rows.Close() }()
	if rows.Next() {
		if err := rows.Scan(&item.Order); err != nil {
			return menu.MenuItem{}, errors.Wrap(err, "scanning menu item order")
		}
	}
	if err := rows.Err(); err != nil {
		if pqErrorCode(err) == foreignKeyViolation {
			return menu.MenuItem{}, menu.ErrCategoryNotFound
		}
		return menu.MenuItem{}, errors.Wrap(err, "inserting menu item")
	}
	return item, nil
}

func (repo menuRepository) selectItems(ctx context.Context, exec sqlx.QueryerContext, q string, args ...interface{}) ([]menu.MenuItem, error) {
	var rows []menuItemRow
	if err := sqlx.SelectContext(ctx, exec, &rows, q, args...); err != nil {
		return nil, err
	}
	items := make([]menu.MenuItem, 0, len(rows))
	for _, row := range rows {
		item, err := row.toMenuItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (repo menuRepository) QueryMenuItems(ctx context.Context, filter *menu.QueryFilter) ([]menu.MenuItem, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter != nil {
		if filter.CategoryID != "" {
			if !isUUID(filter.CategoryID) {
				return []menu.MenuItem{}, nil
			}
			where = append(where, "category_id = "+arg(filter.CategoryID))
		}
		if filter.Available != nil {
			where = append(where, "available = "+arg(*filter.Available))
		}
		if filter.Search != "" {
			where = append(where, "name ILIKE "+arg("%"+filter.Search+"%"))
		}
	}

	q := `SELECT ` + menuItemColumns + ` FROM menu_item`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY category_id, sort_order, name, id"

	items, err := repo.selectItems(ctx, repo.db, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "selecting menu items")
	}
	return items, nil
}

func (repo menuRepository) GetMenuItem(ctx context.Context, id string) (menu.MenuItem, error) {
	if !isUUID(id) {
		return menu.MenuItem{}, menu.ErrNotFound
	}
	var row menuItemRow
	q := `SELECT ` + menuItemColumns + ` FROM menu_item WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return menu.MenuItem{}, trapNoRowsErr(err, menu.ErrNotFound, "selecting menu item")
	}
	return row.toMenuItem()
}

func (repo menuRepository) UpdateMenuItem(ctx context.Context, item menu.MenuItem) (menu.MenuItem, error) {
	if !isUUID(item.ID) {
		return menu.MenuItem{}, menu.ErrNotFound
	}
	if !isUUID(item.CategoryID) {
		return menu.MenuItem{}, menu.ErrCategoryNotFound
	}

	var updated menu.MenuItem
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var orig menuItemRow
		q := `SELECT ` + menuItemColumns + ` FROM menu_item WHERE id = $1 FOR UPDATE`
		if err := tx.GetContext(ctx, &orig, q, item.ID); err != nil {
			return trapNoRowsErr(err, menu.ErrNotFound, "selecting menu item")
		}

		item.Order = orig.Order
		item.CreatedAt = orig.CreatedAt
		if item.CategoryID != orig.CategoryID {
			// append to the new category
			q := `SELECT COUNT(*) FROM menu_item WHERE category_id = $1`
			if err := tx.GetContext(ctx, &item.Order, q, item.CategoryID); err != nil {
				return errors.Wrap(err, "counting category menu items")
			}
		}

		row, err := newMenuItemRow(item)
		if err != nil {
			return err
		}
		q = `UPDATE menu_item SET name = :name, description = :description, icon_name = :icon_name,
				price = :price, price_list = :price_list, category_id = :category_id,
				ingredients = :ingredients, image = :image, sort_order = :sort_order,
				available = :available, updated_at = :updated_at
			WHERE id = :id`
		if _, err := tx.NamedExecContext(ctx, q, row); err != nil {
			if pqErrorCode(err) == foreignKeyViolation {
				return menu.ErrCategoryNotFound
			}
			return errors.Wrap(err, "updating menu item")
		}
		updated = item
		return nil
	})
	if err != nil {
		return menu.MenuItem{}, err
	}
	return updated, nil
}

func (repo menuRepository) SetMenuItemAvailability(ctx context.Context, id string, available bool, updatedAt time.Time) (menu.MenuItem, error) {
	if !isUUID(id) {
		return menu.MenuItem{}, menu.ErrNotFound
	}
	var row menuItemRow
	q := `UPDATE menu_item SET available = $2, updated_at = $3 WHERE id = $1 RETURNING ` + menuItemColumns
	if err := repo.db.GetContext(ctx, &row, q, id, available, updatedAt.UTC()); err != nil {
		return menu.MenuItem{}, trapNoRowsErr(err, menu.ErrNotFound, "updating menu item availability")
	}
	return row.toMenuItem()
}

func (repo menuRepository) DeleteMenuItem(ctx context.Context, id string) error {
	if !isUUID(id) {
		return menu.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM menu_item WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting menu item")
	}
	return checkAffected(res, menu.ErrNotFound)
}

func (repo menuRepository) SetMenuItemOrders(ctx context.Context, categoryID string, orders ordering.Assignment) error {
	if !isUUID(categoryID) {
		return menu.ErrCategoryNotFound
	}
	return setOrders(ctx, repo.db, "menu_item", "category_id = $3", orders, categoryID)
}

func (repo menuRepository) GetMenuSettings(ctx context.Context) (menu.Settings, error) {
	var settings menu.Settings
	q := `SELECT title, description, updated_at FROM menu_settings WHERE id = 1`
	row := repo.db.QueryRowxContext(ctx, q)
	if err := row.Scan(&settings.Title, &settings.Description, &settings.UpdatedAt); err != nil {
		return menu.Settings{}, trapNoRowsErr(err, menu.ErrSettingsNotFound, "selecting menu settings")
	}
	return settings, nil
}

func (repo menuRepository) SaveMenuSettings(ctx context.Context, settings menu.Settings) (menu.Settings, error) {
	q := `INSERT INTO menu_settings (id, title, description, updated_at) VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, description = EXCLUDED.description,
			updated_at = EXCLUDED.updated_at`
	if _, err := repo.db.ExecContext(ctx, q, settings.Title, settings.Description, settings.UpdatedAt.UTC()); err != nil {
		return menu.Settings{}, errors.Wrap(err, "saving menu settings")
	}
	return settings, nil
}
