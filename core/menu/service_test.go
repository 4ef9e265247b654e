package menu_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/ahmadkeyhan/qrcodile/core"
	"github.com/ahmadkeyhan/qrcodile/core/category"
	"github.com/ahmadkeyhan/qrcodile/core/menu"
	"github.com/ahmadkeyhan/qrcodile/core/ordering"
	inmemdb "github.com/ahmadkeyhan/qrcodile/storage/database/inmem"
)

type fixture struct {
	svc    *menu.Service
	coffee category.Category
	tea    category.Category
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	db := inmemdb.NewDB()
	catSvc := category.NewService(inmemdb.NewCategoryRepository(db))
	coffee, err := catSvc.Create(ctx, category.NewCategory{Name: "Coffee"})
	require.NoError(t, err)
	tea, err := catSvc.Create(ctx, category.NewCategory{Name: "Tea"})
	require.NoError(t, err)
	return fixture{
		svc:    menu.NewService(inmemdb.NewMenuRepository(db), catSvc),
		coffee: coffee,
		tea:    tea,
	}
}

func (f fixture) create(t *testing.T, name, categoryID string, price float64) menu.MenuItem {
	t.Helper()
	item, err := f.svc.Create(context.Background(), menu.NewMenuItem{
		Name:       name,
		CategoryID: categoryID,
		Price:      null.Float64From(price),
	})
	require.NoError(t, err)
	return item
}

func newTestValidator() *validator.Validate {
	validate := validator.New()
	uni := core.NewUniversalTranslator()
	core.InitValidators(validate, uni)
	menu.InitValidators(validate, uni)
	return validate
}

func TestNewMenuItem_Validate(t *testing.T) {
	validate := newTestValidator()
	catID := "0b9f6a3c-4c55-4cf1-a2f1-3f4a5b6c7d8e"

	tests := []struct {
		name     string
		nmi      menu.NewMenuItem
		wantTags map[string]string
	}{
		{name: "single price", nmi: menu.NewMenuItem{Name: "Latte", CategoryID: catID, Price: null.Float64From(4.75)}},
		{
			name: "price list",
			nmi: menu.NewMenuItem{Name: "Latte", CategoryID: catID, PriceList: []menu.PriceListItem{
				{SubItem: "small", Price: 4}, {SubItem: "large", Price: 5},
			}},
		},
		{
			name:     "unpriced",
			nmi:      menu.NewMenuItem{Name: "Latte", CategoryID: catID},
			wantTags: map[string]string{"price": "pricing", "price_list": "pricing"},
		},
		{
			name:     "negative price",
			nmi:      menu.NewMenuItem{Name: "Latte", CategoryID: catID, Price: null.Float64From(-1)},
			wantTags: map[string]string{"price": "nonnegprice"},
		},
		{
			name:     "missing name & category",
			nmi:      menu.NewMenuItem{Name: "   ", Price: null.Float64From(1)},
			wantTags: map[string]string{"name": "required", "category_id": "required"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nmi.Validate(validate)
			if tt.wantTags == nil {
				assert.NoError(t, err)
				return
			}
			var errs validator.ValidationErrors
			require.True(t, errors.As(err, &errs), "got %v", err)
			got := make(map[string]string, len(errs))
			for _, fe := range errs {
				got[fe.Field()] = fe.Tag()
			}
			assert.Equal(t, tt.wantTags, got)
		})
	}
}

func TestService_Create(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	espresso := f.create(t, "Espresso", f.coffee.ID, 3)
	latte := f.create(t, "Latte", f.coffee.ID, 4.75)
	earlGrey := f.create(t, "Earl Grey", f.tea.ID, 3.5)
	assert.Equal(t, 0, espresso.Order)
	assert.Equal(t, 1, latte.Order)
	assert.Equal(t, 0, earlGrey.Order)
	assert.True(t, latte.Available)

	_, err := f.svc.Create(ctx, menu.NewMenuItem{
		Name:       "Ghost",
		CategoryID: "0b9f6a3c-4c55-4cf1-a2f1-3f4a5b6c7d8e",
		Price:      null.Float64From(1),
	})
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr), "got %v", err)
	assert.Equal(t, "category_id", vErr.Fields[0].Field)
}

func TestService_Update(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	validate := newTestValidator()

	latte := f.create(t, "Latte", f.coffee.ID, 4.75)
	mocha := f.create(t, "Mocha", f.coffee.ID, 5)
	f.create(t, "Earl Grey", f.tea.ID, 3.5)

	t.Run("omitted fields are kept", func(t *testing.T) {
		desc := "Double shot"
		umi := menu.UpdateMenuItem{Description: &desc}
		require.NoError(t, umi.Validate(latte, validate))
		updated, err := f.svc.Update(ctx, latte, umi)
		require.NoError(t, err)
		assert.Equal(t, "Latte", updated.Name)
		assert.Equal(t, "Double shot", updated.Description)
		assert.Equal(t, null.Float64From(4.75), updated.Price)
		assert.Equal(t, 0, updated.Order)
		latte = updated
	})

	t.Run("pricing is replaced as a whole", func(t *testing.T) {
		umi := menu.UpdateMenuItem{PriceList: []menu.PriceListItem{{SubItem: "small", Price: 4}}}
		require.NoError(t, umi.Validate(latte, validate))
		updated, err := f.svc.Update(ctx, latte, umi)
		require.NoError(t, err)
		assert.False(t, updated.Price.Valid)
		assert.Len(t, updated.PriceList, 1)
		latte = updated
	})

	t.Run("unpriced result is rejected", func(t *testing.T) {
		umi := menu.UpdateMenuItem{PriceList: []menu.PriceListItem{}}
		err := umi.Validate(latte, validate)
		var vErr *core.ValidationError
		assert.True(t, errors.As(err, &vErr), "got %v", err)
	})

	t.Run("category change appends", func(t *testing.T) {
		umi := menu.UpdateMenuItem{CategoryID: f.tea.ID}
		require.NoError(t, umi.Validate(latte, validate))
		moved, err := f.svc.Update(ctx, latte, umi)
		require.NoError(t, err)
		assert.Equal(t, f.tea.ID, moved.CategoryID)
		assert.Equal(t, 1, moved.Order)

		// deletion & moves out never renumber the old group
		got, err := f.svc.Get(ctx, mocha.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Order)
	})
}

func TestService_reordering(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	x := f.create(t, "X", f.coffee.ID, 1)
	y := f.create(t, "Y", f.coffee.ID, 1)
	z := f.create(t, "Z", f.coffee.ID, 1)
	tea := f.create(t, "T", f.tea.ID, 1)

	board := ordering.NewBoard("menu_items", f.svc, nil, nil)
	c, err := board.Controller(ctx, f.coffee.ID)
	require.NoError(t, err)

	_, err = c.Move(ctx, x.ID, z.ID)
	require.NoError(t, err)

	entities, err := f.svc.LoadGroup(ctx, f.coffee.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{y.ID, z.ID, x.ID}, ordering.IDs(entities))
	for i, e := range entities {
		assert.Equal(t, i, e.Order)
	}

	// the tea group is untouched
	got, err := f.svc.Get(ctx, tea.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Order)

	// items of another group cannot be moved within coffee
	_, err = c.Move(ctx, tea.ID, x.ID)
	assert.True(t, ordering.IsInvalidMove(err))

	_, err = f.svc.LoadGroup(ctx, "")
	assert.Equal(t, menu.ErrCategoryNotFound, err)
}

func TestService_Settings(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	settings, err := f.svc.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, menu.DefaultSettings(), settings)
	assert.Equal(t, "منوی کافه", settings.Title)

	saved, err := f.svc.UpdateSettings(ctx, menu.UpdateSettings{Title: "Cafe Menu", Description: "Fresh every day"})
	require.NoError(t, err)
	assert.False(t, saved.UpdatedAt.IsZero())

	settings, err = f.svc.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Cafe Menu", settings.Title)
}

func TestService_PublicMenu(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	latte := f.create(t, "Latte", f.coffee.ID, 4.75)
	mocha := f.create(t, "Mocha", f.coffee.ID, 5)
	_, err := f.svc.SetAvailability(ctx, mocha.ID, false)
	require.NoError(t, err)

	m, err := f.svc.PublicMenu(ctx)
	require.NoError(t, err)
	require.Len(t, m.Sections, 2)
	assert.Equal(t, "Coffee", m.Sections[0].Name)
	require.Len(t, m.Sections[0].Items, 1)
	assert.Equal(t, latte.ID, m.Sections[0].Items[0].ID)
	assert.Equal(t, "Tea", m.Sections[1].Name)
	assert.Empty(t, m.Sections[1].Items)
	assert.NotNil(t, m.Sections[1].Items)
}
