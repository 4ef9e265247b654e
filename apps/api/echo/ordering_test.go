package echoapi_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	echoapi "github.com/ahmadkeyhan/qrcodile/apps/api/echo"
	"github.com/ahmadkeyhan/qrcodile/core/category"
	"github.com/ahmadkeyhan/qrcodile/core/menu"
	"github.com/ahmadkeyhan/qrcodile/core/ordering"
	"github.com/ahmadkeyhan/qrcodile/core/product"
	"github.com/ahmadkeyhan/qrcodile/core/user"
)

func entityNames(entities []ordering.Entity) []string {
	names := make([]string, 0, len(entities))
	for _, e := range entities {
		names = append(names, e.Name)
	}
	return names
}

func entityOrders(entities []ordering.Entity) []int {
	orders := make([]int, 0, len(entities))
	for _, e := range entities {
		orders = append(orders, e.Order)
	}
	return orders
}

func categoryNames(t *testing.T, app *testApp) []string {
	t.Helper()
	rec := app.do(newRequest(http.MethodGet, "/v1/categories"))
	require.Equal(t, http.StatusOK, rec.Code)
	var cats []category.Category
	decode(t, rec, &cats)
	names := make([]string, 0, len(cats))
	for _, cat := range cats {
		names = append(names, cat.Name)
	}
	return names
}

func moveBody(t *testing.T, moved, target string, extra ...func(*echoapi.MoveRequest)) []byte {
	req := echoapi.MoveRequest{MovedID: moved, TargetID: target}
	for _, fn := range extra {
		fn(&req)
	}
	return marshallObj(t, req)
}

func TestOrderingApi_moveCategories(t *testing.T) {
	tests := []struct {
		name      string
		moved     int
		target    int
		wantNames []string
	}{
		{name: "last onto first", moved: 2, target: 0, wantNames: []string{"Z", "X", "Y"}},
		{name: "first onto last", moved: 0, target: 2, wantNames: []string{"Y", "Z", "X"}},
		{name: "first onto middle", moved: 0, target: 1, wantNames: []string{"Y", "X", "Z"}},
		{name: "middle onto last", moved: 1, target: 2, wantNames: []string{"X", "Z", "Y"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setup(t)
			staff := app.createUser(t, "Barista", "barista", user.RoleStaff)
			cats := app.createCategories(t, "X", "Y", "Z")

			body := moveBody(t, cats[tt.moved].ID, cats[tt.target].ID)
			rec := app.do(newAuthRequest(http.MethodPost, "/v1/categories/move", app.token(t, staff), body))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp echoapi.ReorderResponse
			decode(t, rec, &resp)
			assert.Equal(t, "the new order has been saved", resp.Message)
			assert.Equal(t, tt.wantNames, entityNames(resp.Sequence))
			assert.Equal(t, []int{0, 1, 2}, entityOrders(resp.Sequence))
			assert.Equal(t, tt.wantNames, categoryNames(t, app))
			assert.Equal(t, []ordering.Kind{ordering.MovePersisted}, app.notes.kinds())
		})
	}
}

func TestOrderingApi_moveAuth(t *testing.T) {
	app := setup(t)
	nobody := app.createUser(t, "Guest", "guest")
	cats := app.createCategories(t, "X", "Y")
	body := moveBody(t, cats[0].ID, cats[1].ID)

	runHTTPTests(t, app, []httpTest{
		{
			name: "Auth required", method: http.MethodPost, path: "/v1/categories/move", body: body,
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken),
		},
		{
			name: "Staff required", method: http.MethodPost, path: "/v1/categories/move", body: body, token: app.token(t, nobody),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
	})
	assert.Equal(t, []string{"X", "Y"}, categoryNames(t, app))
}

func TestOrderingApi_invalidMoves(t *testing.T) {
	app := setup(t)
	staff := app.createUser(t, "Barista", "barista", user.RoleStaff)
	token := app.token(t, staff)
	cats := app.createCategories(t, "X", "Y", "Z")
	invalidMove := marshallObj(t, httpErr{Error: "invalid move"})

	runHTTPTests(t, app, []httpTest{
		{
			name: "onto itself", method: http.MethodPost, path: "/v1/categories/move", token: token,
			body: moveBody(t, cats[0].ID, cats[0].ID), wantCode: http.StatusBadRequest, wantData: invalidMove,
		},
		{
			name: "unknown target", method: http.MethodPost, path: "/v1/categories/move", token: token,
			body: moveBody(t, cats[0].ID, "nope"), wantCode: http.StatusBadRequest, wantData: invalidMove,
		},
		{
			name: "missing ids", method: http.MethodPost, path: "/v1/categories/move", token: token,
			body: moveBody(t, "", cats[0].ID), wantCode: http.StatusBadRequest,
		},
		{
			name: "incomplete reorder", method: http.MethodPost, path: "/v1/categories/reorder", token: token,
			body:     marshallObj(t, echoapi.ReorderRequest{IDs: []string{cats[2].ID, cats[0].ID}}),
			wantCode: http.StatusBadRequest, wantData: invalidMove,
		},
	})

	assert.Equal(t, []string{"X", "Y", "Z"}, categoryNames(t, app))
	assert.Equal(t, []ordering.Kind{ordering.MoveRejected, ordering.MoveRejected, ordering.MoveRejected}, app.notes.kinds())
}

func TestOrderingApi_failedWriteReconciles(t *testing.T) {
	app := setup(t)
	staff := app.createUser(t, "Barista", "barista", user.RoleStaff)
	cats := app.createCategories(t, "X", "Y", "Z")
	app.db.FailNextOrderWrite(errors.New("connection reset by peer"))

	rec := app.do(newAuthRequest(http.MethodPost, "/v1/categories/move", app.token(t, staff), moveBody(t, cats[0].ID, cats[2].ID)))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())

	var resp echoapi.ReorderErrorResponse
	decode(t, rec, &resp)
	assert.Equal(t, "the new order could not be saved; the list has been reloaded", resp.Error)
	assert.Equal(t, []string{"X", "Y", "Z"}, entityNames(resp.Sequence))
	assert.Equal(t, []string{"X", "Y", "Z"}, categoryNames(t, app))
	assert.Equal(t, []ordering.Kind{ordering.MoveReconciled}, app.notes.kinds())

	// no retry: the next move starts from the reloaded state
	rec = app.do(newAuthRequest(http.MethodPost, "/v1/categories/move", app.token(t, staff), moveBody(t, cats[0].ID, cats[2].ID)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"Y", "Z", "X"}, categoryNames(t, app))
}

func TestOrderingApi_reorder(t *testing.T) {
	app := setup(t)
	staff := app.createUser(t, "Barista", "barista", user.RoleStaff)
	cats := app.createCategories(t, "X", "Y", "Z")

	body := marshallObj(t, echoapi.ReorderRequest{IDs: []string{cats[1].ID, cats[2].ID, cats[0].ID}})
	rec := app.do(newAuthRequest(http.MethodPost, "/v1/categories/reorder", app.token(t, staff), body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp echoapi.ReorderResponse
	decode(t, rec, &resp)
	assert.Equal(t, []string{"Y", "Z", "X"}, entityNames(resp.Sequence))
	assert.ElementsMatch(t, []string{cats[0].ID, cats[1].ID, cats[2].ID}, resp.Changed)
	assert.Equal(t, []string{"Y", "Z", "X"}, categoryNames(t, app))
}

func TestOrderingApi_localizedMessages(t *testing.T) {
	app := setup(t)
	staff := app.createUser(t, "Barista", "barista", user.RoleStaff)
	cats := app.createCategories(t, "X", "Y")

	req := newAuthRequest(http.MethodPost, "/v1/categories/move", app.token(t, staff), moveBody(t, cats[1].ID, cats[0].ID))
	req.Header.Set("Accept-Language", "fa-IR,fa;q=0.9,en;q=0.8")
	rec := app.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "fa", rec.Header().Get("Content-Language"))

	var resp echoapi.ReorderResponse
	decode(t, rec, &resp)
	assert.Equal(t, "ترتیب جدید ذخیره شد", resp.Message)

	req = newAuthRequest(http.MethodPost, "/v1/categories/move?lang=fa", app.token(t, staff), moveBody(t, cats[0].ID, cats[0].ID))
	rec = app.do(req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marshallObj(t, httpErr{Error: "جابجایی نامعتبر است"}),
	}, rec)
}

func TestOrderingApi_asyncMove(t *testing.T) {
	app := setup(t)
	staff := app.createUser(t, "Barista", "barista", user.RoleStaff)
	token := app.token(t, staff)
	cats := app.createCategories(t, "X", "Y", "Z")

	body := moveBody(t, cats[2].ID, cats[0].ID, func(mr *echoapi.MoveRequest) { mr.Async = true })
	rec := app.do(newAuthRequest(http.MethodPost, "/v1/categories/move", token, body))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var resp echoapi.ReorderResponse
	decode(t, rec, &resp)
	assert.Equal(t, []string{"Z", "X", "Y"}, entityNames(resp.Sequence)) // applied optimistically

	assert.Eventually(t, func() bool {
		return strings.Join(categoryNames(t, app), ",") == "Z,X,Y"
	}, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, app.Shutdown(ctx))
	assert.Equal(t, []ordering.Kind{ordering.MovePersisted}, app.notes.kinds())

	// invalid async moves are still refused synchronously
	body = moveBody(t, cats[0].ID, cats[0].ID, func(mr *echoapi.MoveRequest) { mr.Async = true })
	rec = app.do(newAuthRequest(http.MethodPost, "/v1/categories/move", token, body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderingApi_asyncMoveInFlight(t *testing.T) {
	app := setup(t)
	staff := app.createUser(t, "Barista", "barista", user.RoleStaff)
	token := app.token(t, staff)
	cats := app.createCategories(t, "X", "Y", "Z")
	async := func(mr *echoapi.MoveRequest) { mr.Async = true }

	release := app.db.HoldOrderWrites()
	defer release()

	rec := app.do(newAuthRequest(http.MethodPost, "/v1/categories/move", token, moveBody(t, cats[2].ID, cats[0].ID, async)))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	// the first write is still held: a second move is refused, not accepted
	rec = app.do(newAuthRequest(http.MethodPost, "/v1/categories/move", token, moveBody(t, cats[0].ID, cats[1].ID, async)))
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusConflict,
		wantData: marshallObj(t, httpErr{Error: ordering.ErrMoveInFlight.Error()}),
	}, rec)

	rec = app.do(newAuthRequest(http.MethodPost, "/v1/categories/move", token, moveBody(t, cats[0].ID, cats[1].ID)))
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	release()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, app.Shutdown(ctx))

	assert.Equal(t, []string{"Z", "X", "Y"}, categoryNames(t, app))
	assert.ElementsMatch(t,
		[]ordering.Kind{ordering.MoveRejected, ordering.MoveRejected, ordering.MovePersisted},
		app.notes.kinds(),
	)
}

func TestOrderingApi_moveAfterOutOfBandWrite(t *testing.T) {
	app := setup(t)
	staff := app.createUser(t, "Barista", "barista", user.RoleStaff)
	token := app.token(t, staff)
	cats := app.createCategories(t, "X", "Y")

	rec := app.do(newAuthRequest(http.MethodPost, "/v1/categories/move", token, moveBody(t, cats[1].ID, cats[0].ID)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// creating a category drops the cached order; the next move reads it again
	rec = app.do(newAuthRequest(http.MethodPost, "/v1/categories", token, marshallObj(t, category.NewCategory{Name: "W"})))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var w category.Category
	decode(t, rec, &w)

	rec = app.do(newAuthRequest(http.MethodPost, "/v1/categories/move", token, moveBody(t, w.ID, cats[1].ID)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"W", "Y", "X"}, categoryNames(t, app))
}

func TestOrderingApi_menuItemGroups(t *testing.T) {
	app := setup(t)
	staff := app.createUser(t, "Barista", "barista", user.RoleStaff)
	token := app.token(t, staff)
	cats := app.createCategories(t, "Coffee", "Tea")

	newItem := func(name, categoryID string) menu.MenuItem {
		item, err := app.menuSvc.Create(context.Background(), menu.NewMenuItem{
			Name:       name,
			Price:      null.Float64From(4.5),
			CategoryID: categoryID,
		})
		require.NoError(t, err)
		return item
	}
	espresso := newItem("Espresso", cats[0].ID)
	_ = newItem("Latte", cats[0].ID)
	mocha := newItem("Mocha", cats[0].ID)
	greenTea := newItem("Green Tea", cats[1].ID)
	_ = newItem("Earl Grey", cats[1].ID)

	groupOrder := func(categoryID string) []ordering.Entity {
		rec := app.do(newAuthRequest(http.MethodGet, "/v1/menu-items/order?category_id="+categoryID, token))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var entities []ordering.Entity
		decode(t, rec, &entities)
		return entities
	}

	t.Run("category required", func(t *testing.T) {
		rec := app.do(newAuthRequest(http.MethodPost, "/v1/menu-items/move", token, moveBody(t, mocha.ID, espresso.ID)))
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"category_id": "category_id is required"}),
		}, rec)
	})

	t.Run("items of another group", func(t *testing.T) {
		body := moveBody(t, mocha.ID, greenTea.ID, func(mr *echoapi.MoveRequest) { mr.CategoryID = cats[0].ID })
		rec := app.do(newAuthRequest(http.MethodPost, "/v1/menu-items/move", token, body))
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	t.Run("groups are isolated", func(t *testing.T) {
		teaBefore := groupOrder(cats[1].ID)

		body := moveBody(t, mocha.ID, espresso.ID, func(mr *echoapi.MoveRequest) { mr.CategoryID = cats[0].ID })
		rec := app.do(newAuthRequest(http.MethodPost, "/v1/menu-items/move", token, body))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		coffee := groupOrder(cats[0].ID)
		assert.Equal(t, []string{"Mocha", "Espresso", "Latte"}, entityNames(coffee))
		assert.Equal(t, []int{0, 1, 2}, entityOrders(coffee))
		assert.Equal(t, teaBefore, groupOrder(cats[1].ID))
	})

	t.Run("new items are appended", func(t *testing.T) {
		body := marshallObj(t, menu.NewMenuItem{Name: "Americano", Price: null.Float64From(3), CategoryID: cats[0].ID})
		rec := app.do(newAuthRequest(http.MethodPost, "/v1/menu-items", token, body))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		coffee := groupOrder(cats[0].ID)
		assert.Equal(t, []string{"Mocha", "Espresso", "Latte", "Americano"}, entityNames(coffee))
	})

	t.Run("moved to another category", func(t *testing.T) {
		body := []byte(`{"category_id": "` + cats[1].ID + `"}`)
		rec := app.do(newAuthRequest(http.MethodPut, "/v1/menu-items/"+espresso.ID, token, body))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		assert.Equal(t, []string{"Mocha", "Latte", "Americano"}, entityNames(groupOrder(cats[0].ID)))
		assert.Equal(t, []string{"Green Tea", "Earl Grey", "Espresso"}, entityNames(groupOrder(cats[1].ID)))
	})
}

func TestOrderingApi_products(t *testing.T) {
	app := setup(t)
	staff := app.createUser(t, "Barista", "barista", user.RoleStaff)
	token := app.token(t, staff)

	var products []product.Product
	for _, name := range []string{"Ethiopia Yirgacheffe", "Colombia Huila", "House Blend"} {
		p, err := app.productSvc.Create(context.Background(), product.NewProduct{Name: name, Price: 18})
		require.NoError(t, err)
		products = append(products, p)
	}

	rec := app.do(newAuthRequest(http.MethodPost, "/v1/products/move", token, moveBody(t, products[2].ID, products[0].ID)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(newRequest(http.MethodGet, "/v1/products"))
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []product.Product
	decode(t, rec, &listed)
	names := make([]string, 0, len(listed))
	for _, p := range listed {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"House Blend", "Ethiopia Yirgacheffe", "Colombia Huila"}, names)

	// categories are a separate collection
	cats := app.createCategories(t, "X")
	rec = app.do(newAuthRequest(http.MethodPost, "/v1/products/move", token, moveBody(t, cats[0].ID, products[0].ID)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderingApi_metrics(t *testing.T) {
	app := setup(t)
	staff := app.createUser(t, "Barista", "barista", user.RoleStaff)
	cats := app.createCategories(t, "X", "Y")

	rec := app.do(newAuthRequest(http.MethodPost, "/v1/categories/move", app.token(t, staff), moveBody(t, cats[1].ID, cats[0].ID)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(newRequest(http.MethodGet, "/metrics"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `qrcodile_reorder_moves_total{collection="categories",outcome="persisted"} 1`)
}
