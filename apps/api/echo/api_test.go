package echoapi_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	echoapi "github.com/ahmadkeyhan/qrcodile/apps/api/echo"
	"github.com/ahmadkeyhan/qrcodile/core/event"
	"github.com/ahmadkeyhan/qrcodile/core/menu"
	"github.com/ahmadkeyhan/qrcodile/core/qrcode"
	"github.com/ahmadkeyhan/qrcodile/core/user"
)

func TestServer_home(t *testing.T) {
	app := setup(t)
	rec := app.do(newRequest(http.MethodGet, "/"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Qrcodile API!", rec.Body.String())
}

func TestUserApi_login(t *testing.T) {
	app := setup(t)
	staff := app.createUser(t, "Barista", "barista", user.RoleStaff)
	invalidCreds := marshallObj(t, httpErr{Error: "invalid credentials"})

	runHTTPTests(t, app, []httpTest{
		{
			name: "Wrong password", method: http.MethodPost, path: "/v1/users/login",
			body:     marshallObj(t, echoapi.LoginRequest{Username: "barista", Password: "nope"}),
			wantCode: http.StatusBadRequest, wantData: invalidCreds,
		},
		{
			name: "Unknown user", method: http.MethodPost, path: "/v1/users/login",
			body:     marshallObj(t, echoapi.LoginRequest{Username: "ghost", Password: "L3tMe!nPlz"}),
			wantCode: http.StatusBadRequest, wantData: invalidCreds,
		},
		{
			name: "Missing fields", method: http.MethodPost, path: "/v1/users/login",
			body: marshallObj(t, echoapi.LoginRequest{}), wantCode: http.StatusBadRequest,
		},
	})

	rec := app.do(newRequest(http.MethodPost, "/v1/users/login", marshallObj(t, echoapi.LoginRequest{Username: "barista", Password: "L3tMe!nPlz"})))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp echoapi.LoginResponse
	decode(t, rec, &resp)
	require.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.User)
	assert.Equal(t, staff.ID, resp.User.ID)

	// the issued token opens the account endpoints
	rec = app.do(newAuthRequest(http.MethodGet, "/v1/users/me", resp.Token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var me user.User
	decode(t, rec, &me)
	assert.Equal(t, "barista", me.Username)
}

func TestUserApi_permissions(t *testing.T) {
	app := setup(t)
	admin := app.createUser(t, "Manager", "manager", user.RoleAdmin)
	owner := app.createUser(t, "Owner", "owner", user.RoleAdminOwner)
	staff := app.createUser(t, "Barista", "barista", user.RoleStaff)

	runHTTPTests(t, app, []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{
			name: "Staff cannot list users", path: "/v1/users", token: app.token(t, staff),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "Admin lists users", path: "/v1/users", token: app.token(t, admin)},
		{name: "Admin lists roles", path: "/v1/users/roles", token: app.token(t, admin), wantData: marshallObj(t, user.Roles)},
		{
			name: "Admin cannot delete themselves", method: http.MethodDelete, path: "/v1/users/" + admin.ID, token: app.token(t, admin),
			wantCode: http.StatusForbidden,
		},
		{
			name: "Admin cannot delete an owner", method: http.MethodDelete, path: "/v1/users/" + owner.ID, token: app.token(t, admin),
			wantCode: http.StatusForbidden,
		},
		{
			name: "Admin cannot grant a higher role", method: http.MethodPost, path: "/v1/users", token: app.token(t, admin),
			body: marshallObj(t, user.NewUser{
				Name: "Partner", Username: "partner", Email: "partner@qrcodile.test",
				Password: "L3tMe!nPlz", PasswordConfirm: "L3tMe!nPlz", Roles: []string{user.RoleAdminOwner},
			}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"roles": "not enough rights to set these roles"}),
		},
		{
			name: "Owner deletes staff", method: http.MethodDelete, path: "/v1/users/" + staff.ID, token: app.token(t, owner),
			wantCode: http.StatusNoContent,
		},
	})

	_, err := app.userSvc.GetByID(context.Background(), staff.ID)
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))
}

func TestUserApi_passwordReset(t *testing.T) {
	app := setup(t)
	app.createUser(t, "Barista", "barista", user.RoleStaff)
	sent := marshallObj(t, echoapi.SuccessResponse{Success: "If the email address supplied is associated with an active account, an email will arrive in your inbox shortly with instructions to reset your password."})

	runHTTPTests(t, app, []httpTest{
		{
			name: "Known email", method: http.MethodPost, path: "/v1/users/password-reset",
			body: marshallObj(t, echoapi.PasswordResetRequest{Email: "barista@qrcodile.test"}), wantData: sent,
		},
		{
			name: "Unknown email answers the same", method: http.MethodPost, path: "/v1/users/password-reset",
			body: marshallObj(t, echoapi.PasswordResetRequest{Email: "ghost@qrcodile.test"}), wantData: sent,
		},
	})
	require.Len(t, app.mailSvc.Outbox(), 1)
	require.Len(t, app.mailSvc.Outbox()[0].To, 1)
	assert.Equal(t, "barista@qrcodile.test", app.mailSvc.Outbox()[0].To[0].Address)
}

func TestMenuApi_settings(t *testing.T) {
	app := setup(t)
	staff := app.createUser(t, "Barista", "barista", user.RoleStaff)

	rec := app.do(newRequest(http.MethodGet, "/v1/settings"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var settings menu.Settings
	decode(t, rec, &settings)
	assert.Equal(t, menu.DefaultSettings().Title, settings.Title)
	assert.True(t, settings.UpdatedAt.IsZero())

	update := marshallObj(t, menu.UpdateSettings{Title: "  Cafe Dune ", Description: "Slow coffee"})
	runHTTPTests(t, app, []httpTest{
		{name: "Auth required", method: http.MethodPut, path: "/v1/settings", body: update, wantCode: http.StatusUnauthorized},
		{
			name: "Title required", method: http.MethodPut, path: "/v1/settings", token: app.token(t, staff),
			body: marshallObj(t, menu.UpdateSettings{}), wantCode: http.StatusBadRequest,
		},
		{name: "Staff updates", method: http.MethodPut, path: "/v1/settings", token: app.token(t, staff), body: update},
	})

	rec = app.do(newRequest(http.MethodGet, "/v1/settings"))
	decode(t, rec, &settings)
	assert.Equal(t, "Cafe Dune", settings.Title)
	assert.Equal(t, "Slow coffee", settings.Description)
	assert.False(t, settings.UpdatedAt.IsZero())
}

func TestMenuApi_publicMenu(t *testing.T) {
	app := setup(t)
	ctx := context.Background()
	cats := app.createCategories(t, "Coffee", "Tea")

	unavailable := false
	for _, nmi := range []menu.NewMenuItem{
		{Name: "Espresso", Price: null.Float64From(3), CategoryID: cats[0].ID},
		{Name: "Cappuccino", Price: null.Float64From(4.5), CategoryID: cats[0].ID},
		{Name: "Matcha", Price: null.Float64From(5), CategoryID: cats[1].ID, Available: &unavailable},
	} {
		_, err := app.menuSvc.Create(ctx, nmi)
		require.NoError(t, err)
	}

	rec := app.do(newRequest(http.MethodGet, "/v1/menu"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var m menu.Menu
	decode(t, rec, &m)

	require.Len(t, m.Sections, 2)
	assert.Equal(t, "Coffee", m.Sections[0].Name)
	require.Len(t, m.Sections[0].Items, 2)
	assert.Equal(t, "Espresso", m.Sections[0].Items[0].Name)
	assert.Equal(t, "Cappuccino", m.Sections[0].Items[1].Name)
	assert.Equal(t, "Tea", m.Sections[1].Name)
	assert.Empty(t, m.Sections[1].Items)
}

func TestEventApi(t *testing.T) {
	app := setup(t)
	staff := app.createUser(t, "Barista", "barista", user.RoleStaff)
	now := time.Now().UTC().Truncate(time.Second)

	for _, ne := range []event.NewEvent{
		{Name: "Jazz night", StartDate: now.Add(-48 * time.Hour), EndDate: now.Add(-46 * time.Hour), Location: "Terrace"},
		{Name: "Latte art class", StartDate: now.Add(24 * time.Hour), EndDate: now.Add(26 * time.Hour), Location: "Bar", TicketPrice: 12},
	} {
		rec := app.do(newAuthRequest(http.MethodPost, "/v1/events", app.token(t, staff), marshallObj(t, ne)))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	var events []event.Event
	rec := app.do(newRequest(http.MethodGet, "/v1/events"))
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &events)
	assert.Len(t, events, 2)

	rec = app.do(newRequest(http.MethodGet, "/v1/events?upcoming=true"))
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &events)
	require.Len(t, events, 1)
	assert.Equal(t, "Latte art class", events[0].Name)

	runHTTPTests(t, app, []httpTest{
		{
			name: "Ends before it starts", method: http.MethodPost, path: "/v1/events", token: app.token(t, staff),
			body: marshallObj(t, event.NewEvent{
				Name: "Backwards", StartDate: now, EndDate: now.Add(-time.Hour), Location: "Bar",
			}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "Unknown event", path: "/v1/events/" + "c5b1a7a4-5f8e-4b0e-9a44-0c6e2f7f0a11",
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: event.ErrNotFound.Error()}),
		},
	})
}

func TestQRCodeApi(t *testing.T) {
	app := setup(t)
	staff := app.createUser(t, "Barista", "barista", user.RoleStaff)
	token := app.token(t, staff)

	runHTTPTests(t, app, []httpTest{
		{name: "Auth required", path: "/v1/qrcodes", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{
			name: "Invalid url", method: http.MethodPost, path: "/v1/qrcodes", token: token,
			body: marshallObj(t, qrcode.NewQRCode{Label: "Table 1", URL: "not a url"}), wantCode: http.StatusBadRequest,
		},
	})

	rec := app.do(newAuthRequest(http.MethodPost, "/v1/qrcodes", token, marshallObj(t, qrcode.NewQRCode{
		Label: "Table 1", URL: "http://localhost:3000/menu?table=1", FgColor: "#FF0000",
	})))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var qr qrcode.QRCode
	decode(t, rec, &qr)
	assert.Equal(t, "#ff0000", qr.FgColor)
	assert.NotEmpty(t, qr.BgColor)

	rec = app.do(newAuthRequest(http.MethodDelete, "/v1/qrcodes/"+qr.ID, token))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = app.do(newAuthRequest(http.MethodGet, "/v1/qrcodes/"+qr.ID, token))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
