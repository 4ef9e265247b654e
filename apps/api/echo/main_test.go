package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/ahmadkeyhan/qrcodile/apps/api/echo"
	"github.com/ahmadkeyhan/qrcodile/assets"
	"github.com/ahmadkeyhan/qrcodile/core"
	"github.com/ahmadkeyhan/qrcodile/core/category"
	"github.com/ahmadkeyhan/qrcodile/core/event"
	"github.com/ahmadkeyhan/qrcodile/core/menu"
	"github.com/ahmadkeyhan/qrcodile/core/ordering"
	"github.com/ahmadkeyhan/qrcodile/core/product"
	"github.com/ahmadkeyhan/qrcodile/core/qrcode"
	"github.com/ahmadkeyhan/qrcodile/core/user"
	emailsvc "github.com/ahmadkeyhan/qrcodile/services/email"
	metricsvc "github.com/ahmadkeyhan/qrcodile/services/metrics"
	inmemdb "github.com/ahmadkeyhan/qrcodile/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

// notificationRecorder keeps every reorder notification.
type notificationRecorder struct {
	mu    sync.Mutex
	notes []ordering.Notification
}

func (r *notificationRecorder) Notify(n ordering.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *notificationRecorder) kinds() []ordering.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]ordering.Kind, 0, len(r.notes))
	for _, n := range r.notes {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}

type testApp struct {
	*echoapi.Server
	db          *inmemdb.DB
	mailSvc     *emailsvc.ConsoleService
	notes       *notificationRecorder
	userSvc     *user.Service
	categorySvc *category.Service
	menuSvc     *menu.Service
	productSvc  *product.Service
	eventSvc    *event.Service
}

func setup(t *testing.T) *testApp {
	t.Helper()
	conf := core.NewTestConfig()
	logger := core.NopLogger{}

	validate := validator.New()
	uni := core.NewUniversalTranslator()
	core.InitValidators(validate, uni)
	user.InitValidators(validate, uni, logger)
	menu.InitValidators(validate, uni)

	db := inmemdb.NewDB()
	templates := core.ParseEmailTemplates(assets.FS, assets.EmailTemplatesDir, conf, logger)
	mailSvc := emailsvc.NewConsoleService(conf, io.Discard, logger)
	categorySvc := category.NewService(inmemdb.NewCategoryRepository(db))

	app := &testApp{
		db:          db,
		mailSvc:     mailSvc,
		notes:       new(notificationRecorder),
		userSvc:     user.NewService(conf, inmemdb.NewUserRepository(db), mailSvc, templates, logger),
		categorySvc: categorySvc,
		menuSvc:     menu.NewService(inmemdb.NewMenuRepository(db), categorySvc),
		productSvc:  product.NewService(inmemdb.NewProductRepository(db)),
		eventSvc:    event.NewService(inmemdb.NewEventRepository(db)),
	}

	registry := prometheus.NewRegistry()
	app.Server = echoapi.NewServer("", nil /* shutdown */, &echoapi.Deps{
		Conf:        conf,
		Logger:      logger,
		Validate:    validate,
		Uni:         uni,
		UserSvc:     app.userSvc,
		CategorySvc: app.categorySvc,
		MenuSvc:     app.menuSvc,
		ProductSvc:  app.productSvc,
		EventSvc:    app.eventSvc,
		QRCodeSvc:   qrcode.NewService(inmemdb.NewQRCodeRepository(db)),
		Notifier:    ordering.Notifiers{metricsvc.NewReorderMetrics(registry), app.notes},
		Metrics:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})
	return app
}

func (app *testApp) createUser(t *testing.T, name, uname string, roles ...string) user.User {
	t.Helper()
	usr, err := app.userSvc.Create(context.Background(), user.NewUser{
		Name:            name,
		Username:        uname,
		Email:           uname + "@qrcodile.test",
		Password:        "L3tMe!nPlz",
		PasswordConfirm: "L3tMe!nPlz",
		Roles:           roles,
	})
	require.NoError(t, err)
	return usr
}

func (app *testApp) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := app.Tokens().UserToken(usr)
	require.NoError(t, err)
	return token
}

func (app *testApp) createCategories(t *testing.T, names ...string) []category.Category {
	t.Helper()
	cats := make([]category.Category, 0, len(names))
	for _, name := range names {
		cat, err := app.categorySvc.Create(context.Background(), category.NewCategory{Name: name})
		require.NoError(t, err)
		cats = append(cats, cat)
	}
	return cats
}

func (app *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func newAuthRequest(method, path, token string, data ...[]byte) *http.Request {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func newRequest(method, path string, data ...[]byte) *http.Request {
	return newAuthRequest(method, path, "", data...)
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest), rec.Body.String())
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(newAuthRequest(tt.method, tt.path, tt.token, tt.body))
			checkCodeAndData(t, tt, rec)
		})
	}
}
