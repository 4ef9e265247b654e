package user_test

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmadkeyhan/qrcodile/assets"
	"github.com/ahmadkeyhan/qrcodile/core"
	"github.com/ahmadkeyhan/qrcodile/core/user"
	inmemdb "github.com/ahmadkeyhan/qrcodile/storage/database/inmem"
)

type mailRecorder struct {
	mu   sync.Mutex
	sent []*core.EmailMessage
}

func (m *mailRecorder) SendMessages(messages ...*core.EmailMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, messages...)
}

func setup(t *testing.T) (*user.Service, *mailRecorder, user.User) {
	t.Helper()
	conf := core.NewTestConfig()
	mails := &mailRecorder{}
	tmpls := core.ParseEmailTemplates(assets.FS, assets.EmailTemplatesDir, conf, core.NopLogger{})
	svc := user.NewService(conf, inmemdb.NewUserRepository(inmemdb.NewDB()), mails, tmpls, core.NopLogger{})

	usr, err := svc.Create(context.Background(), user.NewUser{
		Name:     "Sara",
		Username: "sara",
		Email:    "sara@cafe.test",
		Password: "Qz7#vLm2xw",
		Roles:    []string{user.RoleStaff},
	})
	require.NoError(t, err)
	return svc, mails, usr
}

func TestService_Authenticate(t *testing.T) {
	svc, _, usr := setup(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		uname   string
		pwd     string
		wantErr error
	}{
		{name: "username", uname: "sara", pwd: "Qz7#vLm2xw"},
		{name: "email, any case", uname: " SARA@cafe.test", pwd: "Qz7#vLm2xw"},
		{name: "wrong password", uname: "sara", pwd: "nope", wantErr: user.ErrInvalidCredentials},
		{name: "unknown user", uname: "reza", pwd: "Qz7#vLm2xw", wantErr: user.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Authenticate(ctx, tt.uname, tt.pwd)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, usr.ID, got.ID)
			assert.False(t, got.LastLogin.IsZero())
		})
	}

	t.Run("deactivated", func(t *testing.T) {
		inactive := false
		_, err := svc.Update(ctx, usr, user.UpdateUser{Name: usr.Name, Username: usr.Username, Email: usr.Email, Roles: usr.Roles, IsActive: &inactive})
		require.NoError(t, err)
		_, err = svc.Authenticate(ctx, "sara", "Qz7#vLm2xw")
		assert.Equal(t, user.ErrAccountDeactivated, errors.Cause(err))
	})
}

func TestService_CheckUniqueness(t *testing.T) {
	svc, _, usr := setup(t)
	ctx := context.Background()

	err := svc.CheckUniqueness(ctx, "sara", "")
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr), "got %v", err)
	assert.Equal(t, "username", vErr.Fields[0].Field)

	err = svc.CheckUniqueness(ctx, "other", "sara@cafe.test")
	require.True(t, errors.As(err, &vErr), "got %v", err)
	assert.Equal(t, "email", vErr.Fields[0].Field)

	assert.NoError(t, svc.CheckUniqueness(ctx, "sara", "sara@cafe.test", usr.ID))
}

func TestService_ChangePassword(t *testing.T) {
	svc, _, usr := setup(t)
	ctx := context.Background()

	_, err := svc.ChangePassword(ctx, usr, user.ChangePassword{CurrentPassword: "wrong", Password: "Vb8$kRt3pq"})
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr), "got %v", err)
	assert.Equal(t, "current_password", vErr.Fields[0].Field)

	_, err = svc.ChangePassword(ctx, usr, user.ChangePassword{CurrentPassword: "Qz7#vLm2xw", Password: "Vb8$kRt3pq"})
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "sara", "Vb8$kRt3pq")
	assert.NoError(t, err)
}

func TestService_PasswordReset(t *testing.T) {
	svc, mails, usr := setup(t)
	ctx := context.Background()

	assert.Equal(t, user.ErrNotFound, errors.Cause(svc.RequestPasswordReset(ctx, "nobody@cafe.test")))
	require.NoError(t, svc.RequestPasswordReset(ctx, "sara@cafe.test"))

	require.Len(t, mails.sent, 1)
	msg := mails.sent[0]
	assert.Equal(t, "sara@cafe.test", msg.To[0].Address)
	assert.Contains(t, msg.TextContent, "/login/reset?uid=")
	assert.NotEmpty(t, msg.HTMLContent)

	data := msg.TemplateData.(map[string]interface{})
	uid, token := data["UID"].(string), data["Token"].(string)

	_, err := svc.ResetPassword(ctx, user.ResetUserPassword{UID: uid, Token: "bad-token", Password: "Vb8$kRt3pq"})
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr), "got %v", err)
	assert.Equal(t, user.ErrInvalidResetLink, vErr.Err)

	got, err := svc.ResetPassword(ctx, user.ResetUserPassword{UID: uid, Token: token, Password: "Vb8$kRt3pq"})
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	// the password change invalidates the link
	_, err = svc.ResetPassword(ctx, user.ResetUserPassword{UID: uid, Token: token, Password: "Qz7#vLm2xw"})
	assert.True(t, errors.As(err, &vErr), "got %v", err)
}
