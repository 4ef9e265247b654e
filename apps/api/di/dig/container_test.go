package dig_container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/dig"

	"github.com/ahmadkeyhan/qrcodile/core"
	"github.com/ahmadkeyhan/qrcodile/core/user"
	inmemdb "github.com/ahmadkeyhan/qrcodile/storage/database/inmem"
)

func TestNewUserService(t *testing.T) {
	c := dig.New()
	require.NoError(t, c.Provide(core.NewTestConfig))
	require.NoError(t, c.Provide(func() core.Logger { return core.NopLogger{} }))
	require.NoError(t, c.Provide(func() user.Repository { return inmemdb.NewUserRepository(inmemdb.NewDB()) }))
	require.NoError(t, c.Provide(newEmailService))
	require.NoError(t, c.Provide(newEmailTemplates))
	require.NoError(t, c.Provide(newUserService))

	err := c.Invoke(func(svc user.ServiceInterface) {
		assert.IsType(t, &user.Service{}, svc)
	})
	require.NoError(t, err)
}
