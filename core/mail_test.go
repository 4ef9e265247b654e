package core_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmadkeyhan/qrcodile/assets"
	"github.com/ahmadkeyhan/qrcodile/core"
)

type errorRecorder struct {
	core.NopLogger
	errors []string
}

func (r *errorRecorder) Error(msg string, _ ...interface{}) {
	r.errors = append(r.errors, msg)
}

func TestParseEmailTemplates(t *testing.T) {
	conf := core.NewTestConfig()
	tmpls := core.ParseEmailTemplates(assets.FS, assets.EmailTemplatesDir, conf, core.NopLogger{})

	msg := &core.EmailMessage{
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{"Name": "Sara", "UID": "dWlk", "Token": "tok-en"},
	}
	require.NoError(t, msg.Render(tmpls))
	assert.Contains(t, msg.TextContent, "Hi Sara,")
	assert.Contains(t, msg.TextContent, conf.FrontendBaseURL+"/login/reset?uid=dWlk&token=tok-en")
	assert.Contains(t, msg.TextContent, "--\n"+conf.FrontendBaseURL) // from the _base layout
	assert.NotEmpty(t, msg.HTMLContent)
	assert.Contains(t, msg.HTMLContent, "Sara")

	unknown := &core.EmailMessage{TemplateName: "welcome"}
	assert.EqualError(t, unknown.Render(tmpls), `email template "welcome.txt" not found`)
}

func TestParseEmailTemplates_missingLayout(t *testing.T) {
	fsys := fstest.MapFS{
		"email/password_reset.txt": {Data: []byte(`{{define "content"}}hi{{end}}`)},
	}

	t.Run("strict", func(t *testing.T) {
		assert.Panics(t, func() {
			core.ParseEmailTemplates(fsys, "email", core.NewTestConfig(), core.NopLogger{})
		})
	})

	t.Run("reported", func(t *testing.T) {
		conf := core.NewTestConfig()
		conf.TestMode = false
		conf.Debug = false
		logger := new(errorRecorder)

		tmpls := core.ParseEmailTemplates(fsys, "email", conf, logger)
		require.Len(t, logger.errors, 1)
		assert.Contains(t, logger.errors[0], "core.ParseEmailTemplates(password_reset.txt)")

		msg := &core.EmailMessage{TemplateName: "password_reset"}
		assert.Error(t, msg.Render(tmpls))
	})
}
