package emailsvc

import (
	"bytes"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmadkeyhan/qrcodile/core"
)

func TestConsoleService_SendMessages(t *testing.T) {
	var out bytes.Buffer
	svc := NewConsoleService(core.NewTestConfig(), &out, core.NopLogger{})

	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: "Sara", Address: "sara@cafe.test"}},
		Subject:      "Password reset",
		TextContent:  "hello",
		HTMLContent:  "<p>hello</p>",
		TemplateName: "password_reset",
	}
	require.NoError(t, msg.Attach(strings.NewReader("menu"), "menu.txt", "text/plain"))

	svc.SendMessages(
		msg,
		&core.EmailMessage{Subject: "no recipients", TextContent: "lost"},
		&core.EmailMessage{To: msg.To, Subject: "no content"},
	)

	outbox := svc.Outbox()
	require.Len(t, outbox, 1)
	assert.Equal(t, "Password reset", outbox[0].Subject)

	written := out.String()
	assert.Contains(t, written, "Subject: [Qrcodile] Password reset")
	assert.Contains(t, written, `To: "Sara" <sara@cafe.test>`)
	assert.Contains(t, written, "<p>hello</p>")
	assert.Contains(t, written, "filename=menu.txt")
	assert.NotContains(t, written, "lost")
}

func TestSendgridService_prepare(t *testing.T) {
	svc := NewSendgridService(core.NewTestConfig(), core.NopLogger{})
	m := svc.prepare(core.EmailMessage{
		To:          []mail.Address{{Name: "Sara", Address: "sara@cafe.test"}},
		Bcc:         []mail.Address{{Address: "owner@cafe.test"}},
		Subject:     "Hi",
		TextContent: "hello",
	})

	require.Len(t, m.Personalizations, 1)
	p := m.Personalizations[0]
	assert.Equal(t, "[Qrcodile] Hi", p.Subject)
	require.Len(t, p.To, 1)
	assert.Equal(t, "sara@cafe.test", p.To[0].Address)
	require.Len(t, p.BCC, 1)
	assert.Equal(t, "noreply@localhost", m.From.Address)
	require.Len(t, m.Content, 1)
	assert.Equal(t, "text/plain", m.Content[0].Type)
}
