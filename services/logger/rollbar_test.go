package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/ahmadkeyhan/qrcodile/core"
	"github.com/ahmadkeyhan/qrcodile/core/ordering"
)

func TestRollbarLogger(t *testing.T) {
	var out bytes.Buffer
	conf := core.NewTestConfig()
	logger := NewRollbarLogger(log.New(&out, "", 0), conf)

	logger.Debug("hidden")
	logger.Warn("persisting order", ordering.Notification{
		Kind:       ordering.MoveReconciled,
		Collection: "categories",
		GroupID:    ordering.RootGroup,
		MovedID:    "x",
		TargetID:   "z",
		Err:        errors.New("connection reset"),
	})

	written := out.String()
	assert.NotContains(t, written, "hidden")
	assert.Contains(t, written, "[WARN] persisting order")
	assert.Contains(t, written, "collection:categories")
	assert.Contains(t, written, "error:connection reset")
}

func TestRollbarLogger_prepare(t *testing.T) {
	logger := NewRollbarLogger(log.New(&bytes.Buffer{}, "", 0), core.NewTestConfig())
	err := errors.New("boom")
	args := logger.prepare("msg", []interface{}{err, ordering.Notification{Kind: ordering.MovePersisted}})

	assert.Len(t, args, 3)
	assert.Equal(t, "msg", args[0])
	assert.Equal(t, err, args[1])
	extras, ok := args[2].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, ordering.MovePersisted.String(), extras["kind"])
}

func TestReorderNotifier(t *testing.T) {
	var out bytes.Buffer
	conf := core.NewTestConfig()
	conf.Debug = true
	notifier := ReorderNotifier(NewRollbarLogger(log.New(&out, "", 0), conf))

	notifier.Notify(ordering.Notification{Kind: ordering.MovePersisted, Collection: "products", GroupID: ordering.RootGroup})
	notifier.Notify(ordering.Notification{
		Kind:       ordering.MoveReconciled,
		Collection: "menu_items",
		GroupID:    "coffee",
		Err:        errors.New("deadlock detected"),
	})

	written := out.String()
	assert.Contains(t, written, "[DEBUG] move persisted in products/root")
	assert.Contains(t, written, "[WARN] move reconciled in menu_items/coffee")
	assert.Contains(t, written, "error:deadlock detected")
}
