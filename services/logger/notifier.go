package logsvc

import (
	"fmt"

	"github.com/ahmadkeyhan/qrcodile/core"
	"github.com/ahmadkeyhan/qrcodile/core/ordering"
)

// ReorderNotifier logs the outcome of every move. Failed writes are warnings, the rest is debug.
func ReorderNotifier(logger core.Logger) ordering.Notifier {
	return ordering.NotifierFunc(func(n ordering.Notification) {
		msg := fmt.Sprintf("move %s in %s/%s", n.Kind, n.Collection, n.GroupID)
		if n.Kind == ordering.MoveReconciled {
			logger.Warn(msg, n)
			return
		}
		logger.Debug(msg, n)
	})
}
