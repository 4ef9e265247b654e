// Package logsvc reports messages & errors to stdout and Rollbar.
package logsvc

import (
	"fmt"
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/ahmadkeyhan/qrcodile/core"
	"github.com/ahmadkeyhan/qrcodile/core/ordering"
	"github.com/ahmadkeyhan/qrcodile/core/user"
)

// Level is the minimum severity reported to Rollbar.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
)

type RollbarLogger struct {
	std      *log.Logger
	minLevel Level
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewRollbarLogger configures the rollbar client; reporting is disabled when no token is configured.
// Debug messages are only reported in debug mode.
func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.TestMode)

	minLevel := LevelInfo
	if conf.Debug {
		minLevel = LevelDebug
	}
	return &RollbarLogger{std: std, minLevel: minLevel}
}

func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// Close waits for the queued reports to be sent.
func (l *RollbarLogger) Close() {
	rollbar.Close()
}

// prepare converts args to rollbar's: msg | error, map[string]interface{}.
// A user.User sets the reported person; an ordering.Notification becomes extra data.
func (l *RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	var usrSet bool
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			if !usrSet { // only set one User
				rollbar.SetPerson(a.ID, a.Username, a.Email)
				usrSet = true
			}
		case ordering.Notification:
			newArgs = append(newArgs, notificationExtras(a))
		default:
			newArgs = append(newArgs, arg)
		}
	}
	if !usrSet {
		rollbar.ClearPerson()
	}
	return newArgs
}

func notificationExtras(n ordering.Notification) map[string]interface{} {
	extras := map[string]interface{}{
		"kind":       n.Kind.String(),
		"collection": n.Collection,
		"group_id":   n.GroupID,
		"moved_id":   n.MovedID,
		"target_id":  n.TargetID,
		"sequence":   n.Sequence,
	}
	if n.Err != nil {
		extras["error"] = n.Err.Error()
	}
	return extras
}

func (l *RollbarLogger) print(level, msg string, args []interface{}) {
	l.std.Printf("[%s] %s", level, msg)
	for _, arg := range args {
		if n, ok := arg.(ordering.Notification); ok {
			arg = notificationExtras(n)
		}
		l.std.Printf("%+v", arg)
	}
}

func (l *RollbarLogger) report(level Level, fn func(...interface{}), msg string, args []interface{}) {
	if level >= l.minLevel {
		fn(l.prepare(msg, args)...)
	}
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	l.report(LevelDebug, rollbar.Debug, msg, args)
	if l.minLevel == LevelDebug {
		l.print("DEBUG", msg, args)
	}
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	l.report(LevelInfo, rollbar.Info, msg, args)
	l.print("INFO", msg, args)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	l.report(LevelWarn, rollbar.Warning, msg, args)
	l.print("WARN", msg, args)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	l.report(LevelError, rollbar.Error, msg, args)
	l.print("ERROR", msg, args)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.report(LevelCritical, rollbar.Critical, msg, args)
	l.print("FATAL", msg, args)
	rollbar.Close()
	l.std.Fatal(fmt.Sprintf("%s %v", msg, args))
}
