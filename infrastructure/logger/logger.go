package applog

import "context"

// Logger abstracts structured logging with alternating key/value pairs.
type Logger interface {
	Log(keyvals ...interface{}) error
	With(keyvals ...interface{}) Logger
	FromContext(ctx context.Context) (l Logger)

	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
	Fatal(msg string, keyvals ...interface{})
}
