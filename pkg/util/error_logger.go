package util

import (
	"log"
)

// ErrorLogger may be used to report errors. Implementations may decide
// to log, mutate, redirect and discard them. This interface is used in
// places where errors are generated asynchronously, meaning they cannot
// be returned to the caller directly.
type ErrorLogger interface {
	Log(err error)
}

type logErrorLogger struct {
	prefix string
}

// NewLogErrorLogger creates an ErrorLogger that writes errors through
// Go's standard logging package, prefixed with the name of the
// component that generated them.
func NewLogErrorLogger(prefix string) ErrorLogger {
	return logErrorLogger{prefix: prefix}
}

func (l logErrorLogger) Log(err error) {
	log.Printf("%s: %s", l.prefix, err)
}
