package logger

import (
	"context"

	"github.com/sirupsen/logrus"
)

type ctxKey int

const (
	ctxKeyLog ctxKey = iota
)

// Entry returns the log entry carried by ctx, or a fresh entry on the
// standard logger when none was attached.
func Entry(ctx context.Context) *logrus.Entry {
	if e, ok := ctx.Value(ctxKeyLog).(*logrus.Entry); ok {
		return e
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func WithLogEntry(ctx context.Context, e *logrus.Entry) context.Context {
	return context.WithValue(ctx, ctxKeyLog, e)
}

// New builds a logger at the named level. Unknown levels fall back to info.
func New(level string) *logrus.Logger {
	l := logrus.New()
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}
