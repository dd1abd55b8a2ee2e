// Package logging carries request-scoped logrus entries through contexts.
package logging

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

var base = logrus.NewEntry(logrus.StandardLogger())

// SetBase replaces the entry returned for contexts without a request logger.
func SetBase(l *logrus.Logger) {
	base = logrus.NewEntry(l)
}

// NewContext returns ctx carrying entry.
func NewContext(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, ctxKey{}, entry)
}

// FromContext returns the request logger stored in ctx, or the base logger.
func FromContext(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if entry, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok && entry != nil {
			return entry
		}
	}
	return base
}

// Discard is a logger that writes nothing; tests use it to keep output quiet.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
