// Package logrus adapts a logrus entry to hybridcache.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"
	"github.com/unkn0wn-root/hybridcache"
)

var _ hybridcache.Logger = Logger{}

type Logger struct{ E *logrus.Entry }

// New tags every record with component=hybridcache.
func New(l *logrus.Logger) Logger {
	return Logger{E: l.WithField("component", "hybridcache")}
}

func (l Logger) Debug(msg string, f hybridcache.Fields) { l.with(f).Debug(msg) }
func (l Logger) Info(msg string, f hybridcache.Fields)  { l.with(f).Info(msg) }
func (l Logger) Warn(msg string, f hybridcache.Fields)  { l.with(f).Warn(msg) }
func (l Logger) Error(msg string, f hybridcache.Fields) { l.with(f).Error(msg) }

// with moves an "err" field to logrus' own error key.
func (l Logger) with(f hybridcache.Fields) *logrus.Entry {
	e := l.E
	if err, ok := f["err"].(error); ok {
		e = e.WithError(err)
	}
	out := make(logrus.Fields, len(f))
	for k, v := range f {
		if k == "err" {
			if _, ok := v.(error); ok {
				continue
			}
		}
		out[k] = v
	}
	return e.WithFields(out)
}
