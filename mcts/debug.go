//go:build debug
// +build debug

package mcts

import (
	"bytes"
	"fmt"

	"github.com/rs/zerolog"
)

// lumberjack traces every step into an in-memory buffer.
type lumberjack struct {
	buf   *bytes.Buffer
	trace zerolog.Logger
}

func makeLumberJack() lumberjack {
	buf := new(bytes.Buffer)
	return lumberjack{
		buf:   buf,
		trace: zerolog.New(zerolog.ConsoleWriter{Out: buf, NoColor: true, PartsExclude: []string{zerolog.TimestampFieldName}}),
	}
}

func (l *lumberjack) log(msg string, args ...interface{}) {
	l.trace.Debug().Msg(fmt.Sprintf(msg, args...))
}

func (l *lumberjack) resetLog() { l.buf.Reset() }

// Log returns the step trace since the last Reset.
func (l *lumberjack) Log() string { return l.buf.String() }
