// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

// Package log provides the package-wide structured logger: Trace/Debug/
// Info/Warn/Error calls taking alternating key-value pairs, matching the
// call shape used throughout the rest of the codebase (log.Info("msg",
// "key", val, ...)). It is a thin wrapper over log/slog with a
// colorized terminal handler for interactive use, the same shape
// go-probeum's own log package takes over its slog backend.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/go-stack/stack"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Logger is the interface satisfied by the package-level logger and by
// any context logger returned from New.
type Logger interface {
	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	New(ctx ...interface{}) Logger
}

// LevelTrace sits below slog's built-in Debug level, matching the extra
// verbosity tier the rest of the stack's "trace-level" logging policy
// (dropped datagrams, duplicate chunks) expects.
const LevelTrace = slog.Level(-8)

type logger struct {
	inner *slog.Logger
}

var root Logger = newLogger(defaultHandler())

func defaultHandler() slog.Handler {
	var w io.Writer = os.Stderr
	useColor := isatty.IsTerminal(os.Stderr.Fd())
	if useColor {
		w = colorable.NewColorable(os.Stderr)
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: LevelTrace,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	})
}

func newLogger(h slog.Handler) Logger {
	return &logger{inner: slog.New(h)}
}

// SetDefault replaces the package-level root logger's handler, e.g. to
// redirect to a file or change verbosity from the bootstrap layer.
func SetDefault(h slog.Handler) { root = newLogger(h) }

func (l *logger) New(ctx ...interface{}) Logger {
	return &logger{inner: l.inner.With(ctx...)}
}

func (l *logger) log(level slog.Level, msg string, ctx []interface{}) {
	if !l.inner.Enabled(context.Background(), level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(ctx...)
	if level >= slog.LevelError {
		r.AddAttrs(slog.String("stack", CallerStack(2).String()))
	}
	_ = l.inner.Handler().Handle(context.Background(), r)
}

func (l *logger) Trace(msg string, ctx ...interface{}) { l.log(LevelTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...interface{}) { l.log(slog.LevelDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...interface{})  { l.log(slog.LevelInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...interface{})  { l.log(slog.LevelWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...interface{}) { l.log(slog.LevelError, msg, ctx) }

// CallerStack captures the call stack above skip frames, used to attach a
// "stack" attribute to Error-level records so a failure's call path survives
// past the single program counter slog itself keeps.
func CallerStack(skip int) stack.CallStack {
	return stack.Trace().TrimBelow(stack.Caller(skip))
}

// Package-level convenience functions delegate to the root logger.
func Trace(msg string, ctx ...interface{}) { root.Trace(msg, ctx...) }
func Debug(msg string, ctx ...interface{}) { root.Debug(msg, ctx...) }
func Info(msg string, ctx ...interface{})  { root.Info(msg, ctx...) }
func Warn(msg string, ctx ...interface{})  { root.Warn(msg, ctx...) }
func Error(msg string, ctx ...interface{}) { root.Error(msg, ctx...) }

// New returns a logger with the given key-value pairs bound to every
// subsequent call, mirroring go-probeum's log.New(ctx...) idiom for
// subsystem-scoped loggers (e.g. log.New("module", "rldp")).
func New(ctx ...interface{}) Logger { return root.New(ctx...) }
