/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package logger

import (
	"io"

	"github.com/sirupsen/logrus"

	loglvl "github.com/gekit/golib/logger/level"
)

// FuncLog is a function type that returns a Logger instance.
// It is used for dependency injection and lazy initialization of loggers:
// consumers store the provider and resolve it at log time, so a logger can
// be swapped while the consumer runs. A nil FuncLog (or a FuncLog that
// returns nil) resolves to a discard logger.
type FuncLog func() Logger

// Logger is the structured logging facade used across the library.
type Logger interface {
	// SetLevel changes the minimal level of logged messages.
	SetLevel(lvl loglvl.Level)

	// GetLevel returns the minimal level of logged messages.
	GetLevel() loglvl.Level

	// SetOutput redirects the logger output.
	SetOutput(w io.Writer)

	// WithFields returns a Logger that adds the given fields to every entry.
	WithFields(fields map[string]interface{}) Logger

	// Debug adds an entry with DebugLevel to the logger.
	Debug(message string, args ...interface{})

	// Info adds an entry with InfoLevel to the logger.
	Info(message string, args ...interface{})

	// Warning adds an entry with WarnLevel to the logger.
	Warning(message string, args ...interface{})

	// Error adds an entry with ErrorLevel to the logger.
	Error(message string, args ...interface{})

	// CheckError logs the given errors at lvl if at least one is non-nil,
	// and reports whether an error was found.
	CheckError(lvl loglvl.Level, message string, err ...error) bool
}

// New returns a new Logger writing to stderr at InfoLevel.
func New() Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000",
		FullTimestamp:   true,
	})
	l.SetLevel(logrus.InfoLevel)

	return &lgr{
		l: l,
		f: nil,
	}
}

// Discard returns a Logger dropping every entry.
func Discard() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)

	return &lgr{
		l: l,
		f: nil,
	}
}

// Resolve returns the Logger of the given provider, or a discard logger
// when the provider is nil or yields nil.
func Resolve(fct FuncLog) Logger {
	if fct != nil {
		if l := fct(); l != nil {
			return l
		}
	}

	return Discard()
}
