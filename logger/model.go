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
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	loglvl "github.com/gekit/golib/logger/level"
)

type lgr struct {
	l *logrus.Logger
	f logrus.Fields
}

func (o *lgr) SetLevel(lvl loglvl.Level) {
	o.l.SetLevel(lvl.Logrus())
}

func (o *lgr) GetLevel() loglvl.Level {
	switch o.l.GetLevel() {
	case logrus.PanicLevel:
		return loglvl.PanicLevel
	case logrus.FatalLevel:
		return loglvl.FatalLevel
	case logrus.ErrorLevel:
		return loglvl.ErrorLevel
	case logrus.WarnLevel:
		return loglvl.WarnLevel
	case logrus.DebugLevel, logrus.TraceLevel:
		return loglvl.DebugLevel
	default:
		return loglvl.InfoLevel
	}
}

func (o *lgr) SetOutput(w io.Writer) {
	o.l.SetOutput(w)
}

func (o *lgr) WithFields(fields map[string]interface{}) Logger {
	f := make(logrus.Fields, len(o.f)+len(fields))

	for k, v := range o.f {
		f[k] = v
	}

	for k, v := range fields {
		f[k] = v
	}

	return &lgr{
		l: o.l,
		f: f,
	}
}

func (o *lgr) entry() *logrus.Entry {
	if len(o.f) > 0 {
		return o.l.WithFields(o.f)
	}

	return logrus.NewEntry(o.l)
}

func (o *lgr) log(lvl loglvl.Level, message string, args ...interface{}) {
	if lvl == loglvl.NilLevel {
		return
	}

	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}

	o.entry().Log(lvl.Logrus(), message)
}

func (o *lgr) Debug(message string, args ...interface{}) {
	o.log(loglvl.DebugLevel, message, args...)
}

func (o *lgr) Info(message string, args ...interface{}) {
	o.log(loglvl.InfoLevel, message, args...)
}

func (o *lgr) Warning(message string, args ...interface{}) {
	o.log(loglvl.WarnLevel, message, args...)
}

func (o *lgr) Error(message string, args ...interface{}) {
	o.log(loglvl.ErrorLevel, message, args...)
}

func (o *lgr) CheckError(lvl loglvl.Level, message string, err ...error) bool {
	var found bool

	for _, e := range err {
		if e == nil {
			continue
		}

		found = true
		o.log(lvl, "%s: %v", message, e)
	}

	return found
}
