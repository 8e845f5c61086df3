/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
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

package aio

import (
	"fmt"
	"runtime"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	liberr "github.com/gekit/golib/errors"
)

const (
	// FileBackendBlocking selects the blocking worker-pool file backend.
	FileBackendBlocking = "blocking"

	// FileBackendNativeAsync selects the kernel async file backend.
	FileBackendNativeAsync = "native-async"

	// SocketBackendCompletion selects the completion-queue socket backend.
	SocketBackendCompletion = "completion-port"

	// SocketBackendReadiness selects the readiness-poll socket backend.
	SocketBackendReadiness = "readiness-poll"
)

// Config is the engine configuration. The zero value is usable: every
// field has a default applied by Clean.
type Config struct {
	// WorkerThreads is the number of completion workers of the engine.
	WorkerThreads int `mapstructure:"worker_threads" json:"worker_threads" yaml:"worker_threads" toml:"worker_threads" validate:"gte=0,lte=1024"`

	// FileBackend selects the file service flavor: blocking or
	// native-async.
	FileBackend string `mapstructure:"file_backend" json:"file_backend" yaml:"file_backend" toml:"file_backend" validate:"omitempty,oneof=blocking native-async"`

	// SocketBackend selects the socket service flavor: completion-port,
	// readiness-poll, or empty for the platform default.
	SocketBackend string `mapstructure:"socket_backend" json:"socket_backend" yaml:"socket_backend" toml:"socket_backend" validate:"omitempty,oneof=completion-port readiness-poll"`

	// FileQueueCeiling bounds the blocking file backend queue. Zero means
	// unbounded.
	FileQueueCeiling int `mapstructure:"file_queue_ceiling" json:"file_queue_ceiling" yaml:"file_queue_ceiling" toml:"file_queue_ceiling" validate:"gte=0"`

	// FileWorkers is the number of workers of the blocking file backend.
	FileWorkers int `mapstructure:"file_workers" json:"file_workers" yaml:"file_workers" toml:"file_workers" validate:"gte=0,lte=1024"`
}

// DefaultConfig returns the configuration applied when an option is left
// empty.
func DefaultConfig() Config {
	return Config{
		WorkerThreads: runtime.NumCPU(),
		FileBackend:   FileBackendBlocking,
		SocketBackend: SocketBackendCompletion,
		FileWorkers:   2,
	}
}

// Clean returns a copy of the config with defaults applied to empty
// fields.
func (c Config) Clean() Config {
	d := DefaultConfig()

	if c.WorkerThreads < 1 {
		c.WorkerThreads = d.WorkerThreads
	}

	if c.FileBackend == "" {
		c.FileBackend = d.FileBackend
	}

	if c.SocketBackend == "" {
		c.SocketBackend = d.SocketBackend
	}

	if c.FileWorkers < 1 {
		c.FileWorkers = d.FileWorkers
	}

	return c
}

// Validate checks the config constraints and returns an error carrying
// one parent per rejected field.
func (c Config) Validate() liberr.Error {
	err := validator.New().Struct(c)

	if e, ok := err.(*validator.InvalidValidationError); ok {
		return ErrorValidatorError.Error(e)
	}

	out := ErrorValidatorError.Error(nil)

	if err != nil {
		for _, e := range err.(validator.ValidationErrors) {
			//nolint goerr113
			out.AddParent(fmt.Errorf("config field '%s' is not validated by constraint '%s'", e.Field(), e.ActualTag()))
		}
	}

	if out.HasParent() {
		return out
	}

	return nil
}

// ConfigFromViper decodes the "engine" option table from the given viper
// instance: engine.worker_threads, engine.file_backend,
// engine.socket_backend, engine.file_queue_ceiling, engine.file_workers.
func ConfigFromViper(v *viper.Viper) (Config, liberr.Error) {
	var cfg Config

	if v == nil {
		return cfg.Clean(), nil
	}

	s := v.Sub("engine")

	if s == nil {
		return cfg.Clean(), nil
	}

	d, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})

	if err != nil {
		return cfg, ErrorParamEmpty.Error(err)
	}

	if err = d.Decode(s.AllSettings()); err != nil {
		return cfg, ErrorValidatorError.Error(err)
	}

	cfg = cfg.Clean()

	if e := cfg.Validate(); e != nil {
		return cfg, e
	}

	return cfg, nil
}
