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

package httpd

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	liberr "github.com/gekit/golib/errors"
)

const (
	// DefaultMaxLineBytes bounds a single request line or header line.
	DefaultMaxLineBytes = 8192

	// DefaultMaxRequestHeaders bounds the header count of a request.
	DefaultMaxRequestHeaders = 64
)

// Config is the server configuration.
type Config struct {
	// ListenPort is the port bound by both the IPv4 and the IPv6
	// listener.
	ListenPort int `mapstructure:"listen_port" json:"listen_port" yaml:"listen_port" toml:"listen_port" validate:"gte=0,lte=65535"`

	// MaxLineBytes bounds a single request line or header line.
	MaxLineBytes int `mapstructure:"max_line_bytes" json:"max_line_bytes" yaml:"max_line_bytes" toml:"max_line_bytes" validate:"gte=0"`

	// MaxRequestHeaders bounds the header count of a request.
	MaxRequestHeaders int `mapstructure:"max_request_headers" json:"max_request_headers" yaml:"max_request_headers" toml:"max_request_headers" validate:"gte=0"`

	// Backlog is the listen backlog; zero or less applies the platform
	// maximum.
	Backlog int `mapstructure:"backlog" json:"backlog" yaml:"backlog" toml:"backlog"`
}

// Clean returns a copy of the config with defaults applied to empty
// fields.
func (c Config) Clean() Config {
	if c.MaxLineBytes < 1 {
		c.MaxLineBytes = DefaultMaxLineBytes
	}

	if c.MaxRequestHeaders < 1 {
		c.MaxRequestHeaders = DefaultMaxRequestHeaders
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

// ConfigFromViper decodes the "http" option table from the given viper
// instance: http.listen_port, http.max_line_bytes,
// http.max_request_headers, http.backlog.
func ConfigFromViper(v *viper.Viper) (Config, liberr.Error) {
	var cfg Config

	if v == nil {
		return cfg.Clean(), nil
	}

	s := v.Sub("http")

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
