/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package auto selects between the worker-backed and in-process engines.
package auto

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"bennypowers.dev/sassinject/engine"
	"bennypowers.dev/sassinject/engine/dartsass"
	"bennypowers.dev/sassinject/engine/libsass"
	"bennypowers.dev/sassinject/internal/ctxlog"
)

// DefaultWorkerBinary is the dart-sass executable name looked up in Dir.
const DefaultWorkerBinary = "sass"

// Worker modes.
const (
	WorkersAuto = "auto"
	WorkersOn   = "on"
	WorkersOff  = "off"
)

// Config describes where the engines live and which one to prefer.
type Config struct {
	// Dir is the engine directory; the worker binary is resolved relative to it.
	// Empty means PATH lookup.
	Dir string
	// WorkerBinary is the dart-sass executable name or relative path.
	WorkerBinary string
	// Workers is one of WorkersAuto, WorkersOn, WorkersOff.
	Workers string
	// Timeout bounds each worker compile.
	Timeout time.Duration
}

// WorkerPath resolves the worker binary relative to the engine directory.
func (c Config) WorkerPath() string {
	name := c.WorkerBinary
	if name == "" {
		name = DefaultWorkerBinary
	}
	if filepath.IsAbs(name) || c.Dir == "" {
		return name
	}
	return filepath.Join(c.Dir, name)
}

// Capabilities reports worker support for cfg.
func Capabilities(cfg Config) (engine.Capabilities, error) {
	switch cfg.Workers {
	case WorkersOn:
		return engine.StaticCapabilities(true), nil
	case WorkersOff:
		return engine.StaticCapabilities(false), nil
	case WorkersAuto, "":
		_, err := exec.LookPath(cfg.WorkerPath())
		return engine.StaticCapabilities(err == nil), nil
	default:
		return nil, fmt.Errorf("invalid workers mode %q: must be one of auto, on, off", cfg.Workers)
	}
}

// Selector builds engines for cfg.
func Selector(cfg Config) engine.Selector {
	return engine.SelectorFunc(func(ctx context.Context, workers bool) (engine.Engine, error) {
		logger := ctxlog.FromContext(ctx)
		if !workers {
			logger.Debug("using in-process engine")
			return libsass.New(), nil
		}
		binary := cfg.WorkerPath()
		logger.Debug("using worker engine", "binary", binary)
		e, err := dartsass.Start(dartsass.Options{
			Binary:  binary,
			Timeout: cfg.Timeout,
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("starting %s: %w", binary, err)
		}
		return e, nil
	})
}
