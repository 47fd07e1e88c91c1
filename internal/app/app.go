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

// Package app wires the collaborators shared by the CLI commands: one
// fetcher, one import bridge and one engine gate per process.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/viper"

	"bennypowers.dev/sassinject/cdn"
	"bennypowers.dev/sassinject/engine"
	"bennypowers.dev/sassinject/engine/auto"
	"bennypowers.dev/sassinject/fetch"
	"bennypowers.dev/sassinject/fs"
	"bennypowers.dev/sassinject/importer"
	"bennypowers.dev/sassinject/install"
	"bennypowers.dev/sassinject/internal/ctxlog"
	"bennypowers.dev/sassinject/pipeline"
)

// Config is the process configuration.
type Config struct {
	Engine    auto.Config
	LogLevel  string
	LogFormat string
	// CDN is a provider name or URL template for npm: addresses.
	CDN string
	// Timeout bounds each command; zero means no limit.
	Timeout time.Duration
}

// ConfigFromViper reads Config from the bound flags, environment and config file.
func ConfigFromViper() Config {
	level := viper.GetString("log-level")
	if viper.GetBool("verbose") {
		level = "debug"
	}
	return Config{
		Engine: auto.Config{
			Dir:          viper.GetString("engine.dir"),
			WorkerBinary: viper.GetString("engine.worker-binary"),
			Workers:      viper.GetString("engine.workers"),
			Timeout:      viper.GetDuration("timeout"),
		},
		LogLevel:  level,
		LogFormat: viper.GetString("log-format"),
		CDN:       viper.GetString("cdn"),
		Timeout:   viper.GetDuration("timeout"),
	}
}

// App holds the per-process collaborators.
type App struct {
	Logger *slog.Logger
	Loader *fetch.Loader
	Gate   *engine.Gate

	cfg      Config
	cdn      *cdn.Resolver
	fetcher  fetch.Fetcher
	selector engine.Selector
	wrap     func(importer.Func) importer.Func
}

// Option customizes New.
type Option func(*App)

// WithFetcher replaces the default local/network fetcher.
func WithFetcher(f fetch.Fetcher) Option {
	return func(a *App) { a.fetcher = f }
}

// WithSelector replaces the engine selector derived from Config.
func WithSelector(s engine.Selector) Option {
	return func(a *App) { a.selector = s }
}

// WrapImporter wraps the import bridge before it is registered on the engine.
func WrapImporter(wrap func(importer.Func) importer.Func) Option {
	return func(a *App) { a.wrap = wrap }
}

// New builds an App. logOut receives log records.
func New(cfg Config, logOut io.Writer, opts ...Option) (*App, error) {
	a := &App{
		Logger: NewLogger(cfg.LogLevel, cfg.LogFormat, logOut),
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.fetcher == nil {
		a.fetcher = fetch.NewMux(fetch.NewHTTPFetcher(), fetch.NewFSFetcher(fs.NewOSFileSystem()))
	}
	if a.selector == nil {
		a.selector = auto.Selector(cfg.Engine)
	}

	caps, err := auto.Capabilities(cfg.Engine)
	if err != nil {
		return nil, err
	}
	if a.cdn, err = cdn.ForName(cfg.CDN); err != nil {
		return nil, err
	}

	a.Loader = fetch.NewLoader(a.fetcher)
	imp := importer.New(a.Loader).Import
	if a.wrap != nil {
		imp = a.wrap(imp)
	}
	a.Gate = engine.NewGate(a.selector, caps, imp)
	a.Logger.Debug("app ready", "workers", caps.Workers(), "engineDir", cfg.Engine.Dir)
	return a, nil
}

// Context returns ctx carrying the logger and the configured timeout.
func (a *App) Context(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = ctxlog.WithLogger(ctx, a.Logger)
	if a.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, a.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

// Pipeline returns a pipeline over the shared gate.
func (a *App) Pipeline(installer install.Installer) *pipeline.Pipeline {
	return pipeline.New(a.Loader, a.Gate, installer)
}

// Close shuts the engine down.
func (a *App) Close() error {
	if a.Gate.State() != engine.Ready {
		return nil
	}
	return a.Gate.Close()
}

// Address turns a command-line argument into a load address: npm: package
// addresses expand to CDN URLs, other URLs pass through, and local paths
// become absolute.
func (a *App) Address(arg string) (string, error) {
	if cdn.IsPackageAddress(arg) {
		return a.cdn.Resolve(arg)
	}
	return localAddress(arg)
}

// Addresses collects load addresses from arguments and glob matches,
// keeping the first occurrence of each.
func (a *App) Addresses(args []string, globPattern string) ([]string, error) {
	seen := make(map[string]struct{})
	var addresses []string
	add := func(arg string) error {
		address, err := a.Address(arg)
		if err != nil {
			return err
		}
		if _, exists := seen[address]; !exists {
			seen[address] = struct{}{}
			addresses = append(addresses, address)
		}
		return nil
	}

	for _, arg := range args {
		if err := add(arg); err != nil {
			return nil, err
		}
	}
	if globPattern != "" {
		matches, err := doublestar.FilepathGlob(globPattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern: %w", err)
		}
		for _, match := range matches {
			if err := add(match); err != nil {
				return nil, err
			}
		}
	}
	return addresses, nil
}

// localAddress absolutizes paths. Single-letter schemes are drive letters.
func localAddress(arg string) (string, error) {
	if u, err := url.Parse(arg); err == nil && len(u.Scheme) > 1 {
		return arg, nil
	}
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", arg, err)
	}
	return filepath.ToSlash(abs), nil
}
