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

// Package libsass compiles in-process with LibSass. It is the synchronous
// engine: imports are resolved from inside the compiler's callback, which
// blocks until the asynchronous importer reports.
package libsass

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/bep/golibsass/libsass"
	"github.com/bep/golibsass/libsass/libsasserrors"

	"bennypowers.dev/sassinject/engine"
	"bennypowers.dev/sassinject/importer"
	"bennypowers.dev/sassinject/resolve"
)

// Engine implements engine.Engine with LibSass.
type Engine struct {
	mu       sync.RWMutex
	importer importer.Func
}

// New creates a LibSass engine.
func New() *Engine {
	return &Engine{}
}

// Importer implements engine.Engine.
func (e *Engine) Importer(fn importer.Func) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.importer = fn
}

// Compile implements engine.Engine. LibSass diagnostics become a result with
// the compiler's own status; anything else is returned as an error.
func (e *Engine) Compile(ctx context.Context, source string, opts engine.Options) (engine.Result, error) {
	e.mu.RLock()
	fn := e.importer
	e.mu.RUnlock()

	o := libsass.Options{
		SassSyntax: opts.IndentedSyntax,
		SourceMapOptions: libsass.SourceMapOptions{
			Filename:       opts.SourceMapFile,
			Root:           opts.SourceMapRoot,
			InputPath:      opts.InputPath,
			OutputPath:     opts.OutputPath,
			Contents:       opts.SourceMapContents,
			EnableEmbedded: opts.SourceMapEmbed,
			OmitURL:        opts.SourceMapOmitURL,
		},
	}
	if fn != nil {
		o.ImportResolver = importResolver(ctx, fn, opts)
	}

	t, err := libsass.New(o)
	if err != nil {
		return engine.Result{}, err
	}
	res, err := t.Execute(source)
	if err != nil {
		var serr libsasserrors.Error
		if errors.As(err, &serr) {
			return diagnostic(serr), nil
		}
		return engine.Result{}, err
	}
	return engine.Result{Text: res.CSS, Map: res.SourceMapContent}, nil
}

// importResolver adapts the importer to LibSass' callback. prev is the path
// reported for the containing file, or the input label for the entry.
func importResolver(ctx context.Context, fn importer.Func, opts engine.Options) func(url, prev string) (string, string, bool) {
	return func(url, prev string) (string, string, bool) {
		from := prev
		if from == "" || from == opts.InputPath {
			from = opts.EntryURL()
		}
		res := importer.Wait(ctx, fn, resolve.ImportRequest{Name: url, From: from})
		if !res.OK() {
			return "", "", false
		}
		return res.Path, res.Content, true
	}
}

func diagnostic(serr libsasserrors.Error) engine.Result {
	status := serr.Status
	if status == 0 {
		status = 1
	}
	return engine.Result{Status: status, Formatted: strings.TrimSpace(serr.Error())}
}
