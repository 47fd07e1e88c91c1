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

// Package enginetest provides an in-memory engine for tests.
//
// Fake follows @import statements through the registered importer, inlines
// what it gets back, and renders declarations the way LibSass' expanded
// style would for flat rules. It is not a Sass compiler.
package enginetest

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"bennypowers.dev/sassinject/engine"
	"bennypowers.dev/sassinject/importer"
	"bennypowers.dev/sassinject/resolve"
)

var (
	importPattern   = regexp.MustCompile(`@import\s+["']([^"']+)["']\s*;?`)
	variablePattern = regexp.MustCompile(`\$[\w-]+\s*:[^;]*;`)
	declPattern     = regexp.MustCompile(`([\w-]+)\s*:\s*([^;{}]+);`)
)

// Fake is a test double implementing engine.Engine.
type Fake struct {
	mu        sync.Mutex
	importer  importer.Func
	imports   []resolve.ImportRequest
	options   []engine.Options
	registers atomic.Int32
	compiles  atomic.Int32

	// EmitMap makes compiles report a source map and embed it in the text.
	EmitMap bool
	// Respond, when set, replaces the built-in rendering.
	Respond func(source string, opts engine.Options) engine.Result
}

// NewFake creates a fake engine.
func NewFake() *Fake {
	return &Fake{}
}

// Importer implements engine.Engine.
func (f *Fake) Importer(fn importer.Func) {
	f.registers.Add(1)
	f.mu.Lock()
	f.importer = fn
	f.mu.Unlock()
}

// Registrations returns how many times Importer was called.
func (f *Fake) Registrations() int {
	return int(f.registers.Load())
}

// Compiles returns how many times Compile was called.
func (f *Fake) Compiles() int {
	return int(f.compiles.Load())
}

// Imports returns every import request issued so far.
func (f *Fake) Imports() []resolve.ImportRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]resolve.ImportRequest(nil), f.imports...)
}

// LastOptions returns the options of the most recent compile.
func (f *Fake) LastOptions() (engine.Options, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.options) == 0 {
		return engine.Options{}, false
	}
	return f.options[len(f.options)-1], true
}

// Compile implements engine.Engine.
func (f *Fake) Compile(ctx context.Context, source string, opts engine.Options) (engine.Result, error) {
	f.compiles.Add(1)
	f.mu.Lock()
	f.options = append(f.options, opts)
	fn := f.importer
	f.mu.Unlock()

	expanded, err := f.expand(ctx, fn, source, opts.EntryURL(), opts.InputPath)
	if err != nil {
		return engine.Result{Status: 1, Formatted: err.Error()}, nil
	}
	if f.Respond != nil {
		return f.Respond(expanded, opts), nil
	}
	return render(expanded, opts, f.EmitMap), nil
}

func (f *Fake) expand(ctx context.Context, fn importer.Func, source, from, label string) (string, error) {
	var failure error
	out := importPattern.ReplaceAllStringFunc(source, func(stmt string) string {
		if failure != nil {
			return ""
		}
		name := importPattern.FindStringSubmatch(stmt)[1]
		req := resolve.ImportRequest{Name: name, From: from}
		f.mu.Lock()
		f.imports = append(f.imports, req)
		f.mu.Unlock()

		if fn == nil {
			failure = fmt.Errorf("%s:1: error: no importer registered for %q", label, name)
			return ""
		}
		r := importer.Wait(ctx, fn, req)
		if !r.OK() {
			failure = fmt.Errorf("%s:1: error: File to import not found or unreadable: %s.", label, name)
			return ""
		}
		nested, err := f.expand(ctx, fn, r.Content, r.Path, r.Path)
		if err != nil {
			failure = err
			return ""
		}
		return nested
	})
	return out, failure
}

func render(source string, opts engine.Options, emitMap bool) engine.Result {
	css := variablePattern.ReplaceAllString(source, "")
	css = declPattern.ReplaceAllString(css, "$1: $2;")
	css = strings.TrimSpace(css)
	if css != "" {
		css += "\n"
	}

	result := engine.Result{Text: css}
	if emitMap && opts.SourceMapFile != "" {
		sourceMap := fmt.Sprintf(`{"version":3,"file":%q,"sourceRoot":%q,"sources":[%q],"mappings":""}`,
			opts.OutputPath, opts.SourceMapRoot, opts.InputPath)
		result.Map = sourceMap
		if opts.SourceMapEmbed && !opts.SourceMapOmitURL {
			result.Text += "\n/*# sourceMappingURL=data:application/json;base64," +
				base64.StdEncoding.EncodeToString([]byte(sourceMap)) + " */"
		}
	}
	return result
}
