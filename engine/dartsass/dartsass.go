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

// Package dartsass runs compiles in a Dart Sass embedded-protocol subprocess.
// It is the worker-backed engine: compilation happens outside this process.
package dartsass

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bep/godartsass/v2"

	"bennypowers.dev/sassinject/engine"
	"bennypowers.dev/sassinject/importer"
	"bennypowers.dev/sassinject/internal/ctxlog"
	"bennypowers.dev/sassinject/resolve"
)

// Options configures the subprocess.
type Options struct {
	// Binary is the path of the dart-sass executable.
	Binary string
	// Timeout bounds each compile; zero leaves the library default.
	Timeout time.Duration
	// Logger receives @warn and @debug output.
	Logger *slog.Logger
}

// Engine implements engine.Engine on top of godartsass.
type Engine struct {
	transpiler *godartsass.Transpiler

	mu       sync.RWMutex
	importer importer.Func
}

// Start launches the subprocess.
func Start(opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	t, err := godartsass.Start(godartsass.Options{
		DartSassEmbeddedFilename: opts.Binary,
		Timeout:                  opts.Timeout,
		LogEventHandler: func(e godartsass.LogEvent) {
			logger.Info("sass", "message", e.Message)
		},
	})
	if err != nil {
		return nil, err
	}
	return &Engine{transpiler: t}, nil
}

// Importer implements engine.Engine.
func (e *Engine) Importer(fn importer.Func) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.importer = fn
}

// Close stops the subprocess.
func (e *Engine) Close() error {
	return e.transpiler.Close()
}

// Compile implements engine.Engine.
func (e *Engine) Compile(ctx context.Context, source string, opts engine.Options) (engine.Result, error) {
	e.mu.RLock()
	fn := e.importer
	e.mu.RUnlock()

	syntax := godartsass.SourceSyntaxSCSS
	if opts.IndentedSyntax {
		syntax = godartsass.SourceSyntaxSASS
	}

	args := godartsass.Args{
		Source:                  source,
		URL:                     ToURL(opts.EntryURL()),
		SourceSyntax:            syntax,
		EnableSourceMap:         opts.SourceMapFile != "",
		SourceMapIncludeSources: opts.SourceMapContents,
	}
	if fn != nil {
		args.ImportResolver = newResolver(ctx, fn, opts.EntryURL())
	}

	res, err := e.transpiler.Execute(args)
	if err != nil {
		var sassErr godartsass.SassError
		if errors.As(err, &sassErr) {
			return engine.Result{Status: 1, Formatted: sassErr.Error()}, nil
		}
		return engine.Result{}, err
	}

	out := engine.Result{Text: res.CSS}
	if res.SourceMap != "" {
		out.Map = rewriteSourceMap(res.SourceMap, opts)
		out.Text = appendMapComment(out.Text, out.Map, opts)
	}
	return out, nil
}

// Scheme marks local paths handed to Dart Sass. Entry and loaded files never
// carry file: URLs, which Dart Sass would resolve against the disk itself.
const Scheme = "sassinject"

// resolver adapts the importer to Dart Sass' canonicalize/load protocol.
// Content found while canonicalizing is kept for the following load.
type resolver struct {
	ctx    context.Context
	fn     importer.Func
	entry  string
	loaded sync.Map // canonical URL -> importer.Result
}

func newResolver(ctx context.Context, fn importer.Func, entry string) *resolver {
	return &resolver{ctx: ctx, fn: fn, entry: entry}
}

// request turns a canonicalize URL into an import request. Dart Sass sends
// either the import as written, for loads from the entry, or the import
// already joined against the containing stylesheet. The protocol does not
// name the containing file, so joined URLs are requested from their directory.
func (r *resolver) request(raw string) resolve.ImportRequest {
	if !hasScheme(raw) {
		return resolve.ImportRequest{Name: raw, From: r.entry}
	}
	u := FromURL(raw)
	p, suffix := u, ""
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		p, suffix = u[:i], u[i:]
	}
	dir, name := path.Split(p)
	if name == "" {
		return resolve.ImportRequest{Name: u, From: r.entry}
	}
	return resolve.ImportRequest{Name: name + suffix, From: dir}
}

// CanonicalizeURL implements godartsass.ImportResolver.
func (r *resolver) CanonicalizeURL(raw string) (string, error) {
	res := importer.Wait(r.ctx, r.fn, r.request(raw))
	if !res.OK() {
		ctxlog.FromContext(r.ctx).Debug("canonicalize declined", "url", raw)
		return "", nil
	}
	canonical := ToURL(res.Path)
	r.loaded.Store(canonical, res)
	return canonical, nil
}

// Load returns the content found for a canonical URL.
func (r *resolver) Load(canonical string) (godartsass.Import, error) {
	v, ok := r.loaded.Load(canonical)
	if !ok {
		res := importer.Wait(r.ctx, r.fn, resolve.ImportRequest{Name: FromURL(canonical), From: r.entry})
		if !res.OK() {
			return godartsass.Import{}, errors.New("import not found: " + canonical)
		}
		v = res
	}
	res := v.(importer.Result)
	syntax := godartsass.SourceSyntaxSCSS
	switch strings.ToLower(filepath.Ext(res.Path)) {
	case ".sass":
		syntax = godartsass.SourceSyntaxSASS
	case ".css":
		syntax = godartsass.SourceSyntaxCSS
	}
	return godartsass.Import{Content: res.Content, SourceSyntax: syntax}, nil
}

// ToURL turns a local path or file URL into a sassinject URL; other URLs
// pass through. Dart Sass requires canonical URLs to be absolute.
func ToURL(p string) string {
	p = strings.TrimPrefix(p, "file://")
	if hasScheme(p) {
		return p
	}
	if !strings.HasPrefix(p, "/") {
		if abs, err := filepath.Abs(p); err == nil {
			p = filepath.ToSlash(abs)
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
	}
	return Scheme + "://" + p
}

// FromURL reverses ToURL.
func FromURL(u string) string {
	return strings.TrimPrefix(u, Scheme+"://")
}

// hasScheme reports whether s is a URL with a scheme. Single letters are
// drive letters.
func hasScheme(s string) bool {
	u, err := url.Parse(s)
	return err == nil && len(u.Scheme) > 1
}

// rewriteSourceMap applies the root and output labels to the map.
func rewriteSourceMap(sourceMap string, opts engine.Options) string {
	var m map[string]any
	if err := json.Unmarshal([]byte(sourceMap), &m); err != nil {
		return sourceMap
	}
	if opts.SourceMapRoot != "" {
		m["sourceRoot"] = opts.SourceMapRoot
	}
	if opts.OutputPath != "" {
		m["file"] = opts.OutputPath
	}
	if !opts.SourceMapContents {
		delete(m, "sourcesContent")
	}
	if sources, ok := m["sources"].([]any); ok {
		for i, src := range sources {
			if s, ok := src.(string); ok {
				sources[i] = FromURL(s)
			}
		}
	}
	out, err := json.Marshal(m)
	if err != nil {
		return sourceMap
	}
	return string(out)
}

// appendMapComment adds the sourceMappingURL comment the options ask for.
func appendMapComment(css, sourceMap string, opts engine.Options) string {
	if opts.SourceMapOmitURL {
		return css
	}
	var ref string
	if opts.SourceMapEmbed {
		ref = "data:application/json;charset=utf-8;base64," + base64.StdEncoding.EncodeToString([]byte(sourceMap))
	} else {
		ref = opts.SourceMapFile
	}
	if !strings.HasSuffix(css, "\n") {
		css += "\n"
	}
	return css + "/*# sourceMappingURL=" + ref + " */"
}
