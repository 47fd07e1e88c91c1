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

// Package importer bridges compiler @import callbacks to source fetches.
//
// For every import the bridge resolves the logical location, probes the
// partial form (`_name.scss`) first and the plain form second, and reports
// exactly one Result to the compiler. A request that cannot be satisfied is
// Declined, never an error: the compiler decides what a missing import means.
package importer

import (
	"context"
	"fmt"

	"bennypowers.dev/sassinject/fetch"
	"bennypowers.dev/sassinject/internal/ctxlog"
	"bennypowers.dev/sassinject/resolve"
)

// Result is what the compiler receives for one import: Success or Declined.
type Result struct {
	// Content is the source text of the imported file.
	Content string
	// Path is the logical (non-partial) URL reported to the compiler.
	Path string
	// Source is the URL the content was actually read from.
	Source string
	ok     bool
}

// Success returns a result carrying content read from source for path.
func Success(content, path, source string) Result {
	return Result{Content: content, Path: path, Source: source, ok: true}
}

// Declined returns the result telling the compiler to fall back.
func Declined() Result {
	return Result{}
}

// OK reports whether the import was satisfied.
func (r Result) OK() bool {
	return r.ok
}

// Partial reports whether the content came from the partial form.
func (r Result) Partial() bool {
	return r.ok && r.Source != r.Path
}

// Func is the importer contract engines call for each @import.
// Implementations invoke done exactly once.
type Func func(ctx context.Context, req resolve.ImportRequest, done func(Result))

// Bridge resolves imports through a fetch.Loader.
type Bridge struct {
	loader *fetch.Loader
}

// New creates a bridge over the given loader.
func New(loader *fetch.Loader) *Bridge {
	return &Bridge{loader: loader}
}

// Import implements Func. done is called exactly once, even if resolution panics.
func (b *Bridge) Import(ctx context.Context, req resolve.ImportRequest, done func(Result)) {
	result := Declined()
	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(ctx).Error("import panicked", "name", req.Name, "from", req.From, "panic", fmt.Sprint(r))
			result = Declined()
		}
		done(result)
	}()
	result = b.Resolve(ctx, req)
}

// Resolve runs the partial-then-plain probe sequence for req.
func (b *Bridge) Resolve(ctx context.Context, req resolve.ImportRequest) Result {
	logger := ctxlog.FromContext(ctx)

	loc, err := resolve.Resolve(req)
	if err != nil {
		logger.Warn("import declined", "name", req.Name, "from", req.From, "error", err)
		return Declined()
	}

	partial := resolve.PartialForm(loc)
	if out := b.loader.Probe(ctx, partial.URL); out.Found {
		return Success(out.Text, loc.URL, partial.URL)
	}
	if out := b.loader.Probe(ctx, loc.URL); out.Found {
		return Success(out.Text, loc.URL, loc.URL)
	}

	logger.Warn("import not found", "name", req.Name, "from", req.From, "tried", []string{partial.URL, loc.URL})
	return Declined()
}

// Wait calls fn and blocks until it reports, or until ctx is done.
// Synchronous engines use it to drive an asynchronous importer.
func Wait(ctx context.Context, fn Func, req resolve.ImportRequest) Result {
	ch := make(chan Result, 1)
	go fn(ctx, req, func(r Result) {
		select {
		case ch <- r:
		default:
		}
	})
	select {
	case r := <-ch:
		return r
	case <-ctx.Done():
		return Declined()
	}
}
