//go:build js && wasm

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

// Package main provides the WASM entry point for sassinject.
//
// It exposes a global `sassinject` object:
//
//	sassinject.configure({fetch, createEngine, engineDir, cdn})
//	sassinject.load(address) -> Promise<void>
//
// fetch(url) may return a string, an object with responseText, or a Promise
// of either. createEngine(workers) returns a sass.js-style instance (or a
// Promise of one) with importer(fn) and compile(source, options, callback).
// cdn names the provider (or URL template) that npm: addresses expand through.
package main

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"syscall/js"

	"bennypowers.dev/sassinject/cdn"
	"bennypowers.dev/sassinject/engine"
	"bennypowers.dev/sassinject/fetch"
	"bennypowers.dev/sassinject/importer"
	"bennypowers.dev/sassinject/internal/ctxlog"
	"bennypowers.dev/sassinject/internal/version"
	"bennypowers.dev/sassinject/pipeline"
)

// host holds the process-wide pipeline. configure may replace it until the
// engine has been requested.
type host struct {
	mu       sync.Mutex
	pipeline *pipeline.Pipeline
	gate     *engine.Gate
	cdn      *cdn.Resolver
}

var current host

func main() {
	sassinject := make(map[string]any)
	sassinject["configure"] = js.FuncOf(configure)
	sassinject["load"] = js.FuncOf(load)
	sassinject["version"] = version.GetVersion()

	js.Global().Set("sassinject", js.ValueOf(sassinject))

	// Keep the program running
	select {}
}

// configure installs the host collaborators. Once a load has started the
// engine it returns an Error value instead of undefined.
func configure(this js.Value, args []js.Value) any {
	var opts js.Value
	if len(args) > 0 {
		opts = args[0]
	}
	if err := current.configure(opts); err != nil {
		js.Global().Get("console").Call("error", err.Error())
		return js.Global().Get("Error").New(err.Error())
	}
	return js.Undefined()
}

func (h *host) configure(opts js.Value) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.gate != nil && h.gate.State() != engine.Uninitialized {
		return errors.New("sassinject: configure called after the engine started")
	}

	var fetcher fetch.Fetcher = fetch.NewHTTPFetcher()
	if fn := get(opts, "fetch"); fn.Type() == js.TypeFunction {
		fetcher = jsFetcher(fn)
	}

	engineDir := "./"
	if dir := get(opts, "engineDir"); dir.Type() == js.TypeString {
		engineDir = dir.String()
	}
	var selector engine.Selector = sassJSSelector(engineDir)
	if fn := get(opts, "createEngine"); fn.Type() == js.TypeFunction {
		selector = factorySelector(fn)
	}

	cdnName := ""
	if v := get(opts, "cdn"); v.Type() == js.TypeString {
		cdnName = v.String()
	}
	resolver, err := cdn.ForName(cdnName)
	if err != nil {
		return err
	}

	loader := fetch.NewLoader(fetcher)
	h.gate = engine.NewGate(selector, workerCapabilities{}, importer.New(loader).Import)
	h.pipeline = pipeline.New(loader, h.gate, domInstaller{})
	h.cdn = resolver
	return nil
}

// get returns the pipeline and CDN resolver, configuring defaults on first use.
func (h *host) get() (*pipeline.Pipeline, *cdn.Resolver) {
	h.mu.Lock()
	p, r := h.pipeline, h.cdn
	h.mu.Unlock()
	if p != nil {
		return p, r
	}
	_ = h.configure(js.Undefined())
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pipeline, h.cdn
}

// load compiles and installs the stylesheet at args[0].
// Returns a Promise that resolves once the stylesheet is installed.
func load(this js.Value, args []js.Value) any {
	handler := js.FuncOf(func(this js.Value, promiseArgs []js.Value) any {
		resolve := promiseArgs[0]
		reject := promiseArgs[1]

		go func() {
			if len(args) < 1 || args[0].Type() != js.TypeString {
				reject.Invoke(js.Global().Get("Error").New("load requires an address string"))
				return
			}
			p, resolver := current.get()
			address, err := resolver.Resolve(args[0].String())
			if err != nil {
				reject.Invoke(js.Global().Get("Error").New(err.Error()))
				return
			}
			address = documentURL(address)
			ctx := ctxlog.WithLogger(context.Background(), logger)
			if err := p.Load(ctx, pipeline.LoadRequest{Address: address}); err != nil {
				reject.Invoke(js.Global().Get("Error").New(err.Error()))
				return
			}
			resolve.Invoke(js.Undefined())
		}()

		return nil
	})

	promise := js.Global().Get("Promise").New(handler)
	handler.Release()
	return promise
}

// documentURL resolves address against the document's base URI.
func documentURL(address string) string {
	doc := js.Global().Get("document")
	if doc.IsUndefined() {
		return address
	}
	base, err := url.Parse(doc.Get("baseURI").String())
	if err != nil {
		return address
	}
	ref, err := url.Parse(address)
	if err != nil {
		return address
	}
	return base.ResolveReference(ref).String()
}

// get reads a property of an options object, tolerating undefined and null.
func get(v js.Value, key string) js.Value {
	if v.IsUndefined() || v.IsNull() || v.Type() != js.TypeObject {
		return js.Undefined()
	}
	return v.Get(key)
}
