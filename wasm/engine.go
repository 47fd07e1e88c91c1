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

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"syscall/js"

	"bennypowers.dev/sassinject/engine"
	"bennypowers.dev/sassinject/importer"
	"bennypowers.dev/sassinject/resolve"
)

// workerCapabilities reports Web Worker support.
type workerCapabilities struct{}

func (workerCapabilities) Workers() bool {
	return js.Global().Get("Worker").Type() == js.TypeFunction
}

// sassJSSelector uses the sass.js global: a worker-backed instance built
// from sass.worker.js under dir, or the synchronous Sass object itself.
func sassJSSelector(dir string) engine.Selector {
	return engine.SelectorFunc(func(ctx context.Context, workers bool) (engine.Engine, error) {
		sass := js.Global().Get("Sass")
		if sass.Type() != js.TypeFunction && sass.Type() != js.TypeObject {
			return nil, errors.New("sass.js is not loaded")
		}
		if workers {
			return newJSEngine(sass.New(dir + "sass.worker.js")), nil
		}
		return newJSEngine(sass), nil
	})
}

// factorySelector delegates construction to a host createEngine(workers).
func factorySelector(fn js.Value) engine.Selector {
	return engine.SelectorFunc(func(ctx context.Context, workers bool) (engine.Engine, error) {
		v, err := await(ctx, fn.Invoke(workers))
		if err != nil {
			return nil, err
		}
		if v.Type() != js.TypeObject {
			return nil, fmt.Errorf("createEngine returned %s", v.Type())
		}
		return newJSEngine(v), nil
	})
}

// jsEngine adapts a sass.js instance.
//
// sass.js reports the entry stylesheet as the input path, so the engine
// remembers the entry URL of the compile in flight. sass.js runs one compile
// at a time per instance; compiles are serialized here to match.
type jsEngine struct {
	v       js.Value
	compile sync.Mutex

	mu    sync.Mutex
	entry string
	input string
	ctx   context.Context
}

func newJSEngine(v js.Value) *jsEngine {
	return &jsEngine{v: v, ctx: context.Background()}
}

// Importer implements engine.Engine.
func (e *jsEngine) Importer(fn importer.Func) {
	cb := js.FuncOf(func(this js.Value, args []js.Value) any {
		request := arg(args, 0)
		done := arg(args, 1)

		e.mu.Lock()
		ctx, entry, input := e.ctx, e.entry, e.input
		e.mu.Unlock()

		from := request.Get("previous").String()
		if from == input || request.Get("previous").IsUndefined() {
			from = entry
		}
		req := resolve.ImportRequest{Name: request.Get("current").String(), From: from}

		go fn(ctx, req, func(r importer.Result) {
			if !r.OK() {
				done.Invoke()
				return
			}
			done.Invoke(map[string]any{"path": r.Path, "content": r.Content})
		})
		return nil
	})
	// Registered for the life of the process.
	e.v.Call("importer", cb)
}

// Compile implements engine.Engine.
func (e *jsEngine) Compile(ctx context.Context, source string, opts engine.Options) (engine.Result, error) {
	e.compile.Lock()
	defer e.compile.Unlock()

	e.mu.Lock()
	e.ctx, e.entry, e.input = ctx, opts.EntryURL(), opts.InputPath
	e.mu.Unlock()

	raw, err := json.Marshal(opts)
	if err != nil {
		return engine.Result{}, err
	}
	jsOpts := js.Global().Get("JSON").Call("parse", string(raw))

	ch := make(chan js.Value, 1)
	cb := js.FuncOf(func(this js.Value, args []js.Value) any {
		ch <- arg(args, 0)
		return nil
	})
	defer cb.Release()

	e.v.Call("compile", source, jsOpts, cb)

	var result js.Value
	select {
	case result = <-ch:
	case <-ctx.Done():
		return engine.Result{}, ctx.Err()
	}
	return decodeResult(result), nil
}

// decodeResult reads a sass.js result object. map may be an object or a
// string.
func decodeResult(v js.Value) engine.Result {
	if v.Type() != js.TypeObject {
		return engine.Result{Status: 1, Formatted: "compiler returned no result"}
	}
	var res engine.Result
	if st := v.Get("status"); st.Type() == js.TypeNumber {
		res.Status = st.Int()
	}
	if t := v.Get("text"); t.Type() == js.TypeString {
		res.Text = t.String()
	}
	if f := v.Get("formatted"); f.Type() == js.TypeString {
		res.Formatted = f.String()
	}
	switch m := v.Get("map"); m.Type() {
	case js.TypeString:
		res.Map = m.String()
	case js.TypeObject:
		res.Map = js.Global().Get("JSON").Call("stringify", m).String()
	}
	return res
}
