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
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"syscall/js"

	"bennypowers.dev/sassinject/fetch"
	"bennypowers.dev/sassinject/install"
)

var logger = slog.New(slog.NewTextHandler(consoleWriter{}, &slog.HandlerOptions{Level: slog.LevelWarn}))

// consoleWriter sends log records to console.warn.
type consoleWriter struct{}

func (consoleWriter) Write(p []byte) (int, error) {
	js.Global().Get("console").Call("warn", strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

// await blocks until v settles if it is a thenable, and returns v otherwise.
func await(ctx context.Context, v js.Value) (js.Value, error) {
	if v.Type() != js.TypeObject || v.Get("then").Type() != js.TypeFunction {
		return v, nil
	}
	type settled struct {
		v   js.Value
		err error
	}
	ch := make(chan settled, 1)
	onResolve := js.FuncOf(func(this js.Value, args []js.Value) any {
		ch <- settled{v: arg(args, 0)}
		return nil
	})
	onReject := js.FuncOf(func(this js.Value, args []js.Value) any {
		reason := arg(args, 0)
		msg := "promise rejected"
		if !reason.IsUndefined() && !reason.IsNull() {
			msg = reason.Call("toString").String()
		}
		ch <- settled{err: errors.New(msg)}
		return nil
	})
	defer onResolve.Release()
	defer onReject.Release()

	v.Call("then", onResolve, onReject)
	select {
	case s := <-ch:
		return s.v, s.err
	case <-ctx.Done():
		return js.Undefined(), ctx.Err()
	}
}

func arg(args []js.Value, i int) js.Value {
	if i < len(args) {
		return args[i]
	}
	return js.Undefined()
}

// jsResponse adapts an XHR-like object carrying responseText.
type jsResponse struct {
	v js.Value
}

func (r jsResponse) ResponseText() string {
	return r.v.Get("responseText").String()
}

// jsFetcher adapts a host fetch function. A rejection or a missing value
// means the file does not exist.
func jsFetcher(fn js.Value) fetch.Fetcher {
	return fetch.ValueFetcher(func(ctx context.Context, u string) (any, error) {
		v, err := await(ctx, fn.Invoke(u))
		if err != nil {
			return nil, &fetch.FetchError{URL: u, StatusCode: 404, Message: err.Error()}
		}
		switch v.Type() {
		case js.TypeString:
			return v.String(), nil
		case js.TypeObject:
			if v.Get("responseText").Type() == js.TypeString {
				return jsResponse{v: v}, nil
			}
			return nil, fmt.Errorf("fetch %s: object without responseText", u)
		default:
			return nil, nil
		}
	})
}

// domInstaller appends elements to document.head.
type domInstaller struct{}

func (domInstaller) Install(css string, hasMap bool) error {
	doc := js.Global().Get("document")
	if doc.IsUndefined() {
		return errors.New("no document to install into")
	}
	n := install.Node(css, hasMap)
	el := doc.Call("createElement", n.Data)
	for _, a := range n.Attr {
		el.Call("setAttribute", a.Key, a.Val)
	}
	if n.FirstChild != nil {
		el.Set("textContent", n.FirstChild.Data)
	}
	doc.Get("head").Call("appendChild", el)
	return nil
}
