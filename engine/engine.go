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

// Package engine defines the compiler engine contract and the gate that
// initializes one engine per process.
package engine

import (
	"context"

	"bennypowers.dev/sassinject/importer"
)

// Options configures a single compile. The JSON names are the keys the
// compiler expects and must not change.
type Options struct {
	IndentedSyntax    bool            `json:"indentedSyntax"`
	Importer          ImporterOptions `json:"importer"`
	SourceMapFile     string          `json:"sourceMapFile"`
	SourceMapRoot     string          `json:"sourceMapRoot"`
	InputPath         string          `json:"inputPath"`
	OutputPath        string          `json:"outputPath"`
	SourceMapContents bool            `json:"sourceMapContents"`
	SourceMapEmbed    bool            `json:"sourceMapEmbed"`
	SourceMapOmitURL  bool            `json:"sourceMapOmitUrl"`
}

// ImporterOptions is passed through to the importer.
type ImporterOptions struct {
	// URLBase is the directory of the entry stylesheet, with a trailing slash.
	URLBase string `json:"urlBase"`
}

// EntryURL is the URL imports in the entry stylesheet resolve against.
func (o Options) EntryURL() string {
	return o.Importer.URLBase + o.InputPath
}

// Result is the compiler's report for one compile.
// Status 0 carries Text and optionally Map; anything else carries Formatted.
type Result struct {
	Status    int    `json:"status"`
	Text      string `json:"text,omitempty"`
	Map       string `json:"map,omitempty"`
	Formatted string `json:"formatted,omitempty"`
}

// OK reports whether the compile succeeded.
func (r Result) OK() bool {
	return r.Status == 0
}

// HasMap reports whether a source map accompanies the output.
func (r Result) HasMap() bool {
	return r.Map != ""
}

// Engine is a compiler instance.
type Engine interface {
	// Importer registers the function called for every @import.
	Importer(fn importer.Func)
	// Compile compiles source. Compile failures are reported in Result;
	// the error is reserved for the engine itself failing.
	Compile(ctx context.Context, source string, opts Options) (Result, error)
}

// Selector constructs an engine, picking the worker-backed variant when
// workers is true and the in-thread variant otherwise.
type Selector interface {
	Select(ctx context.Context, workers bool) (Engine, error)
}

// SelectorFunc adapts a function to the Selector interface.
type SelectorFunc func(ctx context.Context, workers bool) (Engine, error)

func (f SelectorFunc) Select(ctx context.Context, workers bool) (Engine, error) {
	return f(ctx, workers)
}

// Capabilities describes the execution environment.
type Capabilities interface {
	// Workers reports whether background-worker execution is available.
	Workers() bool
}

// StaticCapabilities is a fixed capability report.
type StaticCapabilities bool

func (c StaticCapabilities) Workers() bool {
	return bool(c)
}
