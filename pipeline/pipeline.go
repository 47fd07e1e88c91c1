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

// Package pipeline loads a stylesheet module: fetch, compile, install.
//
// A load runs its steps strictly in order. Only two failures reach the
// caller: the entry file could not be fetched, or the compiler reported a
// non-zero status. Problems with nested imports are settled by the importer.
package pipeline

import (
	"context"
	"fmt"

	"bennypowers.dev/sassinject/engine"
	"bennypowers.dev/sassinject/fetch"
	"bennypowers.dev/sassinject/install"
	"bennypowers.dev/sassinject/internal/ctxlog"
	"bennypowers.dev/sassinject/resolve"
)

// Fixed source-map labels passed to every compile.
const (
	SourceMapFile = "style.css.map"
	SourceMapRoot = "root"
	InputPath     = "stdin"
	OutputPath    = "stdout"
)

// LoadRequest names the entry stylesheet of one module load.
type LoadRequest struct {
	Address string
}

// RootFetchError reports that the entry stylesheet could not be fetched.
type RootFetchError struct {
	Address string
	Err     error
}

func (e *RootFetchError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Address, e.Err)
}

func (e *RootFetchError) Unwrap() error {
	return e.Err
}

// CompileError carries the compiler's formatted diagnostic unchanged.
type CompileError struct {
	Formatted string
}

func (e *CompileError) Error() string {
	return e.Formatted
}

// Pipeline sequences the steps of a load.
type Pipeline struct {
	loader    *fetch.Loader
	gate      *engine.Gate
	installer install.Installer
}

// New creates a pipeline. All pipelines sharing gate share one engine.
func New(loader *fetch.Loader, gate *engine.Gate, installer install.Installer) *Pipeline {
	return &Pipeline{
		loader:    loader,
		gate:      gate,
		installer: installer,
	}
}

// WithInstaller returns a new Pipeline that installs into installer.
func (p *Pipeline) WithInstaller(installer install.Installer) *Pipeline {
	return &Pipeline{
		loader:    p.loader,
		gate:      p.gate,
		installer: installer,
	}
}

// BuildOptions derives the compile options for an entry address.
func BuildOptions(address string) engine.Options {
	return engine.Options{
		IndentedSyntax:    resolve.IsIndented(address),
		Importer:          engine.ImporterOptions{URLBase: resolve.BaseOf(address)},
		SourceMapFile:     SourceMapFile,
		SourceMapRoot:     SourceMapRoot,
		InputPath:         InputPath,
		OutputPath:        OutputPath,
		SourceMapContents: true,
		SourceMapEmbed:    true,
		SourceMapOmitURL:  false,
	}
}

// Load fetches, compiles and installs the stylesheet at req.Address.
// An empty entry file installs nothing and succeeds.
func (p *Pipeline) Load(ctx context.Context, req LoadRequest) error {
	logger := ctxlog.FromContext(ctx).With("address", req.Address)

	opts := BuildOptions(req.Address)

	source, err := p.loader.Require(ctx, req.Address)
	if err != nil {
		return &RootFetchError{Address: req.Address, Err: err}
	}
	if source == "" {
		logger.Debug("empty stylesheet, nothing to install")
		return nil
	}

	eng, err := p.gate.Get(ctx)
	if err != nil {
		return err
	}

	result, err := eng.Compile(ctx, source, opts)
	if err != nil {
		return fmt.Errorf("compiling %s: %w", req.Address, err)
	}
	if !result.OK() {
		logger.Debug("compile failed", "status", result.Status)
		return &CompileError{Formatted: result.Formatted}
	}

	if err := p.installer.Install(result.Text, result.HasMap()); err != nil {
		return fmt.Errorf("installing %s: %w", req.Address, err)
	}
	logger.Debug("stylesheet installed", "bytes", len(result.Text), "map", result.HasMap())
	return nil
}
