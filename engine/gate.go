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

package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"bennypowers.dev/sassinject/importer"
	"bennypowers.dev/sassinject/internal/ctxlog"
)

// ErrInitFailed wraps the cause of a failed engine initialization.
var ErrInitFailed = errors.New("engine initialization failed")

// ErrClosed is returned by Get after Close.
var ErrClosed = errors.New("engine gate closed")

// State is the lifecycle state of a Gate.
type State int

const (
	Uninitialized State = iota
	Initializing
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Gate initializes an engine at most once and hands it to every caller.
//
// The first Get starts initialization; concurrent callers wait on the same
// pending slot. The importer is registered before Ready is published.
// Failure is terminal: every later Get returns the same error.
type Gate struct {
	selector Selector
	caps     Capabilities
	importer importer.Func

	mu      sync.Mutex
	state   State
	pending chan struct{}
	engine  Engine
	err     error
}

// NewGate creates a gate that selects with selector according to caps and
// registers imp on the engine it builds.
func NewGate(selector Selector, caps Capabilities, imp importer.Func) *Gate {
	return &Gate{
		selector: selector,
		caps:     caps,
		importer: imp,
	}
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Get returns the engine, initializing it on first use.
// A caller whose ctx ends while waiting gets ctx.Err(); initialization
// itself carries on for the other callers.
func (g *Gate) Get(ctx context.Context) (Engine, error) {
	g.mu.Lock()
	switch g.state {
	case Ready:
		e := g.engine
		g.mu.Unlock()
		return e, nil
	case Failed:
		err := g.err
		g.mu.Unlock()
		return nil, err
	case Uninitialized:
		g.state = Initializing
		g.pending = make(chan struct{})
		go g.initialize(context.WithoutCancel(ctx))
	}
	pending := g.pending
	g.mu.Unlock()

	select {
	case <-pending:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == Failed {
		return nil, g.err
	}
	return g.engine, nil
}

func (g *Gate) initialize(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	var (
		e   Engine
		err error
	)
	defer func() {
		if r := recover(); r != nil {
			e, err = nil, fmt.Errorf("panic: %v", r)
		}
		g.mu.Lock()
		if err != nil {
			g.state = Failed
			g.err = fmt.Errorf("%w: %w", ErrInitFailed, err)
			logger.Error("engine unavailable", "error", err)
		} else {
			g.state = Ready
			g.engine = e
		}
		close(g.pending)
		g.mu.Unlock()
	}()

	workers := g.caps != nil && g.caps.Workers()
	logger.Debug("selecting engine", "workers", workers)
	e, err = g.selector.Select(ctx, workers)
	if err != nil {
		return
	}
	if e == nil {
		err = errors.New("selector returned no engine")
		return
	}
	e.Importer(g.importer)
}

// Close shuts down a ready engine that implements io.Closer.
// After Close, Get returns ErrClosed.
func (g *Gate) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == Initializing {
		return fmt.Errorf("cannot close while initializing")
	}
	e := g.engine
	g.engine = nil
	g.state = Failed
	g.err = ErrClosed
	if c, ok := e.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
