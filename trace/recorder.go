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

// Package trace records the import graph of stylesheet loads.
//
// A Recorder sits between an engine and the import bridge. Loads that carry
// a Graph in their context get every import request, and how it was
// answered, appended to that graph.
package trace

import (
	"context"
	"slices"
	"sync"

	"bennypowers.dev/sassinject/importer"
	"bennypowers.dev/sassinject/resolve"
)

// Edge is one @import and its outcome.
type Edge struct {
	From     string `json:"from"`
	Name     string `json:"name"`
	Path     string `json:"path,omitempty"`
	Source   string `json:"source,omitempty"`
	Partial  bool   `json:"partial,omitempty"`
	Declined bool   `json:"declined,omitempty"`
}

// Graph is the import graph of a single load.
type Graph struct {
	Entry     string `json:"entry"`
	Imports   []Edge `json:"imports"`
	CSSBytes  int    `json:"cssBytes"`
	SourceMap bool   `json:"sourceMap,omitempty"`
	Error     string `json:"error,omitempty"`

	mu sync.Mutex
}

// NewGraph creates an empty graph for entry.
func NewGraph(entry string) *Graph {
	return &Graph{Entry: entry, Imports: []Edge{}}
}

func (g *Graph) add(e Edge) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Imports = append(g.Imports, e)
}

// Files returns the entry followed by every file an import was read from,
// in first-seen order.
func (g *Graph) Files() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	files := []string{g.Entry}
	for _, e := range g.Imports {
		if e.Declined || slices.Contains(files, e.Source) {
			continue
		}
		files = append(files, e.Source)
	}
	return files
}

// Declined returns the imports no file was found for.
func (g *Graph) Declined() []Edge {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []Edge
	for _, e := range g.Imports {
		if e.Declined {
			out = append(out, e)
		}
	}
	return out
}

type graphKey struct{}

// WithGraph returns a context whose imports are recorded into g.
func WithGraph(ctx context.Context, g *Graph) context.Context {
	return context.WithValue(ctx, graphKey{}, g)
}

// GraphFrom returns the graph carried by ctx, or nil.
func GraphFrom(ctx context.Context) *Graph {
	g, _ := ctx.Value(graphKey{}).(*Graph)
	return g
}

// Recorder wraps an importer and records what it answers.
type Recorder struct {
	next importer.Func
}

// NewRecorder wraps next.
func NewRecorder(next importer.Func) *Recorder {
	return &Recorder{next: next}
}

// Import implements importer.Func.
func (r *Recorder) Import(ctx context.Context, req resolve.ImportRequest, done func(importer.Result)) {
	g := GraphFrom(ctx)
	if g == nil {
		r.next(ctx, req, done)
		return
	}
	r.next(ctx, req, func(res importer.Result) {
		g.add(Edge{
			From:     req.From,
			Name:     req.Name,
			Path:     res.Path,
			Source:   res.Source,
			Partial:  res.Partial(),
			Declined: !res.OK(),
		})
		done(res)
	})
}
