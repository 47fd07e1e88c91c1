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

package trace

import (
	"context"
	"runtime"
	"sync"

	"bennypowers.dev/sassinject/install"
	"bennypowers.dev/sassinject/pipeline"
)

// Trace loads address through p and returns its import graph. The compiled
// CSS is measured and dropped. p's engine must import through a Recorder.
// Load failures are reported in Graph.Error.
func Trace(ctx context.Context, p *pipeline.Pipeline, address string) *Graph {
	g := NewGraph(address)
	sink := install.InstallerFunc(func(css string, hasMap bool) error {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.CSSBytes += len(css)
		g.SourceMap = g.SourceMap || hasMap
		return nil
	})
	if err := p.WithInstaller(sink).Load(WithGraph(ctx, g), pipeline.LoadRequest{Address: address}); err != nil {
		g.Error = err.Error()
	}
	return g
}

// TraceBatch traces multiple addresses in parallel. Graphs arrive in
// completion order.
func TraceBatch(ctx context.Context, p *pipeline.Pipeline, addresses []string, parallel int) <-chan *Graph {
	results := make(chan *Graph, len(addresses))

	go func() {
		defer close(results)

		if parallel <= 0 {
			parallel = runtime.NumCPU()
		}

		jobs := make(chan string, len(addresses))

		var wg sync.WaitGroup
		for range parallel {
			wg.Go(func() {
				for address := range jobs {
					results <- Trace(ctx, p, address)
				}
			})
		}

		for _, address := range addresses {
			jobs <- address
		}
		close(jobs)

		wg.Wait()
	}()

	return results
}
