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

// Package inject compiles stylesheets into HTML files in place.
//
// Each file's stylesheets are discovered from `<link rel="stylesheet/scss">`
// and `<link rel="stylesheet/sass">` tags, plus any addresses given in
// Options. Every stylesheet is loaded through a pipeline whose installer is
// the file's head, and the result is written back.
package inject

import (
	"context"
	"errors"
	iofs "io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"bennypowers.dev/sassinject/fs"
	"bennypowers.dev/sassinject/install"
	"bennypowers.dev/sassinject/internal/ctxlog"
	"bennypowers.dev/sassinject/pipeline"
)

// defaultPerm applies when the original file mode cannot be read.
const defaultPerm = 0644

// Options configures the inject command.
type Options struct {
	// Addresses are loaded into every file after the discovered ones.
	Addresses []string
	// Root is the directory that root-relative hrefs resolve against.
	Root string
	// Parallel is the number of parallel workers for batch mode.
	Parallel int
	// DryRun prevents writing files when true.
	DryRun bool
}

// Result holds the result of injecting into a single file.
type Result struct {
	File        string   `json:"file"`
	Modified    bool     `json:"modified"`
	Stylesheets []string `json:"stylesheets,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// Stats holds aggregate statistics from an inject operation.
type Stats struct {
	Total    int   `json:"total"`
	Updated  int   `json:"updated"`
	Skipped  int   `json:"skipped"`
	Errors   int   `json:"errors"`
	Duration int64 `json:"duration_ms"`
}

// Add counts one result.
func (s *Stats) Add(r Result) {
	switch {
	case r.Error != "":
		s.Errors++
	case r.Modified:
		s.Updated++
	default:
		s.Skipped++
	}
}

// InjectBatch injects stylesheets into multiple HTML files in parallel.
// All files share p's engine.
func InjectBatch(ctx context.Context, osfs fs.FileSystem, p *pipeline.Pipeline, files []string, opts Options) <-chan Result {
	results := make(chan Result, len(files))

	go func() {
		defer close(results)

		parallel := opts.Parallel
		if parallel <= 0 {
			parallel = runtime.NumCPU()
		}

		jobs := make(chan string, len(files))

		var wg sync.WaitGroup
		for range parallel {
			wg.Go(func() {
				for htmlFile := range jobs {
					results <- injectFile(ctx, osfs, p, htmlFile, opts)
				}
			})
		}

		for _, file := range files {
			jobs <- file
		}
		close(jobs)

		wg.Wait()
	}()

	return results
}

// injectFile loads every stylesheet of one HTML file into its head.
func injectFile(ctx context.Context, osfs fs.FileSystem, p *pipeline.Pipeline, htmlFile string, opts Options) Result {
	result := Result{File: htmlFile}
	logger := ctxlog.FromContext(ctx).With("file", htmlFile)

	content, err := osfs.ReadFile(htmlFile)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	doc, err := install.ParseDocument(content)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	addresses := make([]string, 0, len(opts.Addresses))
	for _, href := range Stylesheets(content) {
		addresses = append(addresses, ResolveHref(htmlFile, opts.Root, href))
	}
	addresses = append(addresses, opts.Addresses...)
	if len(addresses) == 0 {
		logger.Debug("no stylesheets")
		return result
	}

	loader := p.WithInstaller(doc)
	var errs []error
	for _, address := range addresses {
		if err := loader.Load(ctx, pipeline.LoadRequest{Address: address}); err != nil {
			errs = append(errs, err)
			continue
		}
		result.Stylesheets = append(result.Stylesheets, address)
	}
	if err := errors.Join(errs...); err != nil {
		result.Error = err.Error()
		return result
	}

	newContent, err := doc.Render()
	if err != nil {
		result.Error = err.Error()
		return result
	}

	// Empty stylesheets install nothing.
	if string(newContent) == string(content) {
		return result
	}

	result.Modified = true

	if !opts.DryRun {
		perm := iofs.FileMode(defaultPerm)
		if info, err := osfs.Stat(htmlFile); err == nil {
			perm = info.Mode().Perm()
		}
		if err := osfs.WriteFile(htmlFile, newContent, perm); err != nil {
			result.Error = err.Error()
			return result
		}
	}
	logger.Debug("injected", "stylesheets", len(result.Stylesheets), "dryRun", opts.DryRun)

	return result
}

// ResolveHref turns an href found in htmlFile into a load address.
// URLs with a scheme pass through, root-relative hrefs join root, and
// anything else is relative to the file's directory.
func ResolveHref(htmlFile, root, href string) string {
	if hasScheme(href) {
		return href
	}
	if strings.HasPrefix(href, "/") {
		return filepath.ToSlash(filepath.Join(root, href))
	}
	return filepath.ToSlash(filepath.Join(filepath.Dir(htmlFile), href))
}
