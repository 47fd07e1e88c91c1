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

// Package inject provides the inject command for sassinject.
package inject

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"bennypowers.dev/sassinject/fs"
	"bennypowers.dev/sassinject/inject"
	"bennypowers.dev/sassinject/install"
	"bennypowers.dev/sassinject/internal/app"
)

// Cmd is the inject command.
var Cmd = &cobra.Command{
	Use:   "inject [file.html...]",
	Short: "Compile stylesheets into HTML files in-place",
	Long: `Compile the Sass stylesheets of HTML files and install them in-place.

Each file's <link rel="stylesheet/scss"> and <link rel="stylesheet/sass">
tags are compiled, along with any --address, and the CSS is appended to
<head> as a <style> element (or a <link> with a data URI when the compiler
produced a source map). Running inject twice installs the CSS twice.`,
	Example: `  # Inject into all HTML files
  sassinject inject --glob "_site/**/*.html"

  # Root-relative hrefs resolve against _site
  sassinject inject --glob "_site/**/*.html" --root _site

  # Add a shared theme to every page
  sassinject inject --glob "_site/**/*.html" --address styles/theme.scss

  # Dry run to see what would change
  sassinject inject --glob "_site/**/*.html" --dry-run`,
	RunE: run,
}

func init() {
	Cmd.Flags().String("glob", "", "Glob pattern to match HTML files")
	Cmd.Flags().StringSlice("address", nil, "Stylesheet to load into every file (repeatable)")
	Cmd.Flags().String("root", ".", "Directory root-relative hrefs resolve against")
	Cmd.Flags().IntP("jobs", "j", 0, "Number of parallel workers (default: number of CPUs)")
	Cmd.Flags().Bool("dry-run", false, "Show what would change without modifying files")
	Cmd.Flags().StringP("format", "f", "text", "Output format (text, json)")
}

func run(cmd *cobra.Command, args []string) error {
	osfs := fs.NewOSFileSystem()
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	rootArg, _ := cmd.Flags().GetString("root")
	absRoot, err := filepath.Abs(rootArg)
	if err != nil {
		return fmt.Errorf("invalid root directory: %w", err)
	}

	// Collect files from args and glob pattern, deduplicating by absolute path
	seen := make(map[string]struct{})
	var files []string
	add := func(p string) error {
		absPath, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("invalid file path %q: %w", p, err)
		}
		if _, exists := seen[absPath]; !exists {
			seen[absPath] = struct{}{}
			files = append(files, absPath)
		}
		return nil
	}
	for _, arg := range args {
		if err := add(arg); err != nil {
			return err
		}
	}
	globPattern, _ := cmd.Flags().GetString("glob")
	if globPattern != "" {
		matches, err := doublestar.FilepathGlob(globPattern)
		if err != nil {
			return fmt.Errorf("invalid glob pattern: %w", err)
		}
		for _, match := range matches {
			if err := add(match); err != nil {
				return err
			}
		}
	}
	if len(files) == 0 {
		color.New(color.FgYellow).Fprintln(stderr, "Warning: no files to inject")
		return nil
	}

	a, err := app.New(app.ConfigFromViper(), stderr)
	if err != nil {
		return err
	}

	rawAddresses, _ := cmd.Flags().GetStringSlice("address")
	addresses, err := a.Addresses(rawAddresses, "")
	if err != nil {
		return err
	}

	parallel, _ := cmd.Flags().GetInt("jobs")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	format, _ := cmd.Flags().GetString("format")
	ctx, cancel := a.Context(cmd.Context())
	defer cancel()
	defer func() { _ = a.Close() }()

	opts := inject.Options{
		Addresses: addresses,
		Root:      filepath.ToSlash(absRoot),
		Parallel:  parallel,
		DryRun:    dryRun,
	}

	start := time.Now()
	results := inject.InjectBatch(ctx, osfs, a.Pipeline(install.Discard), files, opts)

	var stats inject.Stats
	stats.Total = len(files)

	encoder := json.NewEncoder(stdout)
	warn := color.New(color.FgRed)
	for result := range results {
		stats.Add(result)
		switch {
		case format == "json":
			if result.Error != "" || result.Modified {
				_ = encoder.Encode(result)
			}
		case result.Error != "":
			warn.Fprintf(stderr, "Error: %s: ", result.File)
			fmt.Fprintln(stderr, result.Error)
		case result.Modified && dryRun:
			fmt.Fprintf(stdout, "would update %s (%d stylesheets)\n", result.File, len(result.Stylesheets))
		}
	}
	stats.Duration = time.Since(start).Milliseconds()

	// Output summary
	if format == "json" {
		statsJSON, _ := json.Marshal(stats)
		fmt.Fprintln(stdout, string(statsJSON))
	} else if dryRun {
		fmt.Fprintf(stdout, "\nDry run: %d files would be modified, %d unchanged, %d errors\n",
			stats.Updated, stats.Skipped, stats.Errors)
	} else {
		fmt.Fprintf(stdout, "Injected: %d files modified, %d unchanged, %d errors\n",
			stats.Updated, stats.Skipped, stats.Errors)
	}

	if stats.Errors == stats.Total {
		return fmt.Errorf("all %d files failed", stats.Errors)
	}

	return nil
}
