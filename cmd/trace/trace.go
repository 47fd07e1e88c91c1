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

// Package trace provides the trace command for sassinject.
package trace

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"bennypowers.dev/sassinject/fs"
	"bennypowers.dev/sassinject/importer"
	"bennypowers.dev/sassinject/install"
	"bennypowers.dev/sassinject/internal/app"
	"bennypowers.dev/sassinject/internal/output"
	"bennypowers.dev/sassinject/trace"
)

// Cmd is the trace cobra command that compiles stylesheets with a recording
// importer and prints their import graphs.
var Cmd = &cobra.Command{
	Use:   "trace [file.scss|url...]",
	Short: "Print the import graph of stylesheets",
	Long: `Compile stylesheets and report every @import the compiler asked for:
where it was requested from, which file answered it, whether the _partial
form was used, and which imports were declined.

For a single address, outputs one JSON graph.
For multiple addresses (via arguments or --glob), outputs NDJSON with one graph per line.`,
	Example: `  # Trace a single stylesheet
  sassinject trace styles/app.scss

  # Trace every entry file (NDJSON output)
  sassinject trace --glob "src/**/[!_]*.scss"

  # Only list the files a stylesheet reads
  sassinject trace styles/app.scss --format files`,
	RunE: run,
}

func init() {
	Cmd.Flags().StringP("format", "f", "json", "Output format (json, files)")
	Cmd.Flags().String("glob", "", "Glob pattern to match entry files")
	Cmd.Flags().IntP("jobs", "j", 0, "Number of parallel workers (default: number of CPUs)")
}

func run(cmd *cobra.Command, args []string) error {
	osfs := fs.NewOSFileSystem()

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json", "files":
	default:
		return fmt.Errorf("invalid format %q: must be one of json, files", format)
	}
	parallel, _ := cmd.Flags().GetInt("jobs")

	a, err := app.New(app.ConfigFromViper(), cmd.ErrOrStderr(),
		app.WrapImporter(func(next importer.Func) importer.Func {
			return trace.NewRecorder(next).Import
		}))
	if err != nil {
		return err
	}

	globPattern, _ := cmd.Flags().GetString("glob")
	addresses, err := a.Addresses(args, globPattern)
	if err != nil {
		return err
	}
	if len(addresses) == 0 {
		return fmt.Errorf("no stylesheets to trace: provide addresses or use --glob")
	}

	ctx, cancel := a.Context(cmd.Context())
	defer cancel()
	defer func() { _ = a.Close() }()

	p := a.Pipeline(install.Discard)

	// Single address mode
	if len(addresses) == 1 {
		g := trace.Trace(ctx, p, addresses[0])
		printWarnings(cmd, g)
		var v any = g
		if format == "files" {
			v = g.Files()
		}
		if err := output.JSON(osfs, cmd.OutOrStdout(), v); err != nil {
			return err
		}
		if g.Error != "" {
			return fmt.Errorf("failed to trace %s", g.Entry)
		}
		return nil
	}

	// Batch mode
	encoder := json.NewEncoder(cmd.OutOrStdout())
	var errorCount int
	for g := range trace.TraceBatch(ctx, p, addresses, parallel) {
		printWarnings(cmd, g)
		if g.Error != "" {
			errorCount++
		}
		var v any = g
		if format == "files" {
			v = g.Files()
		}
		if err := encoder.Encode(v); err != nil {
			return err
		}
	}
	if errorCount == len(addresses) {
		return fmt.Errorf("all %d stylesheets failed", errorCount)
	}
	return nil
}

func printWarnings(cmd *cobra.Command, g *trace.Graph) {
	stderr := cmd.ErrOrStderr()
	yellow := color.New(color.FgYellow)
	for _, e := range g.Declined() {
		yellow.Fprintf(stderr, "Warning: %s\n", g.Entry)
		fmt.Fprintf(stderr, "  Import %q from %s was not found\n", e.Name, e.From)
	}
	if g.Error != "" {
		color.New(color.FgRed).Fprintf(stderr, "Error: %s\n", g.Entry)
		fmt.Fprintln(stderr, g.Error)
	}
}
