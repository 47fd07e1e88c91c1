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

// Package compile provides the compile command for sassinject.
package compile

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"bennypowers.dev/sassinject/fs"
	"bennypowers.dev/sassinject/install"
	"bennypowers.dev/sassinject/internal/app"
	"bennypowers.dev/sassinject/internal/output"
	"bennypowers.dev/sassinject/pipeline"
)

// Cmd is the compile command.
var Cmd = &cobra.Command{
	Use:   "compile [file.scss|url...]",
	Short: "Compile stylesheets to CSS",
	Long: `Compile one or more Sass entry files to CSS.

Each address is loaded like a stylesheet module: the entry is fetched,
every @import is resolved against the importing file (the _partial form is
tried first), and the result is compiled. All addresses share one engine.
Output is written in argument order regardless of which finishes first.`,
	Example: `  # Compile a local file
  sassinject compile styles/app.scss

  # Compile every entry under src as <style>/<link> elements
  sassinject compile --glob "src/**/[!_]*.scss" --format html

  # Compile a file from a published package via unpkg
  sassinject compile npm:bulma@1.0.2/bulma.scss --cdn unpkg

  # Fetch from a server and force the in-process engine
  sassinject compile https://example.com/styles/app.scss --workers off`,
	RunE: run,
}

func init() {
	Cmd.Flags().String("glob", "", "Glob pattern to match entry files")
	Cmd.Flags().StringP("format", "f", "css", "Output format (css, html)")
	Cmd.Flags().IntP("jobs", "j", 0, "Number of concurrent loads (default: number of CPUs)")
}

func run(cmd *cobra.Command, args []string) error {
	osfs := fs.NewOSFileSystem()

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "css", "html":
	default:
		return fmt.Errorf("invalid format %q: must be one of css, html", format)
	}

	a, err := app.New(app.ConfigFromViper(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	globPattern, _ := cmd.Flags().GetString("glob")
	addresses, err := a.Addresses(args, globPattern)
	if err != nil {
		return err
	}
	if len(addresses) == 0 {
		return fmt.Errorf("no stylesheets to compile: provide addresses or use --glob")
	}

	ctx, cancel := a.Context(cmd.Context())
	defer cancel()

	jobs, _ := cmd.Flags().GetInt("jobs")
	outputs := make([]bytes.Buffer, len(addresses))
	errs := make([]error, len(addresses))

	g, gctx := errgroup.WithContext(ctx)
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	g.SetLimit(jobs)
	for i, address := range addresses {
		g.Go(func() error {
			installer := install.NewWriter(&outputs[i], format == "css")
			errs[i] = a.Pipeline(installer).Load(gctx, pipeline.LoadRequest{Address: address})
			return nil
		})
	}
	waitErr := g.Wait()

	var out bytes.Buffer
	failed := 0
	red := color.New(color.FgRed, color.Bold)
	for i, address := range addresses {
		if errs[i] != nil {
			failed++
			red.Fprintf(cmd.ErrOrStderr(), "%s\n", address)
			fmt.Fprintln(cmd.ErrOrStderr(), errs[i])
			continue
		}
		out.Write(outputs[i].Bytes())
	}

	closeErr := a.Close()
	if out.Len() > 0 {
		if err := output.Bytes(osfs, cmd.OutOrStdout(), out.Bytes()); err != nil {
			return errors.Join(err, closeErr)
		}
	}
	if failed > 0 {
		return errors.Join(fmt.Errorf("%d of %d stylesheets failed", failed, len(addresses)), waitErr, closeErr)
	}
	return errors.Join(waitErr, closeErr)
}
