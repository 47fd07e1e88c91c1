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

// Command sassinject compiles Sass stylesheets, resolving partial imports the
// way a browser module loader does, and installs the CSS into HTML documents.
package main

import (
	"errors"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/sassinject/cmd/compile"
	"bennypowers.dev/sassinject/cmd/inject"
	"bennypowers.dev/sassinject/cmd/trace"
	"bennypowers.dev/sassinject/cmd/version"
)

var (
	cpuprofile     string
	cpuprofileFile *os.File
	rootCmd        = &cobra.Command{
		Use:   "sassinject",
		Short: "Compile Sass modules and install them into HTML",
		Long: `sassinject compiles SCSS and indented Sass entry files, fetching every
@import (trying the _partial form first) from disk or over HTTP.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := readConfig(); err != nil {
				return err
			}
			if cpuprofile != "" {
				f, err := os.Create(cpuprofile)
				if err != nil {
					return fmt.Errorf("could not create CPU profile: %w", err)
				}
				cpuprofileFile = f
				if err := pprof.StartCPUProfile(f); err != nil {
					closeErr := f.Close()
					return errors.Join(
						fmt.Errorf("could not start CPU profile: %w", err),
						closeErr,
					)
				}
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if cpuprofileFile != nil {
				pprof.StopCPUProfile()
				if err := cpuprofileFile.Close(); err != nil {
					return fmt.Errorf("closing CPU profile: %w", err)
				}
			}
			return nil
		},
	}
)

func init() {
	// Root flags (persistent across all commands)
	flags := rootCmd.PersistentFlags()
	flags.StringP("output", "o", "", "Output file (default: stdout)")
	flags.BoolP("verbose", "v", false, "Log debug output")
	flags.String("log-level", "warn", "Log level (debug, info, warn, error)")
	flags.String("log-format", "text", "Log format (text, json)")
	flags.String("engine-dir", "", "Directory the worker engine binary is resolved against (default: PATH)")
	flags.String("workers", "auto", "Worker engine use (auto, on, off)")
	flags.String("worker-binary", "sass", "Dart Sass executable, relative to --engine-dir")
	flags.String("cdn", "jsdelivr", "CDN for npm: addresses (jsdelivr, unpkg, or a URL template)")
	flags.Duration("timeout", 0, "Abort after this long (default: no limit)")
	flags.String("config", "", "Config file (default: ./.sassinject.yaml)")
	flags.StringVar(&cpuprofile, "cpuprofile", "", "Write CPU profile to file")

	_ = viper.BindPFlag("output", flags.Lookup("output"))
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("log-level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log-format", flags.Lookup("log-format"))
	_ = viper.BindPFlag("engine.dir", flags.Lookup("engine-dir"))
	_ = viper.BindPFlag("engine.workers", flags.Lookup("workers"))
	_ = viper.BindPFlag("engine.worker-binary", flags.Lookup("worker-binary"))
	_ = viper.BindPFlag("cdn", flags.Lookup("cdn"))
	_ = viper.BindPFlag("timeout", flags.Lookup("timeout"))
	_ = viper.BindPFlag("config", flags.Lookup("config"))

	viper.SetEnvPrefix("SASSINJECT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	// Add commands
	rootCmd.AddCommand(compile.Cmd)
	rootCmd.AddCommand(trace.Cmd)
	rootCmd.AddCommand(version.Cmd)
	rootCmd.AddCommand(inject.Cmd)
}

// readConfig loads the config file. A missing default file is not an error.
func readConfig() error {
	if path := viper.GetString("config"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
		return nil
	}
	viper.SetConfigName(".sassinject")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprint(os.Stderr, "Error: ")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
