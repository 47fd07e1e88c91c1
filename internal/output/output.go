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

// Package output writes command results to stdout or to the --output file.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/viper"

	"bennypowers.dev/sassinject/fs"
)

// Bytes writes data to the --output file if set, otherwise to stdout.
func Bytes(osfs fs.FileSystem, stdout io.Writer, data []byte) error {
	if outputPath := viper.GetString("output"); outputPath != "" {
		return osfs.WriteFile(outputPath, data, 0644)
	}
	_, err := stdout.Write(data)
	return err
}

// JSON writes v as indented JSON followed by a newline.
func JSON(osfs fs.FileSystem, stdout io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return Bytes(osfs, stdout, append(out, '\n'))
}
