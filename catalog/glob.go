// Copyright 2026 The Authors (see AUTHORS file)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// Glob returns the files of fsys matching the doublestar pattern, e.g.
// "/opt/extensions/**/*.json", sorted by path.
func Glob(fsys afero.Fs, pattern string) ([]string, error) {
	pattern = filepath.ToSlash(pattern)
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}

	base, rest := doublestar.SplitPattern(pattern)

	var iofs fs.FS = afero.NewIOFS(fsys)
	if base != "." {
		iofs = afero.NewIOFS(afero.NewBasePathFs(fsys, filepath.FromSlash(base)))
	}

	matches, err := doublestar.Glob(iofs, rest, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to glob %q: %w", pattern, err)
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if base != "." {
			m = path.Join(base, m)
		}
		out = append(out, filepath.FromSlash(m))
	}
	sort.Strings(out)
	return out, nil
}

// LoadExtensions loads every extension file matching pattern. Extensions are
// returned in path order; per-file errors are joined.
func LoadExtensions(fsys afero.Fs, pattern string) ([]*Extension, error) {
	paths, err := Glob(fsys, pattern)
	if err != nil {
		return nil, err
	}

	var (
		exts []*Extension
		errs []error
	)
	for _, p := range paths {
		ext, err := LoadExtension(fsys, p)
		if err != nil {
			errs = append(errs, err)
		}
		exts = append(exts, ext)
	}
	return exts, errors.Join(errs...)
}
