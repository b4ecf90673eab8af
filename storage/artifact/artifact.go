// Copyright 2025 BookGenie Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package artifact persists the catalog produced by the data preparation pipeline.
// The four tables are written to a single file so the lookup service can never
// observe some of them updated and others not.
package artifact

import (
	"bufio"
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/juju/errors"

	"github.com/bookgenie-io/bookgenie/base/encoding"
	"github.com/bookgenie-io/bookgenie/logics"
)

var (
	// ErrArtifactMissing is returned when no artifact file has been produced yet.
	ErrArtifactMissing = errors.NotFoundf("artifacts")
	// ErrArtifactStale is returned when the artifact file fails consistency checks.
	ErrArtifactStale = errors.New("stale artifacts")
)

var artifactMagic = [4]byte{'B', 'G', 'A', 'F'}

const formatVersion uint32 = 1

// Save writes the catalog to a temporary file and renames it over path, so a partial
// write is never observable.
func Save(path string, catalog *logics.Catalog) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Trace(err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".catalog-*")
	if err != nil {
		return errors.Trace(err)
	}
	defer os.Remove(tmp.Name())
	w := bufio.NewWriter(tmp)
	if err = write(w, catalog); err != nil {
		tmp.Close()
		return errors.Trace(err)
	}
	if err = w.Flush(); err != nil {
		tmp.Close()
		return errors.Trace(err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Trace(err)
	}
	if err = tmp.Close(); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(os.Rename(tmp.Name(), path))
}

func write(w *bufio.Writer, catalog *logics.Catalog) error {
	if err := binary.Write(w, binary.LittleEndian, artifactMagic); err != nil {
		return errors.Trace(err)
	}
	if err := binary.Write(w, binary.LittleEndian, formatVersion); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteGob(w, catalog.Popular); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteGob(w, catalog.TitleIndex); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteGob(w, catalog.UserIndex); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteGob(w, catalog.Books); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteMatrix(w, catalog.Matrix); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(encoding.WriteMatrix(w, catalog.Similarity))
}

// Load reads the catalog from path and validates its consistency.
func Load(path string) (*logics.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrArtifactMissing
		}
		return nil, errors.Trace(err)
	}
	defer f.Close()
	r := bufio.NewReader(f)
	var magic [4]byte
	if err = binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, errors.Annotate(ErrArtifactStale, err.Error())
	}
	if magic != artifactMagic {
		return nil, errors.Annotate(ErrArtifactStale, "unexpected file magic")
	}
	var version uint32
	if err = binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, errors.Annotate(ErrArtifactStale, err.Error())
	}
	if version != formatVersion {
		return nil, errors.Annotatef(ErrArtifactStale, "unsupported format version %d", version)
	}
	catalog := new(logics.Catalog)
	if err = encoding.ReadGob(r, &catalog.Popular); err != nil {
		return nil, errors.Annotate(ErrArtifactStale, err.Error())
	}
	if err = encoding.ReadGob(r, &catalog.TitleIndex); err != nil {
		return nil, errors.Annotate(ErrArtifactStale, err.Error())
	}
	if err = encoding.ReadGob(r, &catalog.UserIndex); err != nil {
		return nil, errors.Annotate(ErrArtifactStale, err.Error())
	}
	if err = encoding.ReadGob(r, &catalog.Books); err != nil {
		return nil, errors.Annotate(ErrArtifactStale, err.Error())
	}
	catalog.Matrix = newMatrix(len(catalog.TitleIndex), len(catalog.UserIndex))
	if err = encoding.ReadMatrix(r, catalog.Matrix); err != nil {
		return nil, errors.Annotate(ErrArtifactStale, err.Error())
	}
	catalog.Similarity = newMatrix(len(catalog.TitleIndex), len(catalog.TitleIndex))
	if err = encoding.ReadMatrix(r, catalog.Similarity); err != nil {
		return nil, errors.Annotate(ErrArtifactStale, err.Error())
	}
	if err = catalog.Validate(); err != nil {
		return nil, errors.Annotate(ErrArtifactStale, err.Error())
	}
	return catalog, nil
}

func newMatrix(rows, cols int) [][]float32 {
	m := make([][]float32, rows)
	for i := range m {
		m[i] = make([]float32, cols)
	}
	return m
}
