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

package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bookgenie-io/bookgenie/logics"
)

func testCatalog(t *testing.T) *logics.Catalog {
	catalog := &logics.Catalog{
		Popular: []logics.BookStats{
			{Title: "Book B", Author: "Author B", ImageURL: "http://images/b.jpg", NumRatings: 300, AvgRating: 4.6},
			{Title: "Book A", Author: "Author A", ImageURL: "http://images/a.jpg", NumRatings: 400, AvgRating: 4.2},
		},
		TitleIndex: []string{"Book A", "Book B"},
		UserIndex:  []string{"u1", "u2", "u3"},
		Matrix: [][]float32{
			{5, 4, 3},
			{4, 5, 2},
		},
		Books: []logics.BookStats{
			{Title: "Book A", Author: "Author A", ImageURL: "http://images/a.jpg", NumRatings: 400, AvgRating: 4.2},
			{Title: "Book B", Author: "Author B", ImageURL: "http://images/b.jpg", NumRatings: 300, AvgRating: 4.6},
		},
		Similarity: [][]float32{
			{1, 0.97},
			{0.97, 1},
		},
	}
	assert.NoError(t, catalog.Validate())
	return catalog
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.bin")
	catalog := testCatalog(t)
	assert.NoError(t, Save(path, catalog))
	loaded, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, catalog.Popular, loaded.Popular)
	assert.Equal(t, catalog.TitleIndex, loaded.TitleIndex)
	assert.Equal(t, catalog.UserIndex, loaded.UserIndex)
	assert.Equal(t, catalog.Books, loaded.Books)
	assert.Equal(t, catalog.Matrix, loaded.Matrix)
	assert.Equal(t, catalog.Similarity, loaded.Similarity)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "catalog.bin"))
	assert.ErrorIs(t, err, ErrArtifactMissing)
}

func TestLoadCorrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.bin")
	assert.NoError(t, os.WriteFile(path, []byte("not a catalog"), 0644))
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrArtifactStale)
}

func TestLoadMisaligned(t *testing.T) {
	// the similarity matrix misses one row relative to the title index
	catalog := testCatalog(t)
	catalog.Similarity = catalog.Similarity[:1]
	path := filepath.Join(t.TempDir(), "catalog.bin")
	assert.NoError(t, Save(path, catalog))
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrArtifactStale)
}

func TestSaveOverwrite(t *testing.T) {
	// saving over an existing file swaps all artifacts at once
	path := filepath.Join(t.TempDir(), "catalog.bin")
	catalog := testCatalog(t)
	assert.NoError(t, Save(path, catalog))
	catalog.Popular = catalog.Popular[:1]
	assert.NoError(t, Save(path, catalog))
	loaded, err := Load(path)
	assert.NoError(t, err)
	assert.Len(t, loaded.Popular, 1)
}

func TestHolder(t *testing.T) {
	holder := new(Holder)
	assert.Nil(t, holder.Load())
	first := testCatalog(t)
	holder.Store(first)
	assert.Same(t, first, holder.Load())
	second := testCatalog(t)
	holder.Store(second)
	assert.Same(t, second, holder.Load())
}
