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

package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadBooks(t *testing.T) {
	path := writeFile(t, "Books.csv",
		"ISBN,Book-Title,Book-Author,Year-Of-Publication,Image-URL-M\n"+
			"0001,Dune,Frank Herbert,1965,http://images/dune.jpg\n"+
			"0002,\"Carrie, Revised\",Stephen King,1974,http://images/carrie.jpg\n")
	books, err := LoadBooks(path)
	assert.NoError(t, err)
	assert.Equal(t, []Book{
		{ISBN: "0001", Title: "Dune", Author: "Frank Herbert", ImageURL: "http://images/dune.jpg"},
		{ISBN: "0002", Title: "Carrie, Revised", Author: "Stephen King", ImageURL: "http://images/carrie.jpg"},
	}, books)
}

func TestLoadBooksMissingColumn(t *testing.T) {
	path := writeFile(t, "Books.csv", "ISBN,Book-Title,Year-Of-Publication\n0001,Dune,1965\n")
	_, err := LoadBooks(path)
	assert.ErrorIs(t, err, ErrInputMalformed)
}

func TestLoadUsers(t *testing.T) {
	path := writeFile(t, "Users.csv", "User-ID,Location,Age\n1,earth,30\n2,mars,40\n")
	users, err := LoadUsers(path)
	assert.NoError(t, err)
	assert.Equal(t, []User{{Id: "1"}, {Id: "2"}}, users)
}

func TestLoadRatings(t *testing.T) {
	path := writeFile(t, "Ratings.csv",
		"User-ID,ISBN,Book-Rating\n1,0001,5\n2,0001,oops\n2,0002,3.5\n")
	ratings, err := LoadRatings(path)
	assert.NoError(t, err)
	// the unparsable record is skipped
	assert.Equal(t, []Rating{
		{UserId: "1", ISBN: "0001", Rating: 5},
		{UserId: "2", ISBN: "0002", Rating: 3.5},
	}, ratings)
}

func TestLoadRatingsMissingColumn(t *testing.T) {
	path := writeFile(t, "Ratings.csv", "User-ID,Book-Rating\n1,5\n")
	_, err := LoadRatings(path)
	assert.ErrorIs(t, err, ErrInputMalformed)
}
