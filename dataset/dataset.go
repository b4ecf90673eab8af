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

// Package dataset loads the raw book, user and rating tables from CSV files.
package dataset

import (
	"bufio"
	"os"
	"strconv"

	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/bookgenie-io/bookgenie/base/log"
)

// ErrInputMalformed is returned when a raw dataset misses expected columns.
var ErrInputMalformed = errors.New("malformed input")

// Book is one row of the raw books table. ISBN identifies an edition while Title is
// the key used by all derived tables.
type Book struct {
	ISBN     string
	Title    string
	Author   string
	ImageURL string
}

// User is one row of the raw users table.
type User struct {
	Id string
}

// Rating is one row of the raw ratings table, the source of truth for all derived
// statistics.
type Rating struct {
	UserId string
	ISBN   string
	Rating float32
}

const maxLineBytes = 1024 * 1024

// forEachRecord scans a CSV file with a progress bar and passes each non-header
// record to the handler together with the column index built from the header.
func forEachRecord(path, description string, required []string, handler func(columns map[string]int, fields []string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return errors.Trace(err)
	}
	bar := progressbar.DefaultBytes(stat.Size(), description)
	defer bar.Close()
	reader := progressbar.NewReader(f, bar)
	sc := bufio.NewScanner(&reader)
	sc.Buffer(make([]byte, 0, maxLineBytes), maxLineBytes)
	var columns map[string]int
	var headerErr error
	err = ReadLines(sc, ",", func(lineNumber int, fields []string) bool {
		if lineNumber == 1 {
			columns = make(map[string]int, len(fields))
			for i, name := range fields {
				columns[name] = i
			}
			for _, name := range required {
				if _, exist := columns[name]; !exist {
					headerErr = errors.Annotatef(ErrInputMalformed, "%s: missing column %q", path, name)
					return false
				}
			}
			return true
		}
		if len(fields) < len(columns) {
			log.Logger().Warn("skip truncated record",
				zap.String("file", path), zap.Int("line", lineNumber))
			return true
		}
		handler(columns, fields)
		return true
	})
	if err != nil {
		return errors.Trace(err)
	}
	return headerErr
}

// LoadBooks loads the raw books table.
func LoadBooks(path string) ([]Book, error) {
	books := make([]Book, 0)
	err := forEachRecord(path, "load books", []string{"ISBN", "Book-Title", "Book-Author", "Image-URL-M"},
		func(columns map[string]int, fields []string) {
			books = append(books, Book{
				ISBN:     fields[columns["ISBN"]],
				Title:    fields[columns["Book-Title"]],
				Author:   fields[columns["Book-Author"]],
				ImageURL: fields[columns["Image-URL-M"]],
			})
		})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return books, nil
}

// LoadUsers loads the raw users table.
func LoadUsers(path string) ([]User, error) {
	users := make([]User, 0)
	err := forEachRecord(path, "load users", []string{"User-ID"},
		func(columns map[string]int, fields []string) {
			users = append(users, User{Id: fields[columns["User-ID"]]})
		})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return users, nil
}

// LoadRatings loads the raw ratings table. Records with unparsable rating values are
// skipped.
func LoadRatings(path string) ([]Rating, error) {
	ratings := make([]Rating, 0)
	err := forEachRecord(path, "load ratings", []string{"User-ID", "ISBN", "Book-Rating"},
		func(columns map[string]int, fields []string) {
			value, err := strconv.ParseFloat(fields[columns["Book-Rating"]], 32)
			if err != nil {
				log.Logger().Warn("skip unparsable rating",
					zap.String("value", fields[columns["Book-Rating"]]))
				return
			}
			ratings = append(ratings, Rating{
				UserId: fields[columns["User-ID"]],
				ISBN:   fields[columns["ISBN"]],
				Rating: float32(value),
			})
		})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return ratings, nil
}
