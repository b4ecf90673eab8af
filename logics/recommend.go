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

package logics

import (
	"sort"
	"strings"

	"github.com/juju/errors"

	"github.com/bookgenie-io/bookgenie/config"
)

// ErrNoMatchFound is returned when no title contains the query as a substring. It is
// distinct from an empty result list, which means every candidate was filtered out.
var ErrNoMatchFound = errors.NotFoundf("book")

// ScoredBook is a recommended book together with its similarity to the seed title.
type ScoredBook struct {
	BookStats
	Score float32 `json:"score"`
}

// Recommend looks up the first title containing the query, ranks all other titles by
// cosine similarity and returns the top titles whose average rating reaches minRating.
//
// The match is a plain substring scan in index order, not a best-match search: the
// first hit wins.
func (c *Catalog) Recommend(cfg config.CollaborativeConfig, query string, minRating float32) ([]ScoredBook, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	seed := -1
	for i, title := range c.TitleIndex {
		if strings.Contains(strings.ToLower(title), query) {
			seed = i
			break
		}
	}
	if seed < 0 {
		return nil, ErrNoMatchFound
	}

	// rank every title by similarity, ties keep index order
	row := c.Similarity[seed]
	ranked := make([]int, len(row))
	for i := range ranked {
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return row[ranked[i]] > row[ranked[j]]
	})

	// the top rank is the seed itself and is skipped, then the rating filter is
	// applied to the next NumCandidates titles
	results := make([]ScoredBook, 0, cfg.NumRecommended)
	candidates := 0
	for _, i := range ranked[1:] {
		if i == seed {
			continue
		}
		if candidates >= cfg.NumCandidates {
			break
		}
		candidates++
		position, exist := c.byTitle[c.TitleIndex[i]]
		if !exist {
			continue
		}
		book := c.Books[position]
		if book.AvgRating >= minRating {
			results = append(results, ScoredBook{BookStats: book, Score: row[i]})
			if len(results) >= cfg.NumRecommended {
				break
			}
		}
	}
	return results, nil
}
