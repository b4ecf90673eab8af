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

// Package logics implements the offline data preparation pipeline and the online
// recommendation lookup consuming its output.
package logics

import (
	"runtime"
	"sort"

	"github.com/chewxy/math32"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/bookgenie-io/bookgenie/base/log"
	"github.com/bookgenie-io/bookgenie/base/parallel"
	"github.com/bookgenie-io/bookgenie/config"
	"github.com/bookgenie-io/bookgenie/dataset"
)

// BookStats is one row of the merged metadata table: book metadata enriched with
// per-title aggregates. Titles act as the unique key of every derived table, so two
// ISBNs carrying the same title string collapse into one row.
type BookStats struct {
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	ImageURL   string  `json:"image_url"`
	NumRatings int     `json:"num_ratings"`
	AvgRating  float32 `json:"avg_rating"`
}

// Catalog is the immutable artifact set produced by one pipeline run. TitleIndex
// defines the row order shared by Matrix and Similarity; it is established once at
// build time and never re-derived.
type Catalog struct {
	// Popular is the popularity table, sorted by average rating descending.
	Popular []BookStats
	// TitleIndex holds the titles of the rating matrix rows.
	TitleIndex []string
	// UserIndex holds the user ids of the rating matrix columns.
	UserIndex []string
	// Matrix is the title-by-user rating matrix. A zero cell means "no rating",
	// indistinguishable from an actual zero rating.
	Matrix [][]float32
	// Books is the deduplicated metadata table, one row per title.
	Books []BookStats
	// Similarity is the square cosine similarity matrix aligned with TitleIndex.
	Similarity [][]float32

	byTitle map[string]int
}

type joinedRating struct {
	userId string
	title  string
	rating float32
}

// BuildCatalog runs the data preparation pipeline: join ratings with book metadata,
// aggregate per title, build the popularity table, pivot the ratings of active users
// on well-rated titles and compute the dense cosine similarity matrix.
func BuildCatalog(cfg *config.Config, books []dataset.Book, ratings []dataset.Rating) (*Catalog, error) {
	// join ratings with book metadata on ISBN, ratings without metadata are dropped
	titleByISBN := make(map[string]string, len(books))
	for _, book := range books {
		if _, exist := titleByISBN[book.ISBN]; !exist {
			titleByISBN[book.ISBN] = book.Title
		}
	}
	joined := make([]joinedRating, 0, len(ratings))
	for _, rating := range ratings {
		if title, exist := titleByISBN[rating.ISBN]; exist {
			joined = append(joined, joinedRating{userId: rating.UserId, title: title, rating: rating.Rating})
		}
	}
	if len(joined) == 0 {
		return nil, errors.Annotate(dataset.ErrInputMalformed, "no rating matches any book")
	}
	log.Logger().Info("joined ratings with books",
		zap.Int("num_ratings", len(ratings)),
		zap.Int("num_joined", len(joined)))

	// aggregate the number of ratings and the mean rating per title
	type aggregate struct {
		count int
		sum   float64
	}
	aggregates := make(map[string]*aggregate)
	for _, row := range joined {
		agg, exist := aggregates[row.title]
		if !exist {
			agg = new(aggregate)
			aggregates[row.title] = agg
		}
		agg.count++
		agg.sum += float64(row.rating)
	}

	// merge aggregates onto the metadata table by title, first occurrence wins
	catalog := new(Catalog)
	seenTitles := mapset.NewThreadUnsafeSet[string]()
	for _, book := range books {
		agg, exist := aggregates[book.Title]
		if !exist || !seenTitles.Add(book.Title) {
			continue
		}
		catalog.Books = append(catalog.Books, BookStats{
			Title:      book.Title,
			Author:     book.Author,
			ImageURL:   book.ImageURL,
			NumRatings: agg.count,
			AvgRating:  float32(agg.sum / float64(agg.count)),
		})
	}

	// popularity table
	for _, book := range catalog.Books {
		if book.NumRatings >= cfg.Popular.RatingThreshold {
			catalog.Popular = append(catalog.Popular, book)
		}
	}
	sort.SliceStable(catalog.Popular, func(i, j int) bool {
		return catalog.Popular[i].AvgRating > catalog.Popular[j].AvgRating
	})
	if len(catalog.Popular) > cfg.Popular.NumPopular {
		catalog.Popular = catalog.Popular[:cfg.Popular.NumPopular]
	}

	// find active users
	ratingsPerUser := make(map[string]int)
	for _, row := range joined {
		ratingsPerUser[row.userId]++
	}
	activeUsers := mapset.NewThreadUnsafeSet[string]()
	for userId, count := range ratingsPerUser {
		if count > cfg.Collaborative.ActiveUserThreshold {
			activeUsers.Add(userId)
		}
	}

	// find famous titles among active users' ratings
	ratingsPerTitle := make(map[string]int)
	for _, row := range joined {
		if activeUsers.Contains(row.userId) {
			ratingsPerTitle[row.title]++
		}
	}
	famousTitles := mapset.NewThreadUnsafeSet[string]()
	for title, count := range ratingsPerTitle {
		if count >= cfg.Collaborative.FamousTitleThreshold {
			famousTitles.Add(title)
		}
	}
	log.Logger().Info("filtered rating matrix",
		zap.Int("num_active_users", activeUsers.Cardinality()),
		zap.Int("num_famous_titles", famousTitles.Cardinality()))

	// pivot ratings of active users on famous titles
	usedUsers := mapset.NewThreadUnsafeSet[string]()
	for _, row := range joined {
		if activeUsers.Contains(row.userId) && famousTitles.Contains(row.title) {
			usedUsers.Add(row.userId)
		}
	}
	catalog.TitleIndex = famousTitles.ToSlice()
	sort.Strings(catalog.TitleIndex)
	catalog.UserIndex = usedUsers.ToSlice()
	sort.Strings(catalog.UserIndex)
	titlePositions := make(map[string]int, len(catalog.TitleIndex))
	for i, title := range catalog.TitleIndex {
		titlePositions[title] = i
	}
	userPositions := make(map[string]int, len(catalog.UserIndex))
	for i, userId := range catalog.UserIndex {
		userPositions[userId] = i
	}
	// duplicate ratings for the same cell are averaged
	sums := newMatrix(len(catalog.TitleIndex), len(catalog.UserIndex))
	counts := make([][]int32, len(catalog.TitleIndex))
	for i := range counts {
		counts[i] = make([]int32, len(catalog.UserIndex))
	}
	for _, row := range joined {
		i, famous := titlePositions[row.title]
		j, active := userPositions[row.userId]
		if famous && active {
			sums[i][j] += row.rating
			counts[i][j]++
		}
	}
	catalog.Matrix = newMatrix(len(catalog.TitleIndex), len(catalog.UserIndex))
	for i := range catalog.Matrix {
		for j := range catalog.Matrix[i] {
			if counts[i][j] > 0 {
				catalog.Matrix[i][j] = sums[i][j] / float32(counts[i][j])
			}
		}
	}

	// pairwise cosine similarity between all rows of the rating matrix
	catalog.Similarity = newMatrix(len(catalog.TitleIndex), len(catalog.TitleIndex))
	norms := make([]float32, len(catalog.Matrix))
	for i, row := range catalog.Matrix {
		norms[i] = math32.Sqrt(dot(row, row))
	}
	err := parallel.Parallel(len(catalog.Matrix), runtime.NumCPU(), func(_, i int) error {
		catalog.Similarity[i][i] = 1
		for j := i + 1; j < len(catalog.Matrix); j++ {
			var score float32
			if norm := norms[i] * norms[j]; norm > 0 {
				score = dot(catalog.Matrix[i], catalog.Matrix[j]) / norm
			}
			catalog.Similarity[i][j] = score
			catalog.Similarity[j][i] = score
		}
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}

	if err = catalog.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return catalog, nil
}

// Validate checks that the artifacts are aligned with each other and rebuilds the
// title lookup index.
func (c *Catalog) Validate() error {
	if len(c.Matrix) != len(c.TitleIndex) {
		return errors.Errorf("rating matrix has %d rows but title index has %d entries",
			len(c.Matrix), len(c.TitleIndex))
	}
	for i, row := range c.Matrix {
		if len(row) != len(c.UserIndex) {
			return errors.Errorf("rating matrix row %d has %d columns but user index has %d entries",
				i, len(row), len(c.UserIndex))
		}
	}
	if len(c.Similarity) != len(c.TitleIndex) {
		return errors.Errorf("similarity matrix has %d rows but title index has %d entries",
			len(c.Similarity), len(c.TitleIndex))
	}
	for i, row := range c.Similarity {
		if len(row) != len(c.TitleIndex) {
			return errors.Errorf("similarity matrix row %d has %d columns but title index has %d entries",
				i, len(row), len(c.TitleIndex))
		}
	}
	c.byTitle = make(map[string]int, len(c.Books))
	for i, book := range c.Books {
		if _, exist := c.byTitle[book.Title]; !exist {
			c.byTitle[book.Title] = i
		}
	}
	return nil
}

func newMatrix(rows, cols int) [][]float32 {
	m := make([][]float32, rows)
	for i := range m {
		m[i] = make([]float32, cols)
	}
	return m
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
