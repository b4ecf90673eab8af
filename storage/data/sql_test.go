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

package data

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type SQLTestSuite struct {
	suite.Suite
	Database
}

func (suite *SQLTestSuite) SetupTest() {
	var err error
	suite.Database, err = Open(fmt.Sprintf("sqlite://%s/data.db", suite.T().TempDir()))
	suite.NoError(err)
	suite.NoError(suite.Database.Init())
}

func (suite *SQLTestSuite) TearDownTest() {
	suite.NoError(suite.Database.Close())
}

func (suite *SQLTestSuite) TestUsers() {
	ctx := context.Background()
	user, err := suite.InsertUser(ctx, User{Username: "bookworm42", Password: "hash"})
	suite.NoError(err)
	suite.NotZero(user.Id)

	found, err := suite.GetUser(ctx, "bookworm42")
	suite.NoError(err)
	suite.Equal(user.Id, found.Id)
	suite.Equal("hash", found.Password)

	_, err = suite.InsertUser(ctx, User{Username: "bookworm42", Password: "other"})
	suite.ErrorIs(err, ErrUserExists)

	_, err = suite.GetUser(ctx, "nobody")
	suite.ErrorIs(err, ErrUserNotExist)
}

func (suite *SQLTestSuite) TestCart() {
	ctx := context.Background()
	suite.NoError(suite.InsertCartItem(ctx, 1, "Book A"))
	suite.NoError(suite.InsertCartItem(ctx, 1, "Book B"))
	suite.NoError(suite.InsertCartItem(ctx, 2, "Book C"))

	items, err := suite.GetCartItems(ctx, 1)
	suite.NoError(err)
	suite.Equal([]string{"Book A", "Book B"}, lo.Map(items, func(item CartItem, _ int) string {
		return item.BookTitle
	}))

	suite.NoError(suite.DeleteCartItems(ctx, 1))
	items, err = suite.GetCartItems(ctx, 1)
	suite.NoError(err)
	suite.Empty(items)
	// other carts are untouched
	items, err = suite.GetCartItems(ctx, 2)
	suite.NoError(err)
	suite.Len(items, 1)
}

func (suite *SQLTestSuite) TestBookmarks() {
	ctx := context.Background()
	suite.NoError(suite.InsertBookmark(ctx, 1, "Book A"))
	suite.ErrorIs(suite.InsertBookmark(ctx, 1, "Book A"), ErrBookmarkExists)
	suite.NoError(suite.InsertBookmark(ctx, 2, "Book A"))

	bookmarks, err := suite.GetBookmarks(ctx, 1)
	suite.NoError(err)
	suite.Len(bookmarks, 1)
	suite.Equal("Book A", bookmarks[0].BookTitle)
}

func (suite *SQLTestSuite) TestOrders() {
	ctx := context.Background()
	first, err := suite.InsertOrder(ctx, Order{
		UserId:     1,
		BookTitles: "Book A, Book B",
		FullName:   "Jamie Doe",
		CreatedAt:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	suite.NoError(err)
	suite.NotZero(first.Id)
	second, err := suite.InsertOrder(ctx, Order{
		UserId:     1,
		BookTitles: "Book C",
		FullName:   "Jamie Doe",
		CreatedAt:  time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	suite.NoError(err)

	// newest first
	orders, err := suite.GetOrders(ctx, 1)
	suite.NoError(err)
	suite.Len(orders, 2)
	suite.Equal(second.Id, orders[0].Id)
	suite.Equal(first.Id, orders[1].Id)

	orders, err = suite.GetOrders(ctx, 2)
	suite.NoError(err)
	suite.Empty(orders)
}

func (suite *SQLTestSuite) TestFeedback() {
	ctx := context.Background()
	suite.NoError(suite.InsertFeedback(ctx, Feedback{
		Name:    "Jamie Doe",
		Email:   "jamie@example.com",
		Message: "more sci-fi please",
	}))
}

func (suite *SQLTestSuite) TestPurge() {
	ctx := context.Background()
	_, err := suite.InsertUser(ctx, User{Username: "bookworm42", Password: "hash"})
	suite.NoError(err)
	suite.NoError(suite.InsertCartItem(ctx, 1, "Book A"))
	suite.NoError(suite.Database.Purge())
	_, err = suite.GetUser(ctx, "bookworm42")
	suite.ErrorIs(err, ErrUserNotExist)
	items, err := suite.GetCartItems(ctx, 1)
	suite.NoError(err)
	suite.Empty(items)
}

func (suite *SQLTestSuite) TestUnsupportedScheme() {
	_, err := Open("redis://localhost:6379")
	suite.Error(err)
}

func TestSQL(t *testing.T) {
	suite.Run(t, new(SQLTestSuite))
}
