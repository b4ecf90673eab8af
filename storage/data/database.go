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

// Package data persists users, carts, bookmarks, feedback and orders. The
// recommendation core never writes through this store; request handlers do.
package data

import (
	"context"
	"strings"
	"time"

	"github.com/juju/errors"

	"github.com/bookgenie-io/bookgenie/base/log"
)

const (
	MySQLPrefix      = "mysql://"
	PostgresPrefix   = "postgres://"
	PostgreSQLPrefix = "postgresql://"
	SQLitePrefix     = "sqlite://"
)

var (
	ErrUserNotExist   = errors.NotFoundf("user")
	ErrUserExists     = errors.AlreadyExistsf("user")
	ErrBookmarkExists = errors.AlreadyExistsf("bookmark")
)

// User is an account, identified by a unique username. Password holds the bcrypt
// hash, never the clear text.
type User struct {
	Id       uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Username string `gorm:"column:username;type:varchar(50) not null;uniqueIndex" json:"username"`
	Password string `gorm:"column:password;type:varchar(100) not null" json:"-"`
}

// CartItem is one title in a user's cart.
type CartItem struct {
	Id        uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserId    uint   `gorm:"column:user_id;not null;index" json:"user_id"`
	BookTitle string `gorm:"column:book_title;type:varchar(255) not null" json:"book_title"`
}

// Bookmark is a title saved by a user for later.
type Bookmark struct {
	Id        uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserId    uint   `gorm:"column:user_id;not null;index" json:"user_id"`
	BookTitle string `gorm:"column:book_title;type:varchar(255) not null" json:"book_title"`
}

// Feedback is one message from the contact form. The table is append only.
type Feedback struct {
	Id        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;type:varchar(100)" json:"name"`
	Email     string    `gorm:"column:email;type:varchar(100)" json:"email"`
	Message   string    `gorm:"column:message;type:text not null" json:"message"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

// Order is a placed order with the titles joined into one text column.
type Order struct {
	Id         uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserId     uint      `gorm:"column:user_id;not null;index" json:"user_id"`
	BookTitles string    `gorm:"column:book_titles;type:text not null" json:"book_titles"`
	FullName   string    `gorm:"column:full_name;type:varchar(100)" json:"full_name"`
	Address    string    `gorm:"column:address;type:varchar(255)" json:"address"`
	Phone      string    `gorm:"column:phone;type:varchar(20)" json:"phone"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
}

// Database is the storage interface for CRUD entities.
type Database interface {
	Init() error
	Close() error
	Purge() error
	InsertUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, username string) (User, error)
	InsertCartItem(ctx context.Context, userId uint, bookTitle string) error
	GetCartItems(ctx context.Context, userId uint) ([]CartItem, error)
	DeleteCartItems(ctx context.Context, userId uint) error
	InsertBookmark(ctx context.Context, userId uint, bookTitle string) error
	GetBookmarks(ctx context.Context, userId uint) ([]Bookmark, error)
	InsertFeedback(ctx context.Context, feedback Feedback) error
	InsertOrder(ctx context.Context, order Order) (Order, error)
	GetOrders(ctx context.Context, userId uint) ([]Order, error)
}

// Open creates a database client identified by the URL scheme.
func Open(path string) (Database, error) {
	switch {
	case strings.HasPrefix(path, SQLitePrefix),
		strings.HasPrefix(path, MySQLPrefix),
		strings.HasPrefix(path, PostgresPrefix),
		strings.HasPrefix(path, PostgreSQLPrefix):
		return openSQL(path)
	default:
		return nil, errors.Errorf("unsupported database: %s", log.RedactDBURL(path))
	}
}
