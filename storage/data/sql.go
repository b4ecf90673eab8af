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
	"strings"

	"github.com/juju/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
	"moul.io/zapgorm2"

	"github.com/bookgenie-io/bookgenie/base/log"
)

// SQLDatabase uses MySQL, Postgres or SQLite as data storage.
type SQLDatabase struct {
	gormDB *gorm.DB
}

func openSQL(path string) (*SQLDatabase, error) {
	gormConfig := &gorm.Config{
		Logger: zapgorm2.New(log.Logger()),
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	}
	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(path, SQLitePrefix):
		dialector = sqlite.Open(path[len(SQLitePrefix):])
	case strings.HasPrefix(path, MySQLPrefix):
		dialector = mysql.Open(path[len(MySQLPrefix):])
	default:
		dialector = postgres.Open(path)
	}
	gormDB, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &SQLDatabase{gormDB: gormDB}, nil
}

// Init creates tables and indices.
func (d *SQLDatabase) Init() error {
	return errors.Trace(d.gormDB.AutoMigrate(User{}, CartItem{}, Bookmark{}, Feedback{}, Order{}))
}

// Close the database connection.
func (d *SQLDatabase) Close() error {
	db, err := d.gormDB.DB()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(db.Close())
}

// Purge removes all rows from all tables.
func (d *SQLDatabase) Purge() error {
	for _, value := range []any{&User{}, &CartItem{}, &Bookmark{}, &Feedback{}, &Order{}} {
		if err := d.gormDB.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(value).Error; err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// InsertUser creates an account. Usernames are unique.
func (d *SQLDatabase) InsertUser(ctx context.Context, user User) (User, error) {
	var count int64
	if err := d.gormDB.WithContext(ctx).Model(&User{}).
		Where("username = ?", user.Username).Count(&count).Error; err != nil {
		return User{}, errors.Trace(err)
	}
	if count > 0 {
		return User{}, ErrUserExists
	}
	if err := d.gormDB.WithContext(ctx).Create(&user).Error; err != nil {
		return User{}, errors.Trace(err)
	}
	return user, nil
}

// GetUser returns the account with the given username.
func (d *SQLDatabase) GetUser(ctx context.Context, username string) (User, error) {
	var user User
	err := d.gormDB.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrUserNotExist
	} else if err != nil {
		return User{}, errors.Trace(err)
	}
	return user, nil
}

// InsertCartItem adds a title to a user's cart.
func (d *SQLDatabase) InsertCartItem(ctx context.Context, userId uint, bookTitle string) error {
	return errors.Trace(d.gormDB.WithContext(ctx).
		Create(&CartItem{UserId: userId, BookTitle: bookTitle}).Error)
}

// GetCartItems returns all titles in a user's cart.
func (d *SQLDatabase) GetCartItems(ctx context.Context, userId uint) ([]CartItem, error) {
	items := make([]CartItem, 0)
	err := d.gormDB.WithContext(ctx).Where("user_id = ?", userId).Order("id").Find(&items).Error
	if err != nil {
		return nil, errors.Trace(err)
	}
	return items, nil
}

// DeleteCartItems empties a user's cart.
func (d *SQLDatabase) DeleteCartItems(ctx context.Context, userId uint) error {
	return errors.Trace(d.gormDB.WithContext(ctx).
		Where("user_id = ?", userId).Delete(&CartItem{}).Error)
}

// InsertBookmark saves a title for a user. Bookmarking the same title twice fails
// with ErrBookmarkExists.
func (d *SQLDatabase) InsertBookmark(ctx context.Context, userId uint, bookTitle string) error {
	var count int64
	if err := d.gormDB.WithContext(ctx).Model(&Bookmark{}).
		Where("user_id = ? AND book_title = ?", userId, bookTitle).Count(&count).Error; err != nil {
		return errors.Trace(err)
	}
	if count > 0 {
		return ErrBookmarkExists
	}
	return errors.Trace(d.gormDB.WithContext(ctx).
		Create(&Bookmark{UserId: userId, BookTitle: bookTitle}).Error)
}

// GetBookmarks returns all bookmarks of a user.
func (d *SQLDatabase) GetBookmarks(ctx context.Context, userId uint) ([]Bookmark, error) {
	bookmarks := make([]Bookmark, 0)
	err := d.gormDB.WithContext(ctx).Where("user_id = ?", userId).Order("id").Find(&bookmarks).Error
	if err != nil {
		return nil, errors.Trace(err)
	}
	return bookmarks, nil
}

// InsertFeedback appends a contact form message.
func (d *SQLDatabase) InsertFeedback(ctx context.Context, feedback Feedback) error {
	return errors.Trace(d.gormDB.WithContext(ctx).Create(&feedback).Error)
}

// InsertOrder stores a placed order.
func (d *SQLDatabase) InsertOrder(ctx context.Context, order Order) (Order, error) {
	if err := d.gormDB.WithContext(ctx).Create(&order).Error; err != nil {
		return Order{}, errors.Trace(err)
	}
	return order, nil
}

// GetOrders returns the orders of a user, newest first.
func (d *SQLDatabase) GetOrders(ctx context.Context, userId uint) ([]Order, error) {
	orders := make([]Order, 0)
	err := d.gormDB.WithContext(ctx).Where("user_id = ?", userId).
		Order("created_at DESC, id DESC").Find(&orders).Error
	if err != nil {
		return nil, errors.Trace(err)
	}
	return orders, nil
}
