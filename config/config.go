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

package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the configuration for the engine.
type Config struct {
	Database      DatabaseConfig      `mapstructure:"database"`
	Data          DataConfig          `mapstructure:"data"`
	Popular       PopularConfig       `mapstructure:"popular"`
	Collaborative CollaborativeConfig `mapstructure:"collaborative"`
	Server        ServerConfig        `mapstructure:"server"`
}

// DatabaseConfig is the configuration for the database of users, carts, bookmarks,
// feedback and orders.
type DatabaseConfig struct {
	// DataStore is the database for persisting CRUD entities, supports MySQL,
	// Postgres and SQLite.
	DataStore string `mapstructure:"data_store" validate:"required"`
}

// DataConfig locates the raw datasets and the artifact file produced from them.
type DataConfig struct {
	BooksFile    string `mapstructure:"books_file" validate:"required"`
	UsersFile    string `mapstructure:"users_file" validate:"required"`
	RatingsFile  string `mapstructure:"ratings_file" validate:"required"`
	ArtifactPath string `mapstructure:"artifact_path" validate:"required"`
}

// PopularConfig is the configuration for the popularity table.
type PopularConfig struct {
	// RatingThreshold is the minimal number of ratings required for a title to
	// enter the popularity table.
	RatingThreshold int `mapstructure:"rating_threshold" validate:"gt=0"`
	// NumPopular is the size limit of the popularity table.
	NumPopular int `mapstructure:"num_popular" validate:"gt=0"`
}

// CollaborativeConfig is the configuration for item-to-item collaborative filtering.
type CollaborativeConfig struct {
	// ActiveUserThreshold is the number of ratings a user must exceed to be counted
	// as active.
	ActiveUserThreshold int `mapstructure:"active_user_threshold" validate:"gte=0"`
	// FamousTitleThreshold is the minimal number of ratings among active users
	// required for a title to enter the rating matrix.
	FamousTitleThreshold int `mapstructure:"famous_title_threshold" validate:"gt=0"`
	// NumCandidates is the number of nearest titles considered before the rating
	// filter is applied.
	NumCandidates int `mapstructure:"num_candidates" validate:"gt=0"`
	// NumRecommended is the maximal number of titles returned by a lookup.
	NumRecommended int `mapstructure:"num_recommended" validate:"gt=0"`
}

// ServerConfig is the configuration for the RESTful server.
type ServerConfig struct {
	HttpHost string `mapstructure:"http_host"`
	HttpPort int    `mapstructure:"http_port" validate:"gte=0"`
	// JWTSecret signs session tokens issued by the login endpoint.
	JWTSecret string `mapstructure:"jwt_secret" validate:"required"`
	// TokenTTLHours is the lifetime of a session token in hours.
	TokenTTLHours int `mapstructure:"token_ttl_hours" validate:"gt=0"`
}

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DataStore: "sqlite://bookgenie.db",
		},
		Data: DataConfig{
			BooksFile:    "data/Books.csv",
			UsersFile:    "data/Users.csv",
			RatingsFile:  "data/Ratings.csv",
			ArtifactPath: "data/catalog.bin",
		},
		Popular: PopularConfig{
			RatingThreshold: 250,
			NumPopular:      50,
		},
		Collaborative: CollaborativeConfig{
			ActiveUserThreshold:  200,
			FamousTitleThreshold: 50,
			NumCandidates:        14,
			NumRecommended:       5,
		},
		Server: ServerConfig{
			HttpHost:      "127.0.0.1",
			HttpPort:      8088,
			JWTSecret:     "",
			TokenTTLHours: 24,
		},
	}
}

func setDefault() {
	defaultConfig := GetDefaultConfig()
	viper.SetDefault("database.data_store", defaultConfig.Database.DataStore)
	viper.SetDefault("data.books_file", defaultConfig.Data.BooksFile)
	viper.SetDefault("data.users_file", defaultConfig.Data.UsersFile)
	viper.SetDefault("data.ratings_file", defaultConfig.Data.RatingsFile)
	viper.SetDefault("data.artifact_path", defaultConfig.Data.ArtifactPath)
	viper.SetDefault("popular.rating_threshold", defaultConfig.Popular.RatingThreshold)
	viper.SetDefault("popular.num_popular", defaultConfig.Popular.NumPopular)
	viper.SetDefault("collaborative.active_user_threshold", defaultConfig.Collaborative.ActiveUserThreshold)
	viper.SetDefault("collaborative.famous_title_threshold", defaultConfig.Collaborative.FamousTitleThreshold)
	viper.SetDefault("collaborative.num_candidates", defaultConfig.Collaborative.NumCandidates)
	viper.SetDefault("collaborative.num_recommended", defaultConfig.Collaborative.NumRecommended)
	viper.SetDefault("server.http_host", defaultConfig.Server.HttpHost)
	viper.SetDefault("server.http_port", defaultConfig.Server.HttpPort)
	// registered with an empty default so the environment override is bound
	viper.SetDefault("server.jwt_secret", defaultConfig.Server.JWTSecret)
	viper.SetDefault("server.token_ttl_hours", defaultConfig.Server.TokenTTLHours)
}

// LoadConfig loads the configuration from a TOML file. Any option can be overridden
// by an environment variable prefixed with BOOKGENIE_.
func LoadConfig(path string) (*Config, error) {
	setDefault()
	viper.SetConfigFile(path)
	viper.SetConfigType("toml")
	viper.SetEnvPrefix("bookgenie")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		return nil, errors.Trace(err)
	}
	conf := new(Config)
	if err := viper.Unmarshal(conf); err != nil {
		return nil, errors.Trace(err)
	}
	if err := validator.New().Struct(conf); err != nil {
		return nil, errors.Trace(err)
	}
	return conf, nil
}
