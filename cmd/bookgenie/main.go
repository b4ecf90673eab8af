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

package main

import (
	_ "net/http/pprof"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bookgenie-io/bookgenie/base/log"
	"github.com/bookgenie-io/bookgenie/config"
	"github.com/bookgenie-io/bookgenie/dataset"
	"github.com/bookgenie-io/bookgenie/logics"
	"github.com/bookgenie-io/bookgenie/server"
	"github.com/bookgenie-io/bookgenie/storage/artifact"
	"github.com/bookgenie-io/bookgenie/storage/data"
)

var rootCommand = &cobra.Command{
	Use:   "bookgenie",
	Short: "The book recommendation engine.",
}

var serveCommand = &cobra.Command{
	Use:   "serve",
	Short: "Start the RESTful API server.",
	Run: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
		configPath, _ := cmd.Flags().GetString("config")
		conf, err := config.LoadConfig(configPath)
		if err != nil {
			log.Logger().Fatal("failed to load config", zap.Error(err))
		}
		// open CRUD database
		dataClient, err := data.Open(conf.Database.DataStore)
		if err != nil {
			log.Logger().Fatal("failed to connect database",
				zap.String("database", log.RedactDBURL(conf.Database.DataStore)), zap.Error(err))
		}
		if err = dataClient.Init(); err != nil {
			log.Logger().Fatal("failed to init database", zap.Error(err))
		}
		// load artifacts, missing or stale artifacts are fatal at startup
		catalog, err := artifact.Load(conf.Data.ArtifactPath)
		if err != nil {
			log.Logger().Fatal("failed to load artifacts, run `bookgenie update-data` first",
				zap.String("path", conf.Data.ArtifactPath), zap.Error(err))
		}
		holder := new(artifact.Holder)
		holder.Store(catalog)
		log.Logger().Info("loaded artifacts",
			zap.Int("num_popular", len(catalog.Popular)),
			zap.Int("num_titles", len(catalog.TitleIndex)))
		server.NewRestServer(conf, dataClient, holder).StartHttpServer()
	},
}

var updateDataCommand = &cobra.Command{
	Use:   "update-data",
	Short: "Rebuild the popularity table and the similarity matrix from the raw datasets.",
	Run: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
		configPath, _ := cmd.Flags().GetString("config")
		conf, err := config.LoadConfig(configPath)
		if err != nil {
			log.Logger().Fatal("failed to load config", zap.Error(err))
		}
		books, err := dataset.LoadBooks(conf.Data.BooksFile)
		if err != nil {
			log.Logger().Fatal("failed to load books", zap.Error(err))
		}
		users, err := dataset.LoadUsers(conf.Data.UsersFile)
		if err != nil {
			log.Logger().Fatal("failed to load users", zap.Error(err))
		}
		ratings, err := dataset.LoadRatings(conf.Data.RatingsFile)
		if err != nil {
			log.Logger().Fatal("failed to load ratings", zap.Error(err))
		}
		log.Logger().Info("loaded datasets",
			zap.Int("num_books", len(books)),
			zap.Int("num_users", len(users)),
			zap.Int("num_ratings", len(ratings)))
		catalog, err := logics.BuildCatalog(conf, books, ratings)
		if err != nil {
			log.Logger().Fatal("failed to build catalog", zap.Error(err))
		}
		if err = artifact.Save(conf.Data.ArtifactPath, catalog); err != nil {
			log.Logger().Fatal("failed to save artifacts", zap.Error(err))
		}
		log.Logger().Info("saved artifacts",
			zap.String("path", conf.Data.ArtifactPath),
			zap.Int("num_popular", len(catalog.Popular)),
			zap.Int("num_titles", len(catalog.TitleIndex)),
			zap.Int("num_users", len(catalog.UserIndex)))
	},
}

func init() {
	rootCommand.PersistentFlags().StringP("config", "c", "config.toml", "path of configuration file")
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.AddCommand(serveCommand)
	rootCommand.AddCommand(updateDataCommand)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
