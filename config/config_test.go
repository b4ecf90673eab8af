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
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

const testConfig = `
[database]
data_store = "sqlite://test.db"

[popular]
rating_threshold = 100

[server]
jwt_secret = "test_secret"
http_port = 9000
`

func TestLoadConfig(t *testing.T) {
	viper.Reset()
	path := filepath.Join(t.TempDir(), "config.toml")
	assert.NoError(t, os.WriteFile(path, []byte(testConfig), 0644))
	t.Setenv("BOOKGENIE_COLLABORATIVE_NUM_RECOMMENDED", "3")

	conf, err := LoadConfig(path)
	assert.NoError(t, err)
	// values from the file
	assert.Equal(t, "sqlite://test.db", conf.Database.DataStore)
	assert.Equal(t, 100, conf.Popular.RatingThreshold)
	assert.Equal(t, "test_secret", conf.Server.JWTSecret)
	assert.Equal(t, 9000, conf.Server.HttpPort)
	// value from the environment
	assert.Equal(t, 3, conf.Collaborative.NumRecommended)
	// defaults
	assert.Equal(t, 50, conf.Popular.NumPopular)
	assert.Equal(t, 200, conf.Collaborative.ActiveUserThreshold)
	assert.Equal(t, 50, conf.Collaborative.FamousTitleThreshold)
	assert.Equal(t, 14, conf.Collaborative.NumCandidates)
	assert.Equal(t, 24, conf.Server.TokenTTLHours)
}

func TestLoadConfigMissingSecret(t *testing.T) {
	viper.Reset()
	path := filepath.Join(t.TempDir(), "config.toml")
	assert.NoError(t, os.WriteFile(path, []byte("[database]\ndata_store = \"sqlite://test.db\"\n"), 0644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestGetDefaultConfig(t *testing.T) {
	conf := GetDefaultConfig()
	assert.Equal(t, 250, conf.Popular.RatingThreshold)
	assert.Equal(t, 50, conf.Popular.NumPopular)
	assert.Equal(t, 200, conf.Collaborative.ActiveUserThreshold)
	assert.Equal(t, 50, conf.Collaborative.FamousTitleThreshold)
	assert.Equal(t, 14, conf.Collaborative.NumCandidates)
	assert.Equal(t, 5, conf.Collaborative.NumRecommended)
}
