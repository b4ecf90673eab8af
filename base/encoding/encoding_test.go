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

package encoding

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatrix(t *testing.T) {
	buffer := bytes.NewBuffer(nil)
	matrix := [][]float32{{1, 2, 3}, {4, 5, 6}}
	err := WriteMatrix(buffer, matrix)
	assert.NoError(t, err)
	decoded := [][]float32{make([]float32, 3), make([]float32, 3)}
	err = ReadMatrix(buffer, decoded)
	assert.NoError(t, err)
	assert.Equal(t, matrix, decoded)
}

func TestBytes(t *testing.T) {
	buffer := bytes.NewBuffer(nil)
	err := WriteBytes(buffer, []byte("bookgenie"))
	assert.NoError(t, err)
	data, err := ReadBytes(buffer)
	assert.NoError(t, err)
	assert.Equal(t, "bookgenie", string(data))
}

func TestGob(t *testing.T) {
	buffer := bytes.NewBuffer(nil)
	err := WriteGob(buffer, []string{"a", "b", "c"})
	assert.NoError(t, err)
	var decoded []string
	err = ReadGob(buffer, &decoded)
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, decoded)
}
