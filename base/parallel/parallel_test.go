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

package parallel

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"
)

func TestParallel(t *testing.T) {
	for _, nWorkers := range []int{1, 4} {
		sum := atomic.NewInt64(0)
		err := Parallel(100, nWorkers, func(_, jobId int) error {
			sum.Add(int64(jobId))
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, int64(4950), sum.Load())
	}
}

func TestParallelError(t *testing.T) {
	expected := errors.New("boom")
	err := Parallel(100, 4, func(_, jobId int) error {
		if jobId == 50 {
			return expected
		}
		return nil
	})
	assert.ErrorIs(t, err, expected)
}
