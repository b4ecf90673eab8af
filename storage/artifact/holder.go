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

package artifact

import (
	"go.uber.org/atomic"

	"github.com/bookgenie-io/bookgenie/logics"
)

// Holder owns the active catalog snapshot. Lookups read the whole snapshot through a
// single pointer and a reload swaps the pointer, so a lookup can never observe a mix
// of old and new artifacts.
type Holder struct {
	catalog atomic.Pointer[logics.Catalog]
}

// Store swaps in a new catalog snapshot.
func (h *Holder) Store(catalog *logics.Catalog) {
	h.catalog.Store(catalog)
}

// Load returns the active catalog snapshot, or nil if none was stored yet.
func (h *Holder) Load() *logics.Catalog {
	return h.catalog.Load()
}
