// Copyright 2024 CloudWeGo Authors
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

package buffer

import "github.com/bytedance/gopkg/lang/mcache"

// NewOwned allocates a fresh, pooled buffer of exactly n bytes. It backs the
// prestate machine's READING_BYTES slow path (spec: "allocate a fresh owned
// buffer of exactly len bytes"), which needs a destination to copy partial
// reads into across an arbitrary number of resumptions. The returned Buffer
// releases its storage back to the pool on Release/TrimAll.
func NewOwned(n int) Buffer {
	b := mcache.Malloc(n)
	return WrapOwned(b, func() { mcache.Free(b) })
}
