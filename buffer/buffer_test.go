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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferTrimFront(t *testing.T) {
	b := Wrap([]byte("hello world"))
	b.TrimFront(6)
	assert.Equal(t, "world", b.String())
	assert.Equal(t, 5, b.Size())
}

func TestBufferShareAliases(t *testing.T) {
	data := []byte("0123456789")
	b := Wrap(data)
	sh := b.Share(2, 3)
	assert.Equal(t, []byte("234"), sh.Bytes())

	// Share aliases the same backing array: mutating through the parent's
	// slice is visible through the shared view.
	data[2] = 'X'
	assert.Equal(t, byte('X'), sh.Bytes()[0])
}

func TestBufferTrimAllReleasesOnce(t *testing.T) {
	calls := 0
	b := WrapOwned([]byte("abc"), func() { calls++ })
	b.TrimAll()
	assert.Equal(t, 0, b.Size())
	b.Release()
	assert.Equal(t, 1, calls)
}

func TestNewOwnedRoundTrip(t *testing.T) {
	b := NewOwned(16)
	require.Equal(t, 16, b.Size())
	copy(b.Bytes(), []byte("prestate-scratch"))
	assert.Equal(t, "prestate-scratch", b.String())
	b.Release()
}

func TestBigEndianRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 0xFF, 0xFFFF, 0xFFFFFFFF, 0xFFFFFFFFFFFFFFFF, 1<<63 - 1}
	for _, v := range cases {
		var buf []byte
		buf = EncodeU16(buf[:0], uint16(v))
		assert.Equal(t, uint16(v), DecodeU16(buf))

		buf = EncodeU32(buf[:0], uint32(v))
		assert.Equal(t, uint32(v), DecodeU32(buf))

		buf = EncodeU64(buf[:0], v)
		assert.Equal(t, v, DecodeU64(buf))
	}
}
