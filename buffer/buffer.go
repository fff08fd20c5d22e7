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

// Package buffer provides a trimmable, shareable view over a contiguous run
// of bytes. A Buffer is the unit of currency between a Stream and a
// Consumer: the stream hands one in, the consumer trims its front as it
// reads, and shares aliased sub-views out to a StateProcessor without
// copying.
package buffer

import (
	"github.com/cloudwego/gopkg/unsafex"
)

// Buffer is an owned or aliased view over bytes. The zero value is an empty
// buffer. A Buffer returned by Share aliases its parent's backing array and
// must not be used after the parent's backing storage is reused or freed.
type Buffer struct {
	data    []byte
	release func()
}

// Wrap returns a Buffer over b that owns no release hook; dropping it is a
// no-op. Use this for data the caller manages independently (e.g. a slice
// already owned by a pool the caller will free itself).
func Wrap(b []byte) Buffer {
	return Buffer{data: b}
}

// WrapOwned returns a Buffer over b whose backing storage is released by
// calling release exactly once, either explicitly via Release or implicitly
// via TrimAll.
func WrapOwned(b []byte, release func()) Buffer {
	return Buffer{data: b, release: release}
}

// Size returns the number of unread bytes remaining in the buffer.
func (b Buffer) Size() int { return len(b.data) }

// Empty reports whether the buffer has no unread bytes left.
func (b Buffer) Empty() bool { return len(b.data) == 0 }

// Bytes returns the unread bytes. The caller must not retain the slice past
// the buffer's lifetime (see the zero-copy discipline in package doc).
func (b Buffer) Bytes() []byte { return b.data }

// String returns a zero-copy string view of the unread bytes. As with
// Bytes, the result must not be retained past the buffer's lifetime.
func (b Buffer) String() string { return unsafex.BinaryToString(b.data) }

// TrimFront drops the first n bytes from the buffer without touching the
// release hook; it is the caller's job to have consumed those bytes first.
func (b *Buffer) TrimFront(n int) { b.data = b.data[n:] }

// TrimAll drops all remaining bytes and runs the release hook, if any. A
// Buffer trimmed to empty this way still reports Size() == 0 afterward, the
// same as one that was never populated.
func (b *Buffer) TrimAll() {
	b.Release()
	b.data = nil
}

// Share returns an aliased sub-view of length n starting at off within the
// buffer's unread bytes. The returned Buffer shares storage with b and owns
// no release hook of its own — releasing b (or its owner) invalidates every
// share taken from it, per the discipline documented on package buffer: a
// StateProcessor must consume a shared view synchronously or take ownership
// of it by move before its source buffer is released.
func (b Buffer) Share(off, n int) Buffer {
	return Buffer{data: b.data[off : off+n]}
}

// Release runs the release hook exactly once, if one was attached via
// WrapOwned. Calling Release more than once is a no-op.
func (b *Buffer) Release() {
	if b.release != nil {
		f := b.release
		b.release = nil
		f()
	}
}
