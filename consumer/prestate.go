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

package consumer

import (
	"github.com/scylladb/go-sstable-consumer/buffer"
)

// prestateTag records which primitive read, if any, is in flight across
// buffer boundaries.
type prestateTag uint8

const (
	prestateNone prestateTag = iota
	prestateU8
	prestateU16
	prestateU32
	prestateU64
	prestateBytes
)

func widthOf(tag prestateTag) (int, bool) {
	switch tag {
	case prestateU8:
		return 1, true
	case prestateU16:
		return 2, true
	case prestateU32:
		return 4, true
	case prestateU64:
		return 8, true
	default:
		return 0, false
	}
}

// prestate is the cross-buffer resumption record for exactly one in-flight
// primitive read. Only one can ever be armed at a time, matching the
// invariant that the current buffer is fully drained before the
// StateProcessor observes another byte while a prestate is armed.
type prestate struct {
	tag prestateTag
	pos int

	// scratch holds partially-assembled integer bytes, big-endian, while
	// tag is one of prestateU8..prestateU64.
	scratch [8]byte

	dstU8  *uint8
	dstU16 *uint16
	dstU32 *uint32
	dstU64 *uint64

	// state for prestateBytes
	bytesBuf buffer.Buffer
	bytesLen int
	bytesDst *buffer.Buffer
}

func (p *prestate) armed() bool { return p.tag != prestateNone }

// armInt arms the prestate for a width-byte integer read, copying whatever
// is left in buf into scratch and draining buf to empty.
func (p *prestate) armInt(tag prestateTag, buf *buffer.Buffer) {
	n := buf.Size()
	copy(p.scratch[:n], buf.Bytes())
	buf.TrimFront(n)
	p.tag = tag
	p.pos = n
}

func (p *prestate) readU8(buf *buffer.Buffer, dst *uint8) bool {
	if buf.Size() >= 1 {
		*dst = buf.Bytes()[0]
		buf.TrimFront(1)
		return true
	}
	p.armInt(prestateU8, buf)
	p.dstU8 = dst
	return false
}

func (p *prestate) readU16(buf *buffer.Buffer, dst *uint16) bool {
	if buf.Size() >= 2 {
		*dst = buffer.DecodeU16(buf.Bytes())
		buf.TrimFront(2)
		return true
	}
	p.armInt(prestateU16, buf)
	p.dstU16 = dst
	return false
}

func (p *prestate) readU32(buf *buffer.Buffer, dst *uint32) bool {
	if buf.Size() >= 4 {
		*dst = buffer.DecodeU32(buf.Bytes())
		buf.TrimFront(4)
		return true
	}
	p.armInt(prestateU32, buf)
	p.dstU32 = dst
	return false
}

func (p *prestate) readU64(buf *buffer.Buffer, dst *uint64) bool {
	if buf.Size() >= 8 {
		*dst = buffer.DecodeU64(buf.Bytes())
		buf.TrimFront(8)
		return true
	}
	p.armInt(prestateU64, buf)
	p.dstU64 = dst
	return false
}

// readBytes publishes a shared, zero-copy view of the next n bytes of buf
// into *dst if buf already holds all of them. Otherwise it allocates an
// owned scratch buffer of exactly n bytes via buffer.NewOwned (the one
// allocation the cold path ever needs), copies the partial prefix in, and
// arms the prestate.
func (p *prestate) readBytes(buf *buffer.Buffer, n int, dst *buffer.Buffer) bool {
	if buf.Size() >= n {
		*dst = buf.Share(0, n)
		buf.TrimFront(n)
		return true
	}
	owned := buffer.NewOwned(n)
	copied := copy(owned.Bytes(), buf.Bytes())
	buf.TrimFront(copied)
	p.tag = prestateBytes
	p.pos = copied
	p.bytesBuf = owned
	p.bytesLen = n
	p.bytesDst = dst
	return false
}

// resume drains whatever is left of an in-flight read from buf. It must
// only be called while armed. After it returns, either the prestate is
// disarmed (tag == prestateNone and the published value/slice has been
// deposited in its destination) or buf has been fully drained and the
// caller must request another buffer from the stream.
func (p *prestate) resume(buf *buffer.Buffer) error {
	if p.tag == prestateBytes {
		return p.resumeBytes(buf)
	}
	return p.resumeInt(buf)
}

func (p *prestate) resumeBytes(buf *buffer.Buffer) error {
	n := p.bytesLen - p.pos
	if avail := buf.Size(); avail < n {
		n = avail
	}
	copy(p.bytesBuf.Bytes()[p.pos:], buf.Bytes()[:n])
	buf.TrimFront(n)
	p.pos += n
	if p.pos == p.bytesLen {
		*p.bytesDst = p.bytesBuf
		p.bytesBuf = buffer.Buffer{}
		p.resetBytes()
	}
	return nil
}

func (p *prestate) resumeInt(buf *buffer.Buffer) error {
	width, ok := widthOf(p.tag)
	if !ok {
		return NewMalformedInputError("unknown prestate tag at resumption")
	}
	n := width - p.pos
	if avail := buf.Size(); avail < n {
		n = avail
	}
	copy(p.scratch[p.pos:], buf.Bytes()[:n])
	buf.TrimFront(n)
	p.pos += n
	if p.pos == width {
		p.publishInt()
	}
	return nil
}

func (p *prestate) publishInt() {
	switch p.tag {
	case prestateU8:
		*p.dstU8 = p.scratch[0]
	case prestateU16:
		*p.dstU16 = buffer.DecodeU16(p.scratch[:2])
	case prestateU32:
		*p.dstU32 = buffer.DecodeU32(p.scratch[:4])
	case prestateU64:
		*p.dstU64 = buffer.DecodeU64(p.scratch[:8])
	}
	p.resetInt()
}

func (p *prestate) resetInt() {
	p.tag = prestateNone
	p.pos = 0
	p.dstU8, p.dstU16, p.dstU32, p.dstU64 = nil, nil, nil, nil
}

func (p *prestate) resetBytes() {
	p.tag = prestateNone
	p.pos = 0
	p.bytesBuf = buffer.Buffer{}
	p.bytesLen = 0
	p.bytesDst = nil
}

// discard disarms the prestate, freeing any owned scratch without
// publishing it anywhere. It is used by FastForwardTo/SkipTo, which discard
// an in-flight read silently (spec: the caller asserts this is semantically
// safe for its state machine).
func (p *prestate) discard() {
	if p.tag == prestateBytes {
		p.bytesBuf.Release()
	}
	p.resetInt()
	p.resetBytes()
}
