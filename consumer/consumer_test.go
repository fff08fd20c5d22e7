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

package consumer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scylladb/go-sstable-consumer/buffer"
	"github.com/scylladb/go-sstable-consumer/consumer"
	"github.com/scylladb/go-sstable-consumer/stream"
)

// fakeStream delivers a fixed, pre-sliced sequence of chunks to whatever
// Sink it's given, exactly the slicing-invariance property package
// consumer needs to hold regardless of chunk boundaries.
type fakeStream struct {
	chunks  [][]byte
	idx     int
	skipped []int64
	closed  bool
}

func (f *fakeStream) Consume(sink stream.Sink) error {
	for {
		var data buffer.Buffer
		eof := f.idx >= len(f.chunks)
		if !eof {
			data = buffer.Wrap(f.chunks[f.idx])
			f.idx++
		}
		outcome, err := sink(data)
		if err != nil {
			return err
		}
		if eof {
			return nil
		}
		switch outcome.Kind {
		case stream.Stop:
			return nil
		case stream.SkipN:
			if err := f.Skip(int64(outcome.N)); err != nil {
				return err
			}
		}
	}
}

func (f *fakeStream) Skip(n int64) error {
	f.skipped = append(f.skipped, n)
	return nil
}

func (f *fakeStream) Close() error {
	f.closed = true
	return nil
}

// byteCollector is a minimal StateProcessor that reads the window one byte
// at a time, regardless of how the input is chunked.
type byteCollector struct {
	got         []byte
	verifyCalls int
}

func (b *byteCollector) ProcessState(c *consumer.Consumer[*byteCollector], buf *buffer.Buffer) (consumer.ProcessingResult, error) {
	var v uint8
	if !c.ReadU8(buf, &v) {
		return consumer.Proceed(), nil
	}
	b.got = append(b.got, v)
	return consumer.Proceed(), nil
}

func (b *byteCollector) NonConsuming() bool { return false }

func (b *byteCollector) VerifyEndState() error {
	b.verifyCalls++
	return nil
}

func TestConsumeInputIsInvariantToChunking(t *testing.T) {
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	chunkings := [][][]byte{
		{want},
		{want[:1], want[1:]},
		{{want[0]}, {want[1]}, {want[2]}, want[3:]},
		{want[:3], want[3:7], want[7:]},
	}

	for _, chunks := range chunkings {
		fs := &fakeStream{chunks: chunks}
		proc := &byteCollector{}
		c := consumer.New[*byteCollector](fs, 0, uint64(len(want)), proc)

		require.NoError(t, c.ConsumeInput())
		assert.Equal(t, want, proc.got)
		assert.Equal(t, 1, proc.verifyCalls)
		assert.True(t, c.Eof())
	}
}

// boundaryStraddler reads one big-endian uint32 straight across whatever
// chunk boundaries happen to fall inside it. A read that has to wait still
// publishes into value once it completes, so the processor moves past the
// read either way, and reports the step after it as non-consuming so that
// it runs even when the read completes on an emptied buffer.
type boundaryStraddler struct {
	value   uint32
	reading bool
	got     bool
	verify  int
}

func (b *boundaryStraddler) ProcessState(c *consumer.Consumer[*boundaryStraddler], buf *buffer.Buffer) (consumer.ProcessingResult, error) {
	if !b.reading {
		b.reading = true
		if !c.ReadU32(buf, &b.value) {
			return consumer.Proceed(), nil
		}
	}
	b.got = true
	return consumer.Pause(), nil
}

func (b *boundaryStraddler) NonConsuming() bool { return b.reading && !b.got }

func (b *boundaryStraddler) VerifyEndState() error {
	b.verify++
	return nil
}

func TestResumesIntegerReadAcrossBufferBoundary(t *testing.T) {
	full := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	fs := &fakeStream{chunks: [][]byte{full[:1], full[1:3], full[3:]}}
	proc := &boundaryStraddler{}
	c := consumer.New[*boundaryStraddler](fs, 0, 4, proc)

	require.NoError(t, c.ConsumeInput())
	assert.True(t, proc.got)
	assert.Equal(t, uint32(0xDEADBEEF), proc.value)
	assert.Equal(t, uint64(4), c.Position())
}

func TestWindowBoundStopsBeforeOverflowBytes(t *testing.T) {
	// The window only owns the first 4 bytes; the rest must never reach the
	// StateProcessor through this Consumer.
	data := []byte{1, 2, 3, 4, 0xFF, 0xFF, 0xFF}
	fs := &fakeStream{chunks: [][]byte{data}}
	proc := &byteCollector{}
	c := consumer.New[*byteCollector](fs, 0, 4, proc)

	require.NoError(t, c.ConsumeInput())
	assert.Equal(t, []byte{1, 2, 3, 4}, proc.got)
	assert.True(t, c.Eof())
}

// skipOnce requests a skip the first time it's asked to process a block
// tag, then proceeds to read a trailing marker byte.
type skipOnce struct {
	skipped    bool
	marker     uint8
	markerRead bool
}

func (s *skipOnce) ProcessState(c *consumer.Consumer[*skipOnce], buf *buffer.Buffer) (consumer.ProcessingResult, error) {
	if !s.skipped {
		s.skipped = true
		return consumer.SkipBytes(3), nil
	}
	if !c.ReadU8(buf, &s.marker) {
		return consumer.Proceed(), nil
	}
	s.markerRead = true
	return consumer.Pause(), nil
}

func (s *skipOnce) NonConsuming() bool { return !s.skipped }

func (s *skipOnce) VerifyEndState() error { return nil }

func TestSkipBytesResolvesAgainstBufferedDataFirst(t *testing.T) {
	// 3 bytes to skip are already buffered in the same chunk as the marker
	// that follows them, so no stream-level Skip should be necessary.
	data := []byte{0xAA, 0xBB, 0xCC, 0x42}
	fs := &fakeStream{chunks: [][]byte{data}}
	proc := &skipOnce{}
	c := consumer.New[*skipOnce](fs, 0, uint64(len(data)), proc)

	require.NoError(t, c.ConsumeInput())
	assert.True(t, proc.markerRead)
	assert.Equal(t, uint8(0x42), proc.marker)
	assert.Empty(t, fs.skipped, "skip should have been resolved from already-buffered data")
}

func TestSkipBytesFallsBackToStreamSkipPastBufferedData(t *testing.T) {
	// Only 1 of the 3 bytes to skip is in the first chunk; the stream must
	// be asked to skip the other 2 before the marker chunk arrives.
	fs := &fakeStream{chunks: [][]byte{{0xAA}, {0x42, 0x00}}}
	proc := &skipOnce{}
	c := consumer.New[*skipOnce](fs, 0, 4, proc)

	require.NoError(t, c.ConsumeInput())
	assert.True(t, proc.markerRead)
	assert.Equal(t, uint8(0x42), proc.marker)
	require.Len(t, fs.skipped, 1)
	assert.Equal(t, int64(2), fs.skipped[0])
}

// pauseAfterArm starts a uint32 read (arming a cross-buffer resumption on
// the first byte) and immediately pauses, regardless of whether the read
// completed, to simulate a caller-driven pause with a read left in flight.
type pauseAfterArm struct {
	value uint32
}

func (p *pauseAfterArm) ProcessState(c *consumer.Consumer[*pauseAfterArm], buf *buffer.Buffer) (consumer.ProcessingResult, error) {
	c.ReadU32(buf, &p.value)
	return consumer.Pause(), nil
}

func (p *pauseAfterArm) NonConsuming() bool    { return false }
func (p *pauseAfterArm) VerifyEndState() error { return nil }

func TestFastForwardToDiscardsInFlightRead(t *testing.T) {
	fs := &fakeStream{chunks: [][]byte{{0x01}}}
	proc := &pauseAfterArm{}
	c := consumer.New[*pauseAfterArm](fs, 0, 100, proc)

	require.NoError(t, c.ConsumeInput())
	assert.Zero(t, proc.value, "only 1 of 4 bytes was ever delivered")

	require.NoError(t, c.FastForwardTo(10, 20))
	assert.Equal(t, uint64(10), c.Position())
	require.Len(t, fs.skipped, 1)
	assert.Equal(t, int64(9), fs.skipped[0])
}

// skipPastWindowEnd unconditionally requests a skip larger than the window
// it's given, to exercise what happens when a SkipBytes request overruns
// the window's remaining bytes rather than landing inside it.
type skipPastWindowEnd struct {
	n           uint64
	verifyCalls int
}

func (s *skipPastWindowEnd) ProcessState(c *consumer.Consumer[*skipPastWindowEnd], buf *buffer.Buffer) (consumer.ProcessingResult, error) {
	return consumer.SkipBytes(s.n), nil
}

func (s *skipPastWindowEnd) NonConsuming() bool { return false }

func (s *skipPastWindowEnd) VerifyEndState() error {
	s.verifyCalls++
	return nil
}

func TestSkipBytesPastWindowEndExhaustsWindowInsteadOfErroring(t *testing.T) {
	// The window only owns 4 bytes; the record declares a skip of 100,
	// mirroring blockreader's SetMaxPayloadLen path when an oversized
	// record's declared length pushes SkipBytes past the window it's
	// being consumed in. The skip must clamp to what's left of the window
	// and stop cleanly rather than returning a precondition error.
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	fs := &fakeStream{chunks: [][]byte{data}}
	proc := &skipPastWindowEnd{n: 100}
	c := consumer.New[*skipPastWindowEnd](fs, 0, 4, proc)

	require.NoError(t, c.ConsumeInput())
	assert.True(t, c.Eof())
	assert.Equal(t, uint64(4), c.Position())
	assert.Equal(t, 1, proc.verifyCalls)
	assert.Empty(t, fs.skipped, "the overrun past the window end is never handed to the stream")
}

func TestFastForwardToRejectsBackwardBegin(t *testing.T) {
	fs := &fakeStream{}
	proc := &byteCollector{}
	c := consumer.New[*byteCollector](fs, 10, 10, proc)

	err := c.FastForwardTo(5, 20)
	require.Error(t, err)
	var pv *consumer.PreconditionViolationError
	assert.ErrorAs(t, err, &pv)
}
