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

// Package consumer implements the resumable, zero-copy byte-stream
// consumer: a Consumer[P] drives a Stream, handing each delivered buffer to
// a StateProcessor P one primitive read at a time, and transparently
// resuming any read that straddled a buffer boundary the next time the
// stream calls back in. None of its methods are safe for concurrent use by
// more than one goroutine at a time; it is meant to be driven by exactly
// the goroutine that owns the underlying Stream.
package consumer

import (
	"github.com/scylladb/go-sstable-consumer/buffer"
	"github.com/scylladb/go-sstable-consumer/stream"
)

// Consumer drives a Stream, feeding each buffer it delivers through a
// StateProcessor's ProcessState one read at a time, transparently resuming
// any read that was interrupted by a buffer boundary. P is the concrete
// StateProcessor type; Consumer is generic over it the way the original
// C++ continuous_data_consumer is a template over its subclass, so that
// ProcessState calls are resolved statically rather than through an
// interface's indirect dispatch.
type Consumer[P StateProcessor[P]] struct {
	s    stream.Stream
	proc P

	win      window
	pre      prestate
	eofSeen  bool
	verified bool
}

// New creates a Consumer that will drive s, reading the window
// [start, start+maxlen) and handing buffers to proc.
func New[P StateProcessor[P]](s stream.Stream, start, maxlen uint64, proc P) *Consumer[P] {
	return &Consumer[P]{
		s:    s,
		proc: proc,
		win:  newWindow(start, maxlen),
	}
}

// Position returns the absolute stream position of the next byte this
// Consumer will deliver to the StateProcessor.
func (c *Consumer[P]) Position() uint64 { return c.win.position }

// ReaderPosition is an alias for Position kept for symmetry with the
// original consumer.hh naming; callers that want "where is the underlying
// reader, independent of any buffered-but-unconsumed bytes" should use
// Position, since this implementation never buffers ahead of what it has
// already handed the StateProcessor.
func (c *Consumer[P]) ReaderPosition() uint64 { return c.Position() }

// Eof reports whether the window has been fully consumed or the stream has
// signalled end-of-file.
func (c *Consumer[P]) Eof() bool { return c.win.eof() || c.eofSeen }

// ReadU8 reads one byte from buf, or arms a cross-buffer resumption if buf
// is exhausted first. It returns true if the value was decoded.
func (c *Consumer[P]) ReadU8(buf *buffer.Buffer, dst *uint8) bool { return c.pre.readU8(buf, dst) }

// ReadU16 reads a big-endian uint16 from buf, or arms a cross-buffer
// resumption if buf does not hold all 2 bytes yet.
func (c *Consumer[P]) ReadU16(buf *buffer.Buffer, dst *uint16) bool { return c.pre.readU16(buf, dst) }

// ReadU32 reads a big-endian uint32 from buf, or arms a cross-buffer
// resumption if buf does not hold all 4 bytes yet.
func (c *Consumer[P]) ReadU32(buf *buffer.Buffer, dst *uint32) bool { return c.pre.readU32(buf, dst) }

// ReadU64 reads a big-endian uint64 from buf, or arms a cross-buffer
// resumption if buf does not hold all 8 bytes yet.
func (c *Consumer[P]) ReadU64(buf *buffer.Buffer, dst *uint64) bool { return c.pre.readU64(buf, dst) }

// ReadBytes reads the next n bytes of buf into *dst as a zero-copy shared
// view if buf already holds all of them, or arms a cross-buffer resumption
// (allocating an owned scratch buffer) otherwise.
func (c *Consumer[P]) ReadBytes(buf *buffer.Buffer, n int, dst *buffer.Buffer) bool {
	return c.pre.readBytes(buf, n, dst)
}

// ConsumeInput drives the stream until the window is exhausted, the stream
// reaches EOF, or the StateProcessor pauses. It is the entry point a caller
// invokes once per logical parse; calling it again after it returns nil
// resumes driving the same window from wherever it left off (a no-op if the
// window or stream is already exhausted).
func (c *Consumer[P]) ConsumeInput() error {
	if c.win.eof() {
		return c.finish()
	}
	return c.s.Consume(c.sink)
}

// sink is handed to the Stream as its Sink callback. An empty data buffer
// signals EOF; otherwise it repeatedly hands window-bounded slices of data
// to processBuffer, resolving skip requests against already-buffered bytes
// before falling back to a stream-level skip, until data is drained, the
// window is exhausted, or the StateProcessor pauses.
func (c *Consumer[P]) sink(data buffer.Buffer) (stream.ConsumptionOutcome, error) {
	if data.Empty() {
		c.eofSeen = true
		if c.pre.armed() {
			return stream.ConsumptionOutcome{}, NewMalformedInputError(
				"stream reached EOF with a read in flight")
		}
		if err := c.finish(); err != nil {
			return stream.ConsumptionOutcome{}, err
		}
		return stream.StopConsuming(data), nil
	}

	for {
		if c.win.eof() {
			if err := c.finish(); err != nil {
				return stream.ConsumptionOutcome{}, err
			}
			return stream.StopConsuming(data), nil
		}

		result, err := c.processBuffer(&data)
		if err != nil {
			return stream.ConsumptionOutcome{}, err
		}

		if n, ok := result.IsSkip(); ok {
			remote, exhausted := c.applySkip(&data, n)
			if exhausted {
				if err := c.finish(); err != nil {
					return stream.ConsumptionOutcome{}, err
				}
				return stream.StopConsuming(data), nil
			}
			if remote > 0 {
				// data is guaranteed empty here: applySkip only reports a
				// remote remainder when the skip ran past what was
				// buffered. Hand the rest to the driving Stream rather than
				// reaching into it directly, so the next sink call starts
				// from the chunk after whatever Skip discards.
				return stream.SkipBytes(remote), nil
			}
			continue
		}
		if result.Verdict() == ProceedNo {
			return stream.StopConsuming(data), nil
		}
		if data.Empty() {
			return stream.ContinueConsuming(), nil
		}
	}
}

// processBuffer hands the StateProcessor at most c.win.remaining bytes of
// buf — never more, so it never sees bytes past the end of its window —
// and trims buf by exactly however many of those bytes were actually
// consumed, leaving the rest (a pause's unconsumed tail, or the overflow
// past the window boundary) untouched in buf.
func (c *Consumer[P]) processBuffer(buf *buffer.Buffer) (ProcessingResult, error) {
	limit := buf.Size()
	if uint64(limit) > c.win.remaining {
		limit = int(c.win.remaining)
	}
	bounded := buf.Share(0, limit)
	result, err := c.stepState(&bounded)
	buf.TrimFront(limit - bounded.Size())
	return result, err
}

// applySkip resolves a SkipBytes(n) request. The window clamps n to however
// many bytes it actually has left, exhausting it rather than erroring if n
// overruns (a record's declared length pushing a SkipBytes past the window's
// end is a normal, documented edge case, not a precondition violation).
// Whatever part of the clamped skip isn't already sitting in data is
// reported back as remote for the caller to hand off to the Stream.
func (c *Consumer[P]) applySkip(data *buffer.Buffer, n uint64) (remote uint64, exhausted bool) {
	skipped, exhausted := c.win.skip(n)

	buffered := skipped
	if avail := uint64(data.Size()); avail < buffered {
		buffered = avail
	}
	data.TrimFront(int(buffered))

	return skipped - buffered, exhausted
}

// stepState runs the StateProcessor against buf until it either drains
// buf, pauses, or requests a skip, advancing the window's position by
// however many bytes were actually handed over along the way. It folds in
// any cross-buffer resumption still armed from a previous call. It knows
// nothing about the window's bound; callers are responsible for never
// handing it more of buf than the window has left.
func (c *Consumer[P]) stepState(buf *buffer.Buffer) (ProcessingResult, error) {
	for {
		before := buf.Size()

		if c.pre.armed() {
			if err := c.pre.resume(buf); err != nil {
				return ProcessingResult{}, err
			}
			c.win.advance(uint64(before - buf.Size()))
			if c.pre.armed() {
				// buf was fully drained without completing the read.
				return Proceed(), nil
			}
			continue
		}

		if buf.Empty() && !c.proc.NonConsuming() {
			return Proceed(), nil
		}

		result, err := c.proc.ProcessState(c, buf)
		c.win.advance(uint64(before - buf.Size()))
		if err != nil {
			return ProcessingResult{}, NewMalformedInputErrorWithErr(err)
		}

		if _, isSkip := result.IsSkip(); isSkip {
			return result, nil
		}
		if result.Verdict() == ProceedNo {
			return result, nil
		}
		if buf.Empty() && !c.pre.armed() && !c.proc.NonConsuming() {
			return Proceed(), nil
		}
	}
}

// finish calls VerifyEndState exactly once, the first time the window is
// observed exhausted or the stream signals EOF.
func (c *Consumer[P]) finish() error {
	if c.verified {
		return nil
	}
	c.verified = true
	return c.proc.VerifyEndState()
}

// FastForwardTo repositions the consumer's window to [begin, end), silently
// discarding any read currently in flight, and skips the underlying stream
// forward to begin. begin must not be behind the current position, and end
// must not be behind begin.
func (c *Consumer[P]) FastForwardTo(begin, end uint64) error {
	skip, err := c.win.fastForwardTo(begin, end)
	if err != nil {
		return err
	}
	c.pre.discard()
	c.eofSeen = false
	if skip == 0 {
		return nil
	}
	return c.s.Skip(int64(skip))
}

// SkipTo repositions the consumer's window to start at begin while keeping
// its current end bound, silently discarding any read currently in flight.
func (c *Consumer[P]) SkipTo(begin uint64) error {
	skip, err := c.win.skipTo(begin)
	if err != nil {
		return err
	}
	c.pre.discard()
	if skip == 0 {
		return nil
	}
	return c.s.Skip(int64(skip))
}

// Close releases the prestate's owned scratch, if any, and closes the
// underlying stream.
func (c *Consumer[P]) Close() error {
	c.pre.discard()
	return c.s.Close()
}
