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

package stream

import (
	"context"
	"io"
	"log"

	"github.com/cloudwego/gopkg/cache/mempool"
	"github.com/cloudwego/gopkg/concurrency/gopool"
	"github.com/cloudwego/gopkg/container/ring"

	"github.com/scylladb/go-sstable-consumer/buffer"
)

const defaultChunkSize = 128 * 1024

// readResult is what a background chunk read reports back over the
// inflight channel.
type readResult struct {
	slot int
	n    int
	err  error
}

// chunkPool is a fixed set of mempool-backed chunk buffers shared between
// the foreground Consume loop and the one background goroutine reading
// ahead of it. Slots are handed out and returned through a channel rather
// than a mutex, the same "never block the fast path on a lock" instinct as
// mcache/mempool itself.
type chunkPool struct {
	ring *ring.Ring[[]byte]
	free chan int
}

func newChunkPool(slots, chunkSize int) *chunkPool {
	bufs := make([][]byte, slots)
	for i := range bufs {
		bufs[i] = mempool.Malloc(chunkSize)
	}
	p := &chunkPool{
		ring: ring.NewFromSlice(bufs),
		free: make(chan int, slots),
	}
	for i := 0; i < slots; i++ {
		p.free <- i
	}
	return p
}

func (p *chunkPool) acquire() (int, []byte) {
	idx := <-p.free
	item, _ := p.ring.Get(idx)
	return idx, item.Value()
}

func (p *chunkPool) release(idx int) {
	p.free <- idx
}

// ReaderStream drives a Consumer from an io.Reader. It prefetches one
// chunk ahead of whatever the sink is currently looking at: as soon as a
// chunk is handed to the sink, the next read is kicked off on a pooled
// goroutine so the stream's I/O overlaps with the StateProcessor's work on
// the chunk already in hand, rather than the two always alternating.
//
// A non-nil panic handler set via SetPanicHandler is invoked, with the
// value recover() produced, if the background read goroutine panics; by
// default the panic is logged and surfaced to Consume as an error on the
// next call, matching gopool's own default behaviour.
type ReaderStream struct {
	r io.Reader

	pool     *chunkPool
	inflight chan readResult

	pending buffer.Buffer

	eofPending  bool
	eofReported bool

	panicHandler func(r interface{})
}

// NewReaderStream returns a ReaderStream reading from r in chunkSize-byte
// chunks, using a small pool of prefetch slots. chunkSize <= 0 selects a
// default of 128KiB.
func NewReaderStream(r io.Reader, chunkSize int) *ReaderStream {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &ReaderStream{
		r:    r,
		pool: newChunkPool(3, chunkSize),
	}
}

// SetPanicHandler overrides how a panic in the background read goroutine
// is reported. The default logs it via the standard logger.
func (s *ReaderStream) SetPanicHandler(f func(r interface{})) { s.panicHandler = f }

func (s *ReaderStream) handlePanic(r interface{}) {
	if s.panicHandler != nil {
		s.panicHandler(r)
		return
	}
	log.Printf("stream: panic in background read: %v", r)
}

// kickoff acquires a free slot and starts reading into it on a pooled
// goroutine, reporting the result on a fresh inflight channel.
func (s *ReaderStream) kickoff() {
	idx, buf := s.pool.acquire()
	ch := make(chan readResult, 1)
	s.inflight = ch
	gopool.CtxGo(context.Background(), func() {
		defer func() {
			if r := recover(); r != nil {
				s.handlePanic(r)
				ch <- readResult{slot: idx, err: io.ErrUnexpectedEOF}
			}
		}()
		n, err := s.r.Read(buf)
		ch <- readResult{slot: idx, n: n, err: err}
	})
}

// nextChunk produces the next buffer to deliver to the sink: the stashed
// tail of a previous Stop, if any; then the EOF marker exactly once; then
// whatever the background read turns up, kicking off the next read before
// returning so it overlaps with the caller processing this one.
func (s *ReaderStream) nextChunk() (buffer.Buffer, error) {
	if !s.pending.Empty() {
		buf := s.pending
		s.pending = buffer.Buffer{}
		return buf, nil
	}
	if s.eofReported {
		return buffer.Buffer{}, nil
	}
	if s.eofPending {
		s.eofPending = false
		s.eofReported = true
		return buffer.Buffer{}, nil
	}

	if s.inflight == nil {
		s.kickoff()
	}
	res := <-s.inflight
	s.inflight = nil

	if res.err != nil && res.err != io.EOF {
		s.pool.release(res.slot)
		return buffer.Buffer{}, res.err
	}
	if res.err == io.EOF {
		s.eofPending = true
	}
	if res.n == 0 {
		s.pool.release(res.slot)
		s.eofPending = false
		s.eofReported = true
		return buffer.Buffer{}, nil
	}

	if !s.eofPending {
		s.kickoff()
	}
	slot, n := res.slot, res.n
	item, _ := s.pool.ring.Get(slot)
	chunk := item.Value()
	return buffer.WrapOwned(chunk[:n], func() { s.pool.release(slot) }), nil
}

// Consume implements Stream.
func (s *ReaderStream) Consume(sink Sink) error {
	for {
		data, err := s.nextChunk()
		if err != nil {
			return err
		}
		outcome, err := sink(data)
		if err != nil {
			return err
		}
		switch outcome.Kind {
		case Continue:
			data.Release()
			continue
		case Stop:
			// Ownership of whatever's left of data moves to outcome.Tail
			// (which may alias data's own release hook); it's released
			// once that tail is itself fully drained or the stream closes.
			s.pending = outcome.Tail
			return nil
		case SkipN:
			data.Release()
			if err := s.Skip(int64(outcome.N)); err != nil {
				return err
			}
			continue
		}
	}
}

// Skip implements Stream. It first drains whatever is already stashed in
// pending, then whatever a background prefetch already read ahead of it (a
// Skip can be requested mid-Consume, after kickoff has already started the
// next chunk's read, and must never let that read race against a direct
// Seek/Read on the same underlying io.Reader), and only then either seeks
// (if the underlying reader supports it) or discards by reading and
// throwing the bytes away.
func (s *ReaderStream) Skip(n int64) error {
	if n <= 0 {
		return nil
	}
	if avail := int64(s.pending.Size()); avail > 0 {
		if avail >= n {
			s.pending.TrimFront(int(n))
			return nil
		}
		n -= avail
		s.pending.TrimAll()
	}
	if s.inflight != nil {
		res := <-s.inflight
		s.inflight = nil
		if res.err != nil && res.err != io.EOF {
			s.pool.release(res.slot)
			return res.err
		}
		if res.err == io.EOF {
			s.eofPending = true
		}
		if int64(res.n) > n {
			slot := res.slot
			item, _ := s.pool.ring.Get(slot)
			buf := buffer.WrapOwned(item.Value()[:res.n], func() { s.pool.release(slot) })
			buf.TrimFront(int(n))
			s.pending = buf
			return nil
		}
		s.pool.release(res.slot)
		n -= int64(res.n)
		if n == 0 {
			return nil
		}
	}
	if seeker, ok := s.r.(io.Seeker); ok {
		_, err := seeker.Seek(n, io.SeekCurrent)
		return err
	}
	_, err := io.CopyN(io.Discard, s.r, n)
	return err
}

// Close implements Stream.
func (s *ReaderStream) Close() error {
	s.pending.TrimAll()
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
