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

// Package blockreader is a reference StateProcessor riding on top of
// package consumer: it parses a run of records shaped
// [uint32 length][length bytes of payload][uint64 checksum], the same
// length-prefixed-block shape an SSTable index or summary component is
// built from. It exists to exercise the framework end to end, not as part
// of its contract.
package blockreader

import (
	"github.com/cloudwego/gopkg/hash/xfnv"

	"github.com/scylladb/go-sstable-consumer/buffer"
	"github.com/scylladb/go-sstable-consumer/consumer"
)

type state uint8

const (
	stateLength state = iota
	stateBody
	stateChecksum
	statePublish
)

// Record is one decoded block: Payload is a zero-copy view into the buffer
// it was read from when that buffer also holds the whole trailing checksum,
// and otherwise a copy (an owned scratch buffer if the payload read itself
// straddled a boundary). It is only valid until the next call into the
// Reader that produced it.
type Record struct {
	Payload buffer.Buffer
}

// Handler receives each record as it's decoded. It must not retain
// rec.Payload past its own return, per the zero-copy discipline in package
// buffer; copy out what it needs first.
type Handler func(rec Record) error

// Reader decodes a run of length-prefixed records and validates each
// one's trailing checksum against the in-memory FNV variant from
// hash/xfnv. It is not safe for concurrent use.
type Reader struct {
	onRecord      Handler
	maxPayloadLen uint32

	st       state
	length   uint32
	checksum uint64
	payload  buffer.Buffer

	records int
	skipped int
}

// New returns a Reader that invokes onRecord for each successfully decoded
// and checksum-verified record.
func New(onRecord Handler) *Reader {
	return &Reader{onRecord: onRecord}
}

// SetMaxPayloadLen bounds how large a record's declared payload may be
// before it's skipped wholesale (body and trailing checksum both) rather
// than buffered and handed to onRecord. 0 means unbounded.
func (r *Reader) SetMaxPayloadLen(n uint32) { r.maxPayloadLen = n }

// Records reports how many records have been successfully decoded so far.
func (r *Reader) Records() int { return r.records }

// Skipped reports how many records were discarded for exceeding
// SetMaxPayloadLen.
func (r *Reader) Skipped() int { return r.skipped }

// ProcessState implements consumer.StateProcessor[*Reader].
func (r *Reader) ProcessState(c *consumer.Consumer[*Reader], buf *buffer.Buffer) (consumer.ProcessingResult, error) {
	switch r.st {
	case stateLength:
		// A length read that has to wait for the next buffer still lands in
		// r.length once it completes, so stateBody comes next either way.
		c.ReadU32(buf, &r.length)
		r.st = stateBody
		return consumer.Proceed(), nil

	case stateBody:
		if r.maxPayloadLen > 0 && r.length > r.maxPayloadLen {
			r.skipped++
			// back to stateLength: skipping the body and its trailing
			// checksum together leaves nothing left to resume into.
			r.st = stateLength
			return consumer.SkipBytes(uint64(r.length) + 8), nil
		}
		if c.ReadBytes(buf, int(r.length), &r.payload) && buf.Size() < 8 {
			// The payload is a view into buf, which is released before the
			// checksum after it has been read in full: keep a copy instead.
			r.payload = buffer.Wrap(append([]byte(nil), r.payload.Bytes()...))
		}
		r.st = stateChecksum
		return consumer.Proceed(), nil

	case stateChecksum:
		// As with the length, a checksum read that waits still publishes
		// into r.checksum on completion, where statePublish picks it up.
		c.ReadU64(buf, &r.checksum)
		r.st = statePublish
		return consumer.Proceed(), nil

	case statePublish:
		// Validating the checksum and publishing the record needs no more
		// bytes: it's pure bookkeeping on what the previous state already
		// read. NonConsuming reports true for this state precisely so the
		// drive loop still runs it when the checksum read above happened to
		// land exactly on a buffer boundary, instead of waiting for a byte
		// that will never arrive to justify progress that's already
		// possible.
		if xfnv.Hash(r.payload.Bytes()) != r.checksum {
			r.payload.Release()
			return consumer.ProcessingResult{}, consumer.NewMalformedInputError(
				"block checksum mismatch")
		}
		err := r.onRecord(Record{Payload: r.payload})
		r.payload.Release()
		r.payload = buffer.Buffer{}
		if err != nil {
			return consumer.ProcessingResult{}, err
		}
		r.records++
		r.st = stateLength
		return consumer.Proceed(), nil

	default:
		return consumer.ProcessingResult{}, consumer.NewPreconditionViolationError("unreachable state")
	}
}

// NonConsuming implements consumer.StateProcessor[*Reader]: statePublish
// validates the checksum and hands the record to onRecord without touching
// the buffer at all, so it must still run when the checksum read completed
// on an empty buffer rather than stalling until more bytes arrive.
func (r *Reader) NonConsuming() bool { return r.st == statePublish }

// VerifyEndState implements consumer.StateProcessor[*Reader]: the window
// must end exactly on a record boundary, i.e. back in stateLength with no
// partial read in flight.
func (r *Reader) VerifyEndState() error {
	if r.st != stateLength {
		return consumer.NewMalformedInputError("stream ended mid-record")
	}
	return nil
}
