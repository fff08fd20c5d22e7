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

// Package stream defines the upstream byte-stream contract a Consumer
// drives: a buffered, push-based reader with consume/skip/close primitives.
// The contract itself is an external collaborator per the framework's
// scope — package consumer only ever talks to the Stream interface — but
// this package also ships one concrete, file-oriented implementation,
// ReaderStream, so the framework has something real to be driven by.
package stream

import "github.com/scylladb/go-sstable-consumer/buffer"

// OutcomeKind is the tag of a ConsumptionOutcome.
type OutcomeKind uint8

const (
	// Continue tells the stream to keep delivering buffers.
	Continue OutcomeKind = iota
	// Stop tells the stream to stop delivering buffers; Tail carries
	// whatever bytes of the last delivered buffer were not consumed.
	Stop
	// SkipN tells the stream to advance N bytes without delivering them to
	// the sink, then resume delivering buffers.
	SkipN
)

// ConsumptionOutcome is what a Sink returns to the Stream after looking at
// one delivered buffer. It is a three-way tagged union (Continue / Stop /
// Skip) rather than folding Skip into Stop, because the stream needs to
// tell a seek apart from a cancel.
type ConsumptionOutcome struct {
	Kind OutcomeKind
	Tail buffer.Buffer
	N    uint64
}

// ContinueConsuming returns the Continue outcome.
func ContinueConsuming() ConsumptionOutcome { return ConsumptionOutcome{Kind: Continue} }

// StopConsuming returns the Stop outcome, carrying the unconsumed tail (may
// be the empty Buffer).
func StopConsuming(tail buffer.Buffer) ConsumptionOutcome {
	return ConsumptionOutcome{Kind: Stop, Tail: tail}
}

// SkipBytes returns the Skip outcome, requesting the stream advance n bytes
// without delivering them.
func SkipBytes(n uint64) ConsumptionOutcome {
	return ConsumptionOutcome{Kind: SkipN, N: n}
}

// Sink is the callback a Stream repeatedly invokes with the next available
// buffer. On the call signalling end-of-file, data is empty. Sink must not
// be called again by the Stream once it has returned a Stop outcome.
type Sink func(data buffer.Buffer) (ConsumptionOutcome, error)

// Stream is the upstream, buffered, async-capable byte source a Consumer
// drives. Implementations decide their own chunking; nothing about package
// consumer depends on chunk size or boundaries, which is the entire point
// of the prestate machine.
type Stream interface {
	// Consume repeatedly invokes sink with buffers until sink returns a Stop
	// outcome or the stream is exhausted.
	Consume(sink Sink) error
	// Skip advances the stream by n bytes without going through Consume. It
	// is used for forward skips larger than any single buffer a Sink could
	// have been handed directly (fast-forward / skip-to).
	Skip(n int64) error
	// Close releases any resources held by the stream.
	Close() error
}
