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

import "github.com/scylladb/go-sstable-consumer/buffer"

// StateProcessor is the surface a concrete parser (index, summary,
// statistics, data-block reader, ...) implements to ride on top of a
// Consumer. It is parameterised over its own concrete type P, the same
// self-referential shape the original C++ base class gets for free from
// the subclass it's templated on (continuous_data_consumer<DataConsumer>):
// ProcessState is handed the driving *Consumer[P] so it can call back into
// the read primitives (ReadU8/ReadU16/ReadU32/ReadU64/ReadBytes), which
// live on Consumer because they need its cross-buffer resumption state.
//
// None of a StateProcessor's methods are called concurrently with each
// other or with the Consumer's own methods.
type StateProcessor[P any] interface {
	// ProcessState advances the state machine, consuming from buf via c's
	// read primitives. It must not decode more than the bytes actually
	// available in buf, and must use the prestate-aware read primitives for
	// any multi-byte read that might straddle a buffer boundary.
	ProcessState(c *Consumer[P], buf *buffer.Buffer) (ProcessingResult, error)

	// NonConsuming reports whether the current state does useful work
	// without needing further input: for example, publishing a value and
	// advancing state right after a prestate read completes. The drive loop
	// schedules such states even when the buffer is empty.
	NonConsuming() bool

	// VerifyEndState is called exactly once, when the window is exhausted
	// or the stream signals EOF. It should return a MalformedInputError if
	// the state machine is not in a legitimate terminal state.
	VerifyEndState() error
}
