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

// Verdict is a StateProcessor's two-valued reply to whether the drive loop
// should keep calling ProcessState.
type Verdict uint8

const (
	// ProceedYes means: keep driving, there may be more to process in this
	// buffer or in non-consuming state work.
	ProceedYes Verdict = iota
	// ProceedNo means: pause. The drive loop stops and hands the
	// unconsumed tail back to the stream.
	ProceedNo
)

// ProcessingResult is ProcessState's return value: either a Verdict, or a
// request to skip n bytes of the window without delivering them to the
// StateProcessor. The two are kept distinct (not folded into Verdict)
// because the stream needs to tell a seek apart from a cancel — folding
// them loses that distinction and position accounting diverges.
type ProcessingResult struct {
	verdict Verdict
	skip    uint64
	isSkip  bool
}

// Proceed returns a ProcessingResult carrying ProceedYes.
func Proceed() ProcessingResult { return ProcessingResult{verdict: ProceedYes} }

// Pause returns a ProcessingResult carrying ProceedNo.
func Pause() ProcessingResult { return ProcessingResult{verdict: ProceedNo} }

// SkipBytes returns a ProcessingResult requesting that the next n bytes of
// the window be discarded without being delivered to the StateProcessor. n
// must be > 0; the caller (ProcessState) must have drained its buffer
// argument to empty before returning this.
func SkipBytes(n uint64) ProcessingResult {
	return ProcessingResult{isSkip: true, skip: n}
}

// IsSkip reports whether this result is a SkipBytes request, and if so how
// many bytes.
func (r ProcessingResult) IsSkip() (n uint64, ok bool) {
	return r.skip, r.isSkip
}

// Verdict returns the Proceed verdict carried by r. It is meaningless if
// IsSkip reports true.
func (r ProcessingResult) Verdict() Verdict { return r.verdict }
