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

package blockreader

import "testing"

// TestNonConsumingOnlyTrueAfterChecksumRead is a white-box check that
// NonConsuming tracks statePublish specifically, not any state that merely
// happens to run on an empty buffer.
func TestNonConsumingOnlyTrueAfterChecksumRead(t *testing.T) {
	r := New(func(Record) error { return nil })

	for _, st := range []state{stateLength, stateBody, stateChecksum} {
		r.st = st
		if r.NonConsuming() {
			t.Fatalf("NonConsuming() = true for state %d, want false", st)
		}
	}

	r.st = statePublish
	if !r.NonConsuming() {
		t.Fatal("NonConsuming() = false for statePublish, want true")
	}
}
