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

package buffer

import "encoding/binary"

// DecodeU16 decodes a big-endian uint16 from the first 2 bytes of b.
func DecodeU16(b []byte) uint16 { return binary.BigEndian.Uint16(b) }

// DecodeU32 decodes a big-endian uint32 from the first 4 bytes of b.
func DecodeU32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }

// DecodeU64 decodes a big-endian uint64 from the first 8 bytes of b.
func DecodeU64(b []byte) uint64 { return binary.BigEndian.Uint64(b) }

// EncodeU16 appends v to buf as big-endian, growing it if needed, and
// returns the result. It exists for tests exercising the round-trip
// property and for StateProcessors that need to re-emit a header.
func EncodeU16(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

// EncodeU32 appends v to buf as big-endian.
func EncodeU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

// EncodeU64 appends v to buf as big-endian.
func EncodeU64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}
