/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package checksum provides the CRC-32 primitive used over the header
// and over every stored page extent (spec C1). hash/crc32 is the
// standard library's CRC-32 implementation and there is no
// third-party replacement for it in this codebase's dependency pack;
// see DESIGN.md for the stdlib justification.
package checksum

import "hash/crc32"

// Sum returns the IEEE CRC-32 of b.
func Sum(b []byte) uint32 {
	return crc32.ChecksumIEEE(b)
}

// Verify reports whether b's CRC-32 matches want.
func Verify(b []byte, want uint32) bool {
	return Sum(b) == want
}
