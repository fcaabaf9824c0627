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

/*
Package errors provides the structured error taxonomy for pagestore.

Every failure the core can produce is one of a small set of kinds:
a missing/invalid container, a corrupt header, a corrupt page, an
index that no longer fits its reserved region, an allocation failure,
an error from the underlying file, or a batch write whose physical
bytes committed but whose index update did not. Each kind carries an
ErrorCode and a Category so callers can match on either the broad
category or a specific constructor's return value.
*/
package errors

import (
	"fmt"
)

// ErrorCode identifies a specific failure.
type ErrorCode int

const (
	// Container format errors (1000-1999)
	ErrCodeNotContainer   ErrorCode = 1000
	ErrCodeCorruptHeader  ErrorCode = 1001
	ErrCodeIncompatible   ErrorCode = 1002

	// Page errors (2000-2999)
	ErrCodeCorruptPage    ErrorCode = 2000
	ErrCodeShortRead      ErrorCode = 2001
	ErrCodeDecompress     ErrorCode = 2002

	// Index/space errors (3000-3999)
	ErrCodeOutOfSpaceIndex ErrorCode = 3000
	ErrCodeAllocation      ErrorCode = 3001
	ErrCodeNoSafeOffset    ErrorCode = 3002

	// Underlying I/O errors (4000-4999)
	ErrCodeUnderlyingIO    ErrorCode = 4000

	// Batch consistency errors (5000-5999)
	ErrCodeIndexStale      ErrorCode = 5000
)

// Category groups related error codes.
type Category string

const (
	CategoryContainer Category = "CONTAINER"
	CategoryPage      Category = "PAGE"
	CategorySpace     Category = "SPACE"
	CategoryIO        Category = "IO"
	CategoryBatch     Category = "BATCH"
)

// PageStoreError is the structured error type returned by the core.
type PageStoreError struct {
	Code     ErrorCode
	Category Category
	Message  string
	Detail   string
	Hint     string
	Cause    error
}

// Error implements the error interface.
func (e *PageStoreError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("pagestore error %d (%s): %s - %s", e.Code, e.Category, e.Message, e.Detail)
	}
	return fmt.Sprintf("pagestore error %d (%s): %s", e.Code, e.Category, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *PageStoreError) Unwrap() error {
	return e.Cause
}

// UserMessage renders a message suitable for CLI display.
func (e *PageStoreError) UserMessage() string {
	msg := fmt.Sprintf("ERROR: %s", e.Message)
	if e.Detail != "" {
		msg += fmt.Sprintf(" (%s)", e.Detail)
	}
	if e.Hint != "" {
		msg += fmt.Sprintf("\nHINT: %s", e.Hint)
	}
	return msg
}

// WithDetail attaches additional detail and returns the receiver.
func (e *PageStoreError) WithDetail(detail string) *PageStoreError {
	e.Detail = detail
	return e
}

// WithHint attaches a remediation hint and returns the receiver.
func (e *PageStoreError) WithHint(hint string) *PageStoreError {
	e.Hint = hint
	return e
}

// WithCause attaches the underlying cause and returns the receiver.
func (e *PageStoreError) WithCause(cause error) *PageStoreError {
	e.Cause = cause
	return e
}

// ============================================================================
// Container format errors
// ============================================================================

// NotContainer signals that the file has no valid magic/header and
// should be treated as pass-through, not as a fatal error.
func NotContainer(detail string) *PageStoreError {
	return &PageStoreError{
		Code:     ErrCodeNotContainer,
		Category: CategoryContainer,
		Message:  "file is not a pagestore container",
		Detail:   detail,
	}
}

// CorruptHeader signals a header CRC mismatch. An unsupported major
// version is reported by IncompatibleVersion instead.
func CorruptHeader(detail string) *PageStoreError {
	return &PageStoreError{
		Code:     ErrCodeCorruptHeader,
		Category: CategoryContainer,
		Message:  "container header is corrupt",
		Detail:   detail,
		Hint:     "the container cannot be opened; restore from backup",
	}
}

// IncompatibleVersion signals a major version above what this build understands.
func IncompatibleVersion(major, maxSupported uint16) *PageStoreError {
	return &PageStoreError{
		Code:     ErrCodeIncompatible,
		Category: CategoryContainer,
		Message:  fmt.Sprintf("container major version %d is not supported (max %d)", major, maxSupported),
	}
}

// ============================================================================
// Page errors
// ============================================================================

// CorruptPage signals a page checksum mismatch or bad decompressed length.
func CorruptPage(page uint32, detail string) *PageStoreError {
	return &PageStoreError{
		Code:     ErrCodeCorruptPage,
		Category: CategoryPage,
		Message:  fmt.Sprintf("page %d failed checksum verification", page),
		Detail:   detail,
	}
}

// ShortRead signals the physical file is shorter than expected.
func ShortRead(detail string) *PageStoreError {
	return &PageStoreError{
		Code:     ErrCodeShortRead,
		Category: CategoryPage,
		Message:  "short read from underlying file",
		Detail:   detail,
	}
}

// DecompressFailed signals decompression returned a bad length or error.
func DecompressFailed(page uint32, cause error) *PageStoreError {
	return &PageStoreError{
		Code:     ErrCodeDecompress,
		Category: CategoryPage,
		Message:  fmt.Sprintf("page %d failed to decompress", page),
		Cause:    cause,
	}
}

// ============================================================================
// Index/space errors
// ============================================================================

// OutOfSpaceInIndex signals the persisted index payload would exceed
// the reserved index region.
func OutOfSpaceInIndex(needed, reserved uint64) *PageStoreError {
	return &PageStoreError{
		Code:     ErrCodeOutOfSpaceIndex,
		Category: CategorySpace,
		Message:  "page index exceeds reserved region",
		Detail:   fmt.Sprintf("need %d bytes, reserved %d", needed, reserved),
		Hint:     "the container requires an out-of-line index migration",
	}
}

// AllocationFailure signals a scratch buffer allocation failed.
func AllocationFailure(cause error) *PageStoreError {
	return &PageStoreError{
		Code:     ErrCodeAllocation,
		Category: CategorySpace,
		Message:  "out of memory allocating scratch buffer",
		Cause:    cause,
	}
}

// NoSafeOffset signals the allocator could not find a non-overlapping
// offset for an appended extent within its retry budget.
func NoSafeOffset(page uint32, attempts int) *PageStoreError {
	return &PageStoreError{
		Code:     ErrCodeNoSafeOffset,
		Category: CategorySpace,
		Message:  fmt.Sprintf("could not find a safe offset for page %d", page),
		Detail:   fmt.Sprintf("gave up after %d attempts", attempts),
	}
}

// ============================================================================
// Underlying I/O errors
// ============================================================================

// UnderlyingIO wraps an error from the host file interface unchanged.
func UnderlyingIO(op string, cause error) *PageStoreError {
	return &PageStoreError{
		Code:     ErrCodeUnderlyingIO,
		Category: CategoryIO,
		Message:  fmt.Sprintf("underlying file %s failed", op),
		Cause:    cause,
	}
}

// ============================================================================
// Batch consistency errors
// ============================================================================

// WriteCommittedIndexStale signals a batch physical write succeeded but
// the index save afterward failed; the written bytes are orphaned but
// no index entry points at them.
func WriteCommittedIndexStale(cause error) *PageStoreError {
	return &PageStoreError{
		Code:     ErrCodeIndexStale,
		Category: CategoryBatch,
		Message:  "batch write committed but index update failed",
		Cause:    cause,
		Hint:     "the written region has been marked as a hole; retry on next open",
	}
}

// ============================================================================
// Helper functions
// ============================================================================

// IsCategory reports whether err is a *PageStoreError in the given category.
func IsCategory(err error, cat Category) bool {
	if e, ok := err.(*PageStoreError); ok {
		return e.Category == cat
	}
	return false
}

// GetCode returns the error code if err is a *PageStoreError, or 0 otherwise.
func GetCode(err error) ErrorCode {
	if e, ok := err.(*PageStoreError); ok {
		return e.Code
	}
	return 0
}

// FormatError formats any error for user display.
func FormatError(err error) string {
	if e, ok := err.(*PageStoreError); ok {
		return e.UserMessage()
	}
	return fmt.Sprintf("ERROR: %v", err)
}
