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

package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestNotContainerBasic(t *testing.T) {
	err := NotContainer("no magic bytes")

	if err.Code != ErrCodeNotContainer {
		t.Errorf("Expected code %d, got %d", ErrCodeNotContainer, err.Code)
	}
	if err.Category != CategoryContainer {
		t.Errorf("Expected category %s, got %s", CategoryContainer, err.Category)
	}
	if !strings.Contains(err.Error(), "no magic bytes") {
		t.Errorf("Expected error message to contain detail, got: %s", err.Error())
	}
}

func TestWithDetail(t *testing.T) {
	err := CorruptPage(7, "").WithDetail("crc mismatch")

	if err.Detail != "crc mismatch" {
		t.Errorf("Expected detail 'crc mismatch', got: %s", err.Detail)
	}
	if !strings.Contains(err.Error(), "crc mismatch") {
		t.Errorf("Expected error to contain detail, got: %s", err.Error())
	}
}

func TestWithHint(t *testing.T) {
	err := OutOfSpaceInIndex(100, 64)

	userMsg := err.UserMessage()
	if !strings.Contains(userMsg, "HINT:") {
		t.Errorf("Expected user message to contain HINT, got: %s", userMsg)
	}
	if !strings.Contains(userMsg, "migration") {
		t.Errorf("Expected hint text in user message, got: %s", userMsg)
	}
}

func TestWithCause(t *testing.T) {
	cause := errors.New("disk full")
	err := UnderlyingIO("write", cause)

	if err.Unwrap() != cause {
		t.Error("Expected Unwrap to return the cause")
	}
}

func TestPageErrorConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *PageStoreError
		code     ErrorCode
		category Category
	}{
		{"CorruptPage", CorruptPage(3, "bad crc"), ErrCodeCorruptPage, CategoryPage},
		{"ShortRead", ShortRead("file too small"), ErrCodeShortRead, CategoryPage},
		{"DecompressFailed", DecompressFailed(3, errors.New("bad length")), ErrCodeDecompress, CategoryPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Expected code %d, got %d", tt.code, tt.err.Code)
			}
			if tt.err.Category != tt.category {
				t.Errorf("Expected category %s, got %s", tt.category, tt.err.Category)
			}
		})
	}
}

func TestSpaceErrorConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *PageStoreError
		code     ErrorCode
		category Category
	}{
		{"OutOfSpaceInIndex", OutOfSpaceInIndex(100, 64), ErrCodeOutOfSpaceIndex, CategorySpace},
		{"AllocationFailure", AllocationFailure(errors.New("oom")), ErrCodeAllocation, CategorySpace},
		{"NoSafeOffset", NoSafeOffset(5, 100), ErrCodeNoSafeOffset, CategorySpace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Expected code %d, got %d", tt.code, tt.err.Code)
			}
			if tt.err.Category != tt.category {
				t.Errorf("Expected category %s, got %s", tt.category, tt.err.Category)
			}
		})
	}
}

func TestIsCategory(t *testing.T) {
	pageErr := CorruptPage(1, "x")
	ioErr := UnderlyingIO("read", errors.New("eio"))

	if !IsCategory(pageErr, CategoryPage) {
		t.Error("Expected IsCategory to return true for page error")
	}
	if IsCategory(pageErr, CategoryIO) {
		t.Error("Expected IsCategory to return false for mismatched category")
	}
	if !IsCategory(ioErr, CategoryIO) {
		t.Error("Expected IsCategory to return true for io error")
	}
}

func TestGetCode(t *testing.T) {
	err := CorruptPage(9, "x")
	if GetCode(err) != ErrCodeCorruptPage {
		t.Errorf("Expected code %d, got %d", ErrCodeCorruptPage, GetCode(err))
	}

	regularErr := errors.New("regular error")
	if GetCode(regularErr) != 0 {
		t.Errorf("Expected code 0 for regular error, got %d", GetCode(regularErr))
	}
}

func TestFormatError(t *testing.T) {
	psErr := NotContainer("x")
	formatted := FormatError(psErr)
	if !strings.HasPrefix(formatted, "ERROR:") {
		t.Errorf("Expected formatted error to start with 'ERROR:', got: %s", formatted)
	}

	regularErr := errors.New("regular error")
	formatted = FormatError(regularErr)
	if !strings.Contains(formatted, "regular error") {
		t.Errorf("Expected formatted error to contain message, got: %s", formatted)
	}
}
