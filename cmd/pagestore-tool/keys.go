/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package main

import (
	"encoding/hex"
	"fmt"
)

// decodeKey hex-decodes a user-supplied key. An empty key is allowed
// only when no encryption algorithm is configured; the codecs derive a
// fixed-length key from whatever bytes are given (see
// codec.normalizeKey), so no particular length is enforced here.
func decodeKey(hexKey, encryptAlgorithm string) ([]byte, error) {
	if hexKey == "" {
		if encryptAlgorithm != "" {
			return nil, fmt.Errorf("--key is required when --encrypt=%s is set", encryptAlgorithm)
		}
		return nil, nil
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid --key (must be hex): %w", err)
	}
	return key, nil
}
