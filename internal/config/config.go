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
Package config holds the construction-time configuration surface for
a pagestore container (spec §6.5). There is no process-wide singleton:
callers build a Config value, validate it, and pass it to
pagestore.Open/Create explicitly. A Manager is provided for CLI
drivers that want to layer a config file and environment variables on
top of the defaults, following the same file-then-env precedence the
rest of this ecosystem uses.
*/
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Size bounds for the configured container page size (spec §6.1/§6.5).
const (
	MinPageSize     = 512
	MaxPageSize     = 65536
	DefaultPageSize = 4096
)

// Environment variable names recognized by LoadFromEnv.
const (
	EnvCompressAlgorithm = "PAGESTORE_COMPRESS_ALGORITHM"
	EnvEncryptAlgorithm  = "PAGESTORE_ENCRYPT_ALGORITHM"
	EnvPageSize          = "PAGESTORE_PAGE_SIZE"
	EnvStrictChecksum    = "PAGESTORE_STRICT_CHECKSUM"
	EnvLogLevel          = "PAGESTORE_LOG_LEVEL"
	EnvLogJSON           = "PAGESTORE_LOG_JSON"
)

// Config is the full construction-time option surface of spec §6.5.
type Config struct {
	// Codec selection. Empty string means "no compression"/"no encryption".
	CompressAlgorithm string
	EncryptAlgorithm  string

	// PageSize is the configured container page size; must be a power
	// of two in [MinPageSize, MaxPageSize].
	PageSize uint32

	// StrictChecksumMode: true fails the read on a checksum mismatch.
	// false selects tolerant mode (spec §7), in which a read continues
	// past a corrupt page only when EnableDataRecovery is also set;
	// otherwise the read still fails.
	StrictChecksumMode bool
	EnableDataRecovery bool

	// Hole manager bounds.
	EnableHoleDetection bool
	MaxHoles            int
	MinHoleSize         uint64

	// Write-behind buffer policy.
	EnableWriteBuffer bool
	MaxBufferEntries  int
	MaxBufferBytes    int64
	AutoFlushPages    int

	// Batch writer policy.
	BatchEnabled           bool
	BatchMaxPages          int
	BatchMaxMemoryMB       int64
	BatchAutoFlushThreshold int

	// Logging, carried ambiently regardless of which spec features are enabled.
	LogLevel string
	LogJSON  bool

	// ConfigFile records the path a Manager loaded this Config from, if any.
	ConfigFile string
}

// DefaultConfig returns the out-of-the-box configuration: no
// compression, no encryption, the default page size, strict checksums,
// hole detection and the write-behind buffer enabled, batching
// disabled.
func DefaultConfig() *Config {
	return &Config{
		CompressAlgorithm:       "",
		EncryptAlgorithm:        "",
		PageSize:                DefaultPageSize,
		StrictChecksumMode:      true,
		EnableDataRecovery:      false,
		EnableHoleDetection:     true,
		MaxHoles:                256,
		MinHoleSize:             64,
		EnableWriteBuffer:       true,
		MaxBufferEntries:        64,
		MaxBufferBytes:          16 << 20,
		AutoFlushPages:          32,
		BatchEnabled:            false,
		BatchMaxPages:           128,
		BatchMaxMemoryMB:        32,
		BatchAutoFlushThreshold: 64,
		LogLevel:                "info",
		LogJSON:                 false,
	}
}

func isPowerOfTwo(n uint32) bool {
	return n != 0 && n&(n-1) == 0
}

// Validate reports a descriptive error for any out-of-range or
// internally inconsistent option.
func (c *Config) Validate() error {
	if c.PageSize < MinPageSize || c.PageSize > MaxPageSize {
		return fmt.Errorf("page_size %d out of range [%d, %d]", c.PageSize, MinPageSize, MaxPageSize)
	}
	if !isPowerOfTwo(c.PageSize) {
		return fmt.Errorf("page_size %d is not a power of two", c.PageSize)
	}
	if c.EnableHoleDetection {
		if c.MaxHoles <= 0 {
			return fmt.Errorf("max_holes must be positive when hole detection is enabled")
		}
		if c.MinHoleSize == 0 {
			return fmt.Errorf("min_hole_size must be positive when hole detection is enabled")
		}
	}
	if c.EnableWriteBuffer && c.BatchEnabled {
		return fmt.Errorf("write buffer and batch writer cannot both be enabled")
	}
	if c.EnableWriteBuffer {
		if c.MaxBufferEntries <= 0 {
			return fmt.Errorf("max_buffer_entries must be positive when the write buffer is enabled")
		}
		if c.MaxBufferBytes <= 0 {
			return fmt.Errorf("max_buffer_bytes must be positive when the write buffer is enabled")
		}
	}
	if c.BatchEnabled {
		if c.BatchMaxPages <= 0 {
			return fmt.Errorf("batch_max_pages must be positive when batching is enabled")
		}
		if c.BatchMaxMemoryMB <= 0 {
			return fmt.Errorf("batch_max_memory_mb must be positive when batching is enabled")
		}
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}

// Manager layers a config file and environment variables on top of
// DefaultConfig, in that order, for use by the CLI driver. Library
// callers should construct a Config directly instead.
type Manager struct {
	cfg *Config
}

// NewManager returns a Manager seeded with DefaultConfig.
func NewManager() *Manager {
	return &Manager{cfg: DefaultConfig()}
}

// Get returns the current Config.
func (m *Manager) Get() *Config {
	return m.cfg
}

// LoadFromFile parses a simple "key = value" file (# starts a comment,
// values may be quoted) and merges recognized keys into the Config.
func (m *Manager) LoadFromFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.Trim(strings.TrimSpace(parts[1]), `"`)
		m.apply(key, val)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	m.cfg.ConfigFile = path
	return nil
}

// LoadFromEnv merges recognized PAGESTORE_* environment variables into
// the Config, overriding any value set by LoadFromFile.
func (m *Manager) LoadFromEnv() {
	if v := os.Getenv(EnvCompressAlgorithm); v != "" {
		m.cfg.CompressAlgorithm = v
	}
	if v := os.Getenv(EnvEncryptAlgorithm); v != "" {
		m.cfg.EncryptAlgorithm = v
	}
	if v := os.Getenv(EnvPageSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			m.cfg.PageSize = uint32(n)
		}
	}
	if v := os.Getenv(EnvStrictChecksum); v != "" {
		m.cfg.StrictChecksumMode = v == "true" || v == "1"
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		m.cfg.LogLevel = v
	}
	if v := os.Getenv(EnvLogJSON); v != "" {
		m.cfg.LogJSON = v == "true" || v == "1"
	}
}

func (m *Manager) apply(key, val string) {
	switch key {
	case "compress_algorithm":
		m.cfg.CompressAlgorithm = val
	case "encrypt_algorithm":
		m.cfg.EncryptAlgorithm = val
	case "page_size":
		if n, err := strconv.Atoi(val); err == nil {
			m.cfg.PageSize = uint32(n)
		}
	case "strict_checksum_mode":
		m.cfg.StrictChecksumMode = val == "true"
	case "enable_data_recovery":
		m.cfg.EnableDataRecovery = val == "true"
	case "enable_hole_detection":
		m.cfg.EnableHoleDetection = val == "true"
	case "max_holes":
		if n, err := strconv.Atoi(val); err == nil {
			m.cfg.MaxHoles = n
		}
	case "min_hole_size":
		if n, err := strconv.ParseUint(val, 10, 64); err == nil {
			m.cfg.MinHoleSize = n
		}
	case "enable_write_buffer":
		m.cfg.EnableWriteBuffer = val == "true"
	case "max_buffer_entries":
		if n, err := strconv.Atoi(val); err == nil {
			m.cfg.MaxBufferEntries = n
		}
	case "max_buffer_bytes":
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			m.cfg.MaxBufferBytes = n
		}
	case "auto_flush_pages":
		if n, err := strconv.Atoi(val); err == nil {
			m.cfg.AutoFlushPages = n
		}
	case "batch_enabled":
		m.cfg.BatchEnabled = val == "true"
	case "batch_max_pages":
		if n, err := strconv.Atoi(val); err == nil {
			m.cfg.BatchMaxPages = n
		}
	case "batch_max_memory_mb":
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			m.cfg.BatchMaxMemoryMB = n
		}
	case "batch_auto_flush_threshold":
		if n, err := strconv.Atoi(val); err == nil {
			m.cfg.BatchAutoFlushThreshold = n
		}
	case "log_level":
		m.cfg.LogLevel = val
	case "log_json":
		m.cfg.LogJSON = val == "true"
	}
}
