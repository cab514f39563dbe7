// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package contract

import (
	"os"
	"strconv"
)

const (
	// DefaultSoftLimitBytes is the baseline soft limit on a single source
	// file's size, applied regardless of the configured MaxFileSizeBytes —
	// a safety net against config.Load accepting an unreasonably large value.
	DefaultSoftLimitBytes = 64 << 20 // 64 MiB

	// RequestIDMaxBytes is the maximum length for a query request ID.
	RequestIDMaxBytes = 128
)

// SoftLimitBytes returns the effective soft limit on a single source file's
// size. Controlled via env CIE_SOFT_LIMIT_BYTES; falls back to
// DefaultSoftLimitBytes.
func SoftLimitBytes() int64 {
	if v := os.Getenv("CIE_SOFT_LIMIT_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return DefaultSoftLimitBytes
}

// ValidationResult represents the result of a validation check.
type ValidationResult struct {
	OK      bool
	Message string
}

// ValidateFileSizeLimit checks a configured MaxFileSizeBytes against the
// soft limit, clamping it down with a warning message rather than erroring —
// an operator-supplied value larger than the soft limit is a misconfiguration,
// not a fatal error.
func ValidateFileSizeLimit(configured int64) (effective int64, result *ValidationResult) {
	limit := SoftLimitBytes()
	if configured > 0 && configured <= limit {
		return configured, &ValidationResult{OK: true}
	}
	if configured > limit {
		return limit, &ValidationResult{
			OK:      false,
			Message: "configured max_file_size_bytes exceeds the soft limit; clamped",
		}
	}
	return limit, &ValidationResult{OK: true}
}
