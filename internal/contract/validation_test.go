// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package contract

import "testing"

func TestSoftLimitBytes_Default(t *testing.T) {
	if got := SoftLimitBytes(); got != DefaultSoftLimitBytes {
		t.Errorf("SoftLimitBytes() = %d; want default %d", got, DefaultSoftLimitBytes)
	}
}

func TestSoftLimitBytes_EnvOverride(t *testing.T) {
	t.Setenv("CIE_SOFT_LIMIT_BYTES", "1024")
	if got := SoftLimitBytes(); got != 1024 {
		t.Errorf("SoftLimitBytes() = %d; want 1024", got)
	}
}

func TestValidateFileSizeLimit(t *testing.T) {
	tests := []struct {
		name       string
		configured int64
		wantOK     bool
	}{
		{"within limit", 1 << 20, true},
		{"exceeds limit", DefaultSoftLimitBytes * 2, false},
		{"zero falls back to limit", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			effective, result := ValidateFileSizeLimit(tt.configured)
			if result.OK != tt.wantOK {
				t.Errorf("result.OK = %v; want %v", result.OK, tt.wantOK)
			}
			if effective <= 0 {
				t.Errorf("effective limit must be positive, got %d", effective)
			}
		})
	}
}
