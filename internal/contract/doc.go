// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package contract provides validation constants and utilities for CIE.
//
// This internal package contains configuration constants and validation
// functions used throughout CIE.
//
// # File Size Limits
//
// CIE enforces a soft limit on the configured max_file_size_bytes to prevent
// an operator misconfiguration from letting an unreasonably large source file
// into the extraction path:
//
//	effective, result := contract.ValidateFileSizeLimit(cfg.MaxFileSizeBytes)
//	if !result.OK {
//	    log.Printf("clamped: %s", result.Message)
//	}
//
// # Configuration via Environment
//
// The soft limit can be adjusted via the CIE_SOFT_LIMIT_BYTES environment
// variable:
//
//	export CIE_SOFT_LIMIT_BYTES=33554432  # 32 MiB
//
// If the environment variable is not set or invalid, the default limit
// of 64 MiB (DefaultSoftLimitBytes) is used.
package contract
