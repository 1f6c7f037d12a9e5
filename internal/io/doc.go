// Package ioutils provides file system utilities shared by the checkpoint
// and export stages.
//
// This package contains functions for:
//   - Atomic file writes
//   - Filename sanitization for cross-platform compatibility
//   - Directory creation
//
// # File Operations
//
//	// Replace a file without ever exposing a partial write
//	err := ioutils.WriteFileAtomic("/data/lyrics.msgpack", data)
//
//	// Ensure directory exists
//	err := ioutils.EnsureDir("/data/json_exports")
//
// # Filename Sanitization
//
// Use SanitizeFileName to remove invalid characters from filenames:
//
//	safe := ioutils.SanitizeFileName("Rock: Best of 1/2") // Returns "Rock_ Best of 1_2"
package ioutils
