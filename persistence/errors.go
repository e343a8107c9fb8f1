// Package persistence provides durable storage for an LMS signer's
// internal state: the private key material and, most importantly, the
// leaf counter q. Losing track of q and reusing an LM-OTS leaf after a
// crash breaks the signature scheme's security, so every mutation of q
// is fsynced before the caller is allowed to use it.
package persistence

import "errors"

var (
	// ErrNotInitialized is returned by any operation on a SignerState
	// that has not yet had Reset called (no key file exists on disk).
	ErrNotInitialized = errors.New("persistence: signer state is not initialized")

	// ErrLocked is returned when the state file's lock is already held
	// by another process.
	ErrLocked = errors.New("persistence: state file is locked by another process")

	// ErrCorruptState is returned when a loaded state file's checksum
	// does not match its contents.
	ErrCorruptState = errors.New("persistence: state file failed checksum validation")

	// ErrClosed is returned by any operation on a SignerState after Close.
	ErrClosed = errors.New("persistence: signer state is closed")
)
