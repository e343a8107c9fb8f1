package common

import "errors"

// Sentinel errors shared by the parameter registry, the hash-chain
// engine, the tree builder, and the wire codec. Callers should compare
// against these with errors.Is rather than matching error strings.
var (
	ErrInvalidLms       = errors.New("lms: unknown or reserved LMS algorithm id")
	ErrInvalidOts       = errors.New("lms: unknown or reserved LM-OTS algorithm id")
	ErrAlgMismatch      = errors.New("lms: algorithm id mismatch between signature and public key")
	ErrQOutOfRange      = errors.New("lms: leaf index q is out of range for this tree height")
	ErrBadLength        = errors.New("lms: signature component has the wrong length")
	ErrTruncated        = errors.New("lms: buffer is too short to contain a well-formed value")
	ErrTrailingBytes    = errors.New("lms: buffer has unexpected trailing bytes")
	ErrUnknownAlgId     = errors.New("lms: buffer declares an unrecognized algorithm id")
	ErrLengthMismatch   = errors.New("lms: declared algorithm ids imply a size incompatible with the buffer")
	ErrSignatureInvalid = errors.New("lms: signature does not verify against the public key")
	ErrRng              = errors.New("lms: random number source failed")
)
