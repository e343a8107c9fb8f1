package common

import (
	"crypto/sha256"
	"fmt"
	"hash"
)

// ID is a fixed-length nonce shared by every hash computed within one LMS tree.
type ID [IDLen]byte

type window uint8

const (
	WindowW1 window = 1 << iota
	WindowW2
	WindowW4
	WindowW8
)

// ByteWindow is the representation of bytes used in calculating LM-OTS signatures.
type ByteWindow interface {
	Window() window
	Mask() uint8
}

// Window returns the underlying window value.
func (w window) Window() window {
	return w
}

// Mask returns a bit mask (uint8) to bitwise AND with some value.
func (w window) Mask() uint8 {
	switch w {
	case WindowW1:
		return 0x01
	case WindowW2:
		return 0x03
	case WindowW4:
		return 0x0f
	case WindowW8:
		return 0xff
	default:
		panic("lms: invalid window")
	}
}

// LmsTypecode represents a typecode for LMS.
// See https://www.iana.org/assignments/leighton-micali-signatures/leighton-micali-signatures.xhtml#leighton-micali-signatures-1
type LmsTypecode uint32

const (
	LmsReserved      LmsTypecode = 0x00000000
	lmsTypecodeFirst             = LmsSha256M32H5
	LmsSha256M32H5   LmsTypecode = 0x00000005
	LmsSha256M32H10  LmsTypecode = 0x00000006
	LmsSha256M32H15  LmsTypecode = 0x00000007
	LmsSha256M32H20  LmsTypecode = 0x00000008
	LmsSha256M32H25  LmsTypecode = 0x00000009
	LmsSha256M24H5   LmsTypecode = 0x0000000A
	LmsSha256M24H10  LmsTypecode = 0x0000000B
	LmsSha256M24H15  LmsTypecode = 0x0000000C
	LmsSha256M24H20  LmsTypecode = 0x0000000D
	LmsSha256M24H25  LmsTypecode = 0x0000000E
	lmsTypecodeLast              = LmsSha256M24H25
)

// LmotsTypecode represents a typecode for LM-OTS.
// See https://www.iana.org/assignments/leighton-micali-signatures/leighton-micali-signatures.xhtml#lm-ots-signatures
type LmotsTypecode uint32

const (
	LmotsReserved      LmotsTypecode = 0x00000000
	lmotsTypecodeFirst               = LmotsSha256N32W1
	LmotsSha256N32W1   LmotsTypecode = 0x00000001
	LmotsSha256N32W2   LmotsTypecode = 0x00000002
	LmotsSha256N32W4   LmotsTypecode = 0x00000003
	LmotsSha256N32W8   LmotsTypecode = 0x00000004
	LmotsSha256N24W1   LmotsTypecode = 0x00000005
	LmotsSha256N24W2   LmotsTypecode = 0x00000006
	LmotsSha256N24W4   LmotsTypecode = 0x00000007
	LmotsSha256N24W8   LmotsTypecode = 0x00000008
	lmotsTypecodeLast                = LmotsSha256N24W8
)

// LmsAlgorithmType represents a specific instance of LMS.
type LmsAlgorithmType interface {
	LmsType() (LmsTypecode, error)
	LmsParams() (LmsParam, error)
}

// LmsOtsAlgorithmType represents a specific instance of LM-OTS.
type LmsOtsAlgorithmType interface {
	LmsOtsType() (LmotsTypecode, error)
	Params() (LmsOtsParam, error)
}

// Hasher returns a fresh streaming hash function instance.
type Hasher interface {
	New() hash.Hash
}

// Sha256Hasher is the only Hasher this package ever constructs: RFC 8554
// pins SHA-256 for every variant, n=24 digests included (truncated, not
// computed with an alternate IV).
type Sha256Hasher struct{}

func (Sha256Hasher) New() hash.Hash {
	return sha256.New()
}

// LmsParam represents the parameters for a given instance of the LMS algorithm.
type LmsParam struct {
	Hash Hasher // returns a fresh hash.Hash
	M    uint64 // number of bytes associated with each node
	H    uint64 // height of the tree
}

// LmsOtsParam represents the parameters for a given instance of LM-OTS.
type LmsOtsParam struct {
	H      Hasher     // returns a fresh hash.Hash
	N      uint64     // number of bytes of the output of H
	W      ByteWindow // width (in bits) of Winternitz coefficients
	P      uint64     // number of N-byte elements that make up the signature
	LS     uint64     // left-shift used in checksum calculation
	SigLen uint64     // total byte length for a valid LM-OTS signature
}

// Uint32ToLmsType returns the LmsTypecode with the same numeric value as x.
func Uint32ToLmsType(x uint32) LmsTypecode {
	return LmsTypecode(x)
}

// ToUint32 returns the wire representation of an LmsTypecode.
func (x LmsTypecode) ToUint32() uint32 {
	return uint32(x)
}

// LmsType returns x if it names a valid LMS algorithm, else ErrInvalidLms.
func (x LmsTypecode) LmsType() (LmsTypecode, error) {
	if x >= lmsTypecodeFirst && x <= lmsTypecodeLast {
		return x, nil
	}
	return x, fmt.Errorf("%w: %d", ErrInvalidLms, uint32(x))
}

// LmsSigLength returns the expected signature length for an LMS type, given
// the LM-OTS type used at its leaves.
func (x LmsTypecode) LmsSigLength(otstc LmotsTypecode) (uint64, error) {
	params, err := x.LmsParams()
	if err != nil {
		return 0, err
	}
	otssiglen, err := otstc.LmsOtsSigLength()
	if err != nil {
		return 0, err
	}
	return 4 + 4 + otssiglen + (params.H * params.M), nil
}

// Uint32ToLmotsType returns the LmotsTypecode with the same numeric value as x.
func Uint32ToLmotsType(x uint32) LmotsTypecode {
	return LmotsTypecode(x)
}

// ToUint32 returns the wire representation of a LmotsTypecode.
func (x LmotsTypecode) ToUint32() uint32 {
	return uint32(x)
}

// LmsOtsType returns x if it names a valid LM-OTS algorithm, else ErrInvalidOts.
func (x LmotsTypecode) LmsOtsType() (LmotsTypecode, error) {
	if x >= lmotsTypecodeFirst && x <= lmotsTypecodeLast {
		return x, nil
	}
	return x, fmt.Errorf("%w: %d", ErrInvalidOts, uint32(x))
}

// LmsOtsSigLength returns the expected byte length of a LM-OTS signature of this type.
func (x LmotsTypecode) LmsOtsSigLength() (uint64, error) {
	params, err := x.Params()
	if err != nil {
		return 0, err
	}
	return params.SigLen, nil
}

// LookupLms resolves a wire-format LMS algorithm id to its parameter bundle.
// Unknown or reserved ids return ErrInvalidLms; it never panics or defaults.
func LookupLms(id uint32) (LmsParam, error) {
	return Uint32ToLmsType(id).LmsParams()
}

// LookupOts resolves a wire-format LM-OTS algorithm id to its parameter bundle.
// Unknown or reserved ids return ErrInvalidOts; it never panics or defaults.
func LookupOts(id uint32) (LmsOtsParam, error) {
	return Uint32ToLmotsType(id).Params()
}

// LmsParams returns the LmsParam bundle for x: {Hash, M, H} per the table in
// RFC 8554 §3.2 / this implementation's parameter registry.
func (x LmsTypecode) LmsParams() (LmsParam, error) {
	switch x {
	case LmsSha256M32H5:
		return LmsParam{Hash: Sha256Hasher{}, M: 32, H: 5}, nil
	case LmsSha256M32H10:
		return LmsParam{Hash: Sha256Hasher{}, M: 32, H: 10}, nil
	case LmsSha256M32H15:
		return LmsParam{Hash: Sha256Hasher{}, M: 32, H: 15}, nil
	case LmsSha256M32H20:
		return LmsParam{Hash: Sha256Hasher{}, M: 32, H: 20}, nil
	case LmsSha256M32H25:
		return LmsParam{Hash: Sha256Hasher{}, M: 32, H: 25}, nil
	case LmsSha256M24H5:
		return LmsParam{Hash: Sha256Hasher{}, M: 24, H: 5}, nil
	case LmsSha256M24H10:
		return LmsParam{Hash: Sha256Hasher{}, M: 24, H: 10}, nil
	case LmsSha256M24H15:
		return LmsParam{Hash: Sha256Hasher{}, M: 24, H: 15}, nil
	case LmsSha256M24H20:
		return LmsParam{Hash: Sha256Hasher{}, M: 24, H: 20}, nil
	case LmsSha256M24H25:
		return LmsParam{Hash: Sha256Hasher{}, M: 24, H: 25}, nil
	default:
		return LmsParam{}, fmt.Errorf("%w: %d", ErrInvalidLms, uint32(x))
	}
}

// Params returns the LmsOtsParam bundle for x: {Hash, N, W, P, LS, SigLen}
// per the table in RFC 8554 §4.1 / this implementation's parameter registry.
// These values are pinned by the RFC, not derived from N and W at runtime.
func (x LmotsTypecode) Params() (LmsOtsParam, error) {
	switch x {
	case LmotsSha256N32W1:
		return LmsOtsParam{H: Sha256Hasher{}, N: sha256.Size, W: WindowW1, P: 265, LS: 7, SigLen: 8516}, nil
	case LmotsSha256N32W2:
		return LmsOtsParam{H: Sha256Hasher{}, N: sha256.Size, W: WindowW2, P: 133, LS: 6, SigLen: 4292}, nil
	case LmotsSha256N32W4:
		return LmsOtsParam{H: Sha256Hasher{}, N: sha256.Size, W: WindowW4, P: 67, LS: 4, SigLen: 2180}, nil
	case LmotsSha256N32W8:
		return LmsOtsParam{H: Sha256Hasher{}, N: sha256.Size, W: WindowW8, P: 34, LS: 0, SigLen: 1124}, nil
	case LmotsSha256N24W1:
		return LmsOtsParam{H: Sha256Hasher{}, N: 24, W: WindowW1, P: 200, LS: 8, SigLen: 4828}, nil
	case LmotsSha256N24W2:
		return LmsOtsParam{H: Sha256Hasher{}, N: 24, W: WindowW2, P: 101, LS: 6, SigLen: 2452}, nil
	case LmotsSha256N24W4:
		return LmsOtsParam{H: Sha256Hasher{}, N: 24, W: WindowW4, P: 51, LS: 4, SigLen: 1252}, nil
	case LmotsSha256N24W8:
		return LmsOtsParam{H: Sha256Hasher{}, N: 24, W: WindowW8, P: 26, LS: 0, SigLen: 652}, nil
	default:
		return LmsOtsParam{}, fmt.Errorf("%w: %d", ErrInvalidOts, uint32(x))
	}
}
