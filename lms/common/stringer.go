package common

import "fmt"

//go:generate go run github.com/alvaroloes/enumer -type=LmsTypecode,LmotsTypecode -trimprefix Lms,Lmots -output stringer_generated.go

// String returns the IANA registry name for x, or "LMS_RESERVED"/a numeric
// fallback for ids this package does not recognize. Hand-written rather than
// generated: the enumer dependency in go.mod is a go:generate-time tool and
// this package avoids depending on its generated output being present in a
// tree that skips `go generate`.
func (x LmsTypecode) String() string {
	switch x {
	case LmsReserved:
		return "LMS_RESERVED"
	case LmsSha256M32H5:
		return "LMS_SHA256_M32_H5"
	case LmsSha256M32H10:
		return "LMS_SHA256_M32_H10"
	case LmsSha256M32H15:
		return "LMS_SHA256_M32_H15"
	case LmsSha256M32H20:
		return "LMS_SHA256_M32_H20"
	case LmsSha256M32H25:
		return "LMS_SHA256_M32_H25"
	case LmsSha256M24H5:
		return "LMS_SHA256_M24_H5"
	case LmsSha256M24H10:
		return "LMS_SHA256_M24_H10"
	case LmsSha256M24H15:
		return "LMS_SHA256_M24_H15"
	case LmsSha256M24H20:
		return "LMS_SHA256_M24_H20"
	case LmsSha256M24H25:
		return "LMS_SHA256_M24_H25"
	default:
		return fmt.Sprintf("LMS_UNKNOWN(%d)", uint32(x))
	}
}

// String returns the IANA registry name for x, matching LmsTypecode.String.
func (x LmotsTypecode) String() string {
	switch x {
	case LmotsReserved:
		return "LMOTS_RESERVED"
	case LmotsSha256N32W1:
		return "LMOTS_SHA256_N32_W1"
	case LmotsSha256N32W2:
		return "LMOTS_SHA256_N32_W2"
	case LmotsSha256N32W4:
		return "LMOTS_SHA256_N32_W4"
	case LmotsSha256N32W8:
		return "LMOTS_SHA256_N32_W8"
	case LmotsSha256N24W1:
		return "LMOTS_SHA256_N24_W1"
	case LmotsSha256N24W2:
		return "LMOTS_SHA256_N24_W2"
	case LmotsSha256N24W4:
		return "LMOTS_SHA256_N24_W4"
	case LmotsSha256N24W8:
		return "LMOTS_SHA256_N24_W8"
	default:
		return fmt.Sprintf("LMOTS_UNKNOWN(%d)", uint32(x))
	}
}

var lmsNames = map[string]LmsTypecode{
	"LMS_SHA256_M32_H5":  LmsSha256M32H5,
	"LMS_SHA256_M32_H10": LmsSha256M32H10,
	"LMS_SHA256_M32_H15": LmsSha256M32H15,
	"LMS_SHA256_M32_H20": LmsSha256M32H20,
	"LMS_SHA256_M32_H25": LmsSha256M32H25,
	"LMS_SHA256_M24_H5":  LmsSha256M24H5,
	"LMS_SHA256_M24_H10": LmsSha256M24H10,
	"LMS_SHA256_M24_H15": LmsSha256M24H15,
	"LMS_SHA256_M24_H20": LmsSha256M24H20,
	"LMS_SHA256_M24_H25": LmsSha256M24H25,
}

var lmotsNames = map[string]LmotsTypecode{
	"LMOTS_SHA256_N32_W1": LmotsSha256N32W1,
	"LMOTS_SHA256_N32_W2": LmotsSha256N32W2,
	"LMOTS_SHA256_N32_W4": LmotsSha256N32W4,
	"LMOTS_SHA256_N32_W8": LmotsSha256N32W8,
	"LMOTS_SHA256_N24_W1": LmotsSha256N24W1,
	"LMOTS_SHA256_N24_W2": LmotsSha256N24W2,
	"LMOTS_SHA256_N24_W4": LmotsSha256N24W4,
	"LMOTS_SHA256_N24_W8": LmotsSha256N24W8,
}

// ParseLmsTypecode resolves a registry name (e.g. "LMS_SHA256_M32_H10") to
// its typecode. Used by the CLI so operators can pass human-readable
// algorithm names instead of raw numeric ids.
func ParseLmsTypecode(name string) (LmsTypecode, error) {
	tc, ok := lmsNames[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLms, name)
	}
	return tc, nil
}

// ParseLmotsTypecode resolves a registry name (e.g. "LMOTS_SHA256_N32_W4")
// to its typecode.
func ParseLmotsTypecode(name string) (LmotsTypecode, error) {
	tc, ok := lmotsNames[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOts, name)
	}
	return tc, nil
}
