// Package lms implements Leighton-Micali Hash-Based Signatures (RFC 8554)
//
// This file implements the LmsSignature type, including its wire codec.
package lms

import (
	"encoding/binary"
	"fmt"

	"github.com/ericeilertson/lms-hss/lms/common"
	"github.com/ericeilertson/lms-hss/lms/ots"
)

// NewLmsSignature returns a LmsSignature, given an LMS algorithm type,
// internal counter, LM-OTS signature, and authentication path.
func NewLmsSignature(tc common.LmsAlgorithmType, q uint32, otsig ots.LmsOtsSignature, path [][]byte) (LmsSignature, error) {
	tc, err := tc.LmsType()
	if err != nil {
		return LmsSignature{}, err
	}
	params, err := tc.LmsParams()
	if err != nil {
		return LmsSignature{}, err
	}
	leaves := uint32(1) << params.H

	// From step 2i of Algorithm 6a in RFC 8554.
	if q >= leaves {
		return LmsSignature{}, fmt.Errorf("%w: q=%d", common.ErrQOutOfRange, q)
	}
	if uint64(len(path)) != params.H {
		return LmsSignature{}, fmt.Errorf("%w: authentication path", common.ErrBadLength)
	}

	return LmsSignature{
		typecode: tc,
		q:        q,
		ots:      otsig,
		path:     path,
	}, nil
}

// LmsSignatureFromBytes returns an LmsSignature represented by b.
// This is the inverse of ToBytes.
func LmsSignatureFromBytes(b []byte) (LmsSignature, error) {
	if len(b) < 8 {
		return LmsSignature{}, fmt.Errorf("%w: LMS signature", common.ErrTruncated)
	}

	q := binary.BigEndian.Uint32(b[0:4])

	otstc, err := common.Uint32ToLmotsType(binary.BigEndian.Uint32(b[4:8])).LmsOtsType()
	if err != nil {
		return LmsSignature{}, err
	}

	otssiglen, err := otstc.LmsOtsSigLength()
	if err != nil {
		return LmsSignature{}, err
	}
	// 4 bytes of q, then the LM-OTS signature, then the LMS typecode.
	otsigmax := 4 + otssiglen
	if uint64(len(b)) < otsigmax+4 {
		return LmsSignature{}, fmt.Errorf("%w: LMS signature", common.ErrTruncated)
	}

	typecode, err := common.Uint32ToLmsType(binary.BigEndian.Uint32(b[otsigmax : otsigmax+4])).LmsType()
	if err != nil {
		return LmsSignature{}, err
	}

	siglen, err := typecode.LmsSigLength(otstc)
	if err != nil {
		return LmsSignature{}, err
	}
	if siglen != uint64(len(b)) {
		return LmsSignature{}, fmt.Errorf("%w: LMS signature", common.ErrLengthMismatch)
	}

	otsig, err := ots.LmsOtsSignatureFromBytes(b[4:otsigmax])
	if err != nil {
		return LmsSignature{}, err
	}

	lmsParams, err := typecode.LmsParams()
	if err != nil {
		return LmsSignature{}, err
	}
	height := lmsParams.H
	m := lmsParams.M
	start := otsigmax + 4

	if q >= (uint32(1) << height) {
		return LmsSignature{}, fmt.Errorf("%w: q=%d", common.ErrQOutOfRange, q)
	}

	path := make([][]byte, height)
	for i := uint64(0); i < height; i++ {
		end := start + m
		path[i] = b[start:end]
		start += m
	}

	return LmsSignature{
		typecode: typecode,
		q:        q,
		ots:      otsig,
		path:     path,
	}, nil
}

// ToBytes serializes the signature into a byte string for transmission or storage.
func (sig *LmsSignature) ToBytes() ([]byte, error) {
	var serialized []byte
	var u32Be [4]byte

	typecode, err := sig.typecode.LmsType()
	if err != nil {
		return nil, err
	}
	params, err := typecode.LmsParams()
	if err != nil {
		return nil, err
	}

	binary.BigEndian.PutUint32(u32Be[:], sig.q)
	serialized = append(serialized, u32Be[:]...)

	otsSig, err := sig.ots.ToBytes()
	if err != nil {
		return nil, err
	}
	serialized = append(serialized, otsSig...)

	binary.BigEndian.PutUint32(u32Be[:], typecode.ToUint32())
	serialized = append(serialized, u32Be[:]...)

	height := int(params.H)
	for i := 0; i < height; i++ {
		serialized = append(serialized, sig.path[i]...)
	}

	return serialized, nil
}
