// Package ots implements one-time signatures (LM-OTS) for use in LMS.
//
// This file implements the signature's wire codec.
package ots

import (
	"encoding/binary"
	"fmt"

	"github.com/ericeilertson/lms-hss/lms/common"
)

// LmsOtsSignatureFromBytes returns an LmsOtsSignature represented by b.
// Parsing is total: it never reads past len(b), and any length mismatch
// with the algorithm's fixed SigLen is reported rather than panicking.
func LmsOtsSignatureFromBytes(b []byte) (LmsOtsSignature, error) {
	if len(b) < 4 {
		return LmsOtsSignature{}, fmt.Errorf("%w: LM-OTS signature", common.ErrTruncated)
	}

	typecode, err := common.Uint32ToLmotsType(binary.BigEndian.Uint32(b[0:4])).LmsOtsType()
	if err != nil {
		return LmsOtsSignature{}, fmt.Errorf("%w: %v", common.ErrUnknownAlgId, err)
	}
	params, err := typecode.Params()
	if err != nil {
		return LmsOtsSignature{}, err
	}

	if uint64(len(b)) < params.SigLen {
		return LmsOtsSignature{}, fmt.Errorf("%w: LM-OTS signature", common.ErrTruncated)
	} else if uint64(len(b)) > params.SigLen {
		return LmsOtsSignature{}, fmt.Errorf("%w: LM-OTS signature", common.ErrTrailingBytes)
	}

	c := b[4 : 4+params.N]
	cur := 4 + params.N

	y := make([][]byte, params.P)
	for i := uint64(0); i < params.P; i++ {
		y[i] = b[cur : cur+params.N]
		cur += params.N
	}

	return LmsOtsSignature{
		typecode: typecode,
		c:        c,
		y:        y,
	}, nil
}

// ToBytes serializes the LM-OTS signature into a byte string for transmission or storage.
func (sig *LmsOtsSignature) ToBytes() ([]byte, error) {
	var serialized []byte
	var u32Be [4]byte

	params, err := sig.typecode.Params()
	if err != nil {
		return nil, err
	}

	typecode, err := sig.typecode.LmsOtsType()
	if err != nil {
		return nil, err
	}
	binary.BigEndian.PutUint32(u32Be[:], typecode.ToUint32())
	serialized = append(serialized, u32Be[:]...)

	serialized = append(serialized, sig.c...)

	for i := uint64(0); i < params.P; i++ {
		serialized = append(serialized, sig.y[i]...)
	}

	return serialized, nil
}
