// Package ots implements one-time signatures (LM-OTS) for use in LMS.
//
// This file implements the public key, the OTS candidate-key
// reconstruction algorithm, and verification.
package ots

import (
	"crypto/subtle"
	"encoding/binary"
	"fmt"

	"github.com/ericeilertson/lms-hss/lms/common"
)

// Verify returns true if sig is valid for msg and this public key.
func (pub *LmsOtsPublicKey) Verify(msg []byte, sig LmsOtsSignature) bool {
	if pub.typecode != sig.typecode {
		return false
	}

	kc, valid := sig.RecoverPublicKey(msg, pub.id, pub.q)
	return valid && subtle.ConstantTimeCompare(pub.k, kc.k) == 1
}

// RecoverPublicKey reconstructs the candidate OTS public key for msg under
// sig. This is the OTS candidate-key reconstruction algorithm: it chains
// each y[i] from its message-derived coefficient up to the top of the
// chain, exactly mirroring the hashing Sign performed from the seed.
func (sig *LmsOtsSignature) RecoverPublicKey(msg []byte, id common.ID, q uint32) (LmsOtsPublicKey, bool) {
	var be16 [2]byte
	var be32 [4]byte
	params, err := sig.typecode.Params()
	if err != nil {
		return LmsOtsPublicKey{}, false
	}
	chainTop := (uint64(1) << uint(params.W.Window())) - 1

	if uint64(len(sig.c)) != params.N {
		return LmsOtsPublicKey{}, false
	}
	if uint64(len(sig.y)) != params.P {
		return LmsOtsPublicKey{}, false
	}
	for i := uint64(0); i < params.P; i++ {
		if uint64(len(sig.y[i])) != params.N {
			return LmsOtsPublicKey{}, false
		}
	}

	binary.BigEndian.PutUint32(be32[:], q)

	hasher := params.H.New()
	common.HashWrite(hasher, id[:])
	common.HashWrite(hasher, be32[:])
	common.HashWrite(hasher, common.D_MESG[:])
	common.HashWrite(hasher, sig.c)
	common.HashWrite(hasher, msg)

	Q := common.HashSum(hasher, params.N)
	expanded, err := common.Expand(Q, sig.typecode)
	if err != nil {
		return LmsOtsPublicKey{}, false
	}

	outer := params.H.New()
	common.HashWrite(outer, id[:])
	common.HashWrite(outer, be32[:])
	common.HashWrite(outer, common.D_PBLC[:])

	for i := uint64(0); i < params.P; i++ {
		a := uint64(expanded[i])
		tmp := make([]byte, len(sig.y[i]))
		copy(tmp, sig.y[i])

		for j := a; j < chainTop; j++ {
			inner := params.H.New()

			binary.BigEndian.PutUint32(be32[:], q)
			binary.BigEndian.PutUint16(be16[:], uint16(i))

			common.HashWrite(inner, id[:])
			common.HashWrite(inner, be32[:])
			common.HashWrite(inner, be16[:])
			common.HashWrite(inner, []byte{byte(j)})
			common.HashWrite(inner, tmp)

			tmp = common.HashSum(inner, params.N)
		}

		common.HashWrite(outer, tmp)
	}

	return LmsOtsPublicKey{
		typecode: sig.typecode,
		q:        q,
		id:       id,
		k:        common.HashSum(outer, params.N),
	}, true
}

// Key returns the public key's k parameter.
func (pub *LmsOtsPublicKey) Key() []byte {
	return pub.k
}

// LmsOtsPublicKeyFromBytes returns an LmsOtsPublicKey that represents b.
// This is the inverse of ToBytes. All length checks are total: no read
// beyond the supplied buffer.
func LmsOtsPublicKeyFromBytes(b []byte) (LmsOtsPublicKey, error) {
	if uint64(len(b)) < 4 {
		return LmsOtsPublicKey{}, fmt.Errorf("%w: LM-OTS public key", common.ErrTruncated)
	}
	typecode, err := common.Uint32ToLmotsType(binary.BigEndian.Uint32(b[0:4])).LmsOtsType()
	if err != nil {
		return LmsOtsPublicKey{}, err
	}
	params, err := typecode.Params()
	if err != nil {
		return LmsOtsPublicKey{}, err
	}

	want := 4 + common.IDLen + 4 + params.N
	if uint64(len(b)) < want {
		return LmsOtsPublicKey{}, fmt.Errorf("%w: LM-OTS public key", common.ErrTruncated)
	} else if uint64(len(b)) > want {
		return LmsOtsPublicKey{}, fmt.Errorf("%w: LM-OTS public key", common.ErrTrailingBytes)
	}

	id := common.ID(b[4 : 4+common.IDLen])
	q := binary.BigEndian.Uint32(b[4+common.IDLen : 8+common.IDLen])
	k := b[8+common.IDLen:]

	return LmsOtsPublicKey{
		typecode: typecode,
		id:       id,
		q:        q,
		k:        k,
	}, nil
}

// ToBytes serializes the public key into a byte string for transmission or storage.
func (pub *LmsOtsPublicKey) ToBytes() []byte {
	var serialized []byte
	var u32Be [4]byte

	typecode, _ := pub.typecode.LmsOtsType()
	binary.BigEndian.PutUint32(u32Be[:], typecode.ToUint32())
	serialized = append(serialized, u32Be[:]...)

	serialized = append(serialized, pub.id[:]...)

	binary.BigEndian.PutUint32(u32Be[:], pub.q)
	serialized = append(serialized, u32Be[:]...)

	serialized = append(serialized, pub.k...)

	return serialized
}
