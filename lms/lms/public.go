// Package lms implements Leighton-Micali Hash-Based Signatures (RFC 8554)
//
// This file implements the public key and signature verification logic.
package lms

import (
	"crypto/subtle"
	"encoding/binary"
	"fmt"

	"github.com/ericeilertson/lms-hss/lms/common"
)

// NewPublicKey returns a new LmsPublicKey, given the LMS typecode, LM-OTS
// typecode, ID, and root of the authentication tree (called k).
func NewPublicKey(tc common.LmsAlgorithmType, otstc common.LmsOtsAlgorithmType, id common.ID, k []byte) (LmsPublicKey, error) {
	// Explicit check from Algorithm 6, Step 1 of RFC 8554.
	if len(k) < 8 {
		return LmsPublicKey{}, fmt.Errorf("%w: LMS public key root", common.ErrBadLength)
	}

	tc, err := tc.LmsType()
	if err != nil {
		return LmsPublicKey{}, err
	}
	otstc, err = otstc.LmsOtsType()
	if err != nil {
		return LmsPublicKey{}, err
	}

	return LmsPublicKey{
		typecode: tc,
		otstype:  otstc,
		id:       id,
		k:        k,
	}, nil
}

// Verify returns true if sig is valid for msg and this public key. It
// collapses every failure reason (algorithm mismatch, bad candidate
// key, wrong root) into a single false; callers that need to know why
// a signature didn't verify should use VerifyErr instead.
func (pub *LmsPublicKey) Verify(msg []byte, sig LmsSignature) bool {
	return pub.VerifyErr(msg, sig) == nil
}

// VerifyErr is Verify but reports why a signature failed: ErrAlgMismatch
// when the signature's embedded LMS or LM-OTS typecode doesn't match
// this public key's, ErrSignatureInvalid when the typecodes agree but
// the recomputed root doesn't match pub's, or a parameter lookup error
// if pub's own typecode/otstype is malformed.
func (pub *LmsPublicKey) VerifyErr(msg []byte, sig LmsSignature) error {
	params, err := pub.typecode.LmsParams()
	if err != nil {
		return err
	}
	otsParams, err := pub.otstype.Params()
	if err != nil {
		return err
	}

	// Algorithm 6a, step 2.g: the LMS typecode embedded in the signature
	// must match the public key's before anything else is trusted.
	if sig.typecode != pub.typecode {
		return common.ErrAlgMismatch
	}
	// The embedded LM-OTS typecode must match too, rather than letting
	// RecoverPublicKey silently use whatever algorithm the signature claims.
	if sig.ots.Algorithm() != pub.otstype {
		return common.ErrAlgMismatch
	}

	height := int(params.H)
	leaves := uint32(1) << height

	keyCandidate, valid := sig.ots.RecoverPublicKey(msg, pub.id, sig.q)
	if !valid {
		return common.ErrSignatureInvalid
	}

	nodeNum := sig.q + leaves
	var nodeNumBytes [4]byte
	var tmpBe [4]byte
	binary.BigEndian.PutUint32(nodeNumBytes[:], nodeNum)

	hasher := otsParams.H.New()
	common.HashWrite(hasher, pub.id[:])
	common.HashWrite(hasher, nodeNumBytes[:])
	common.HashWrite(hasher, common.D_LEAF[:])
	common.HashWrite(hasher, keyCandidate.Key())
	tmp := common.HashSum(hasher, otsParams.N)

	for i := 0; i < height; i++ {
		binary.BigEndian.PutUint32(tmpBe[:], nodeNum>>1)

		hasher := otsParams.H.New()
		common.HashWrite(hasher, pub.id[:])
		common.HashWrite(hasher, tmpBe[:])
		common.HashWrite(hasher, common.D_INTR[:])
		if nodeNum%2 == 1 {
			common.HashWrite(hasher, sig.path[i])
			common.HashWrite(hasher, tmp)
		} else {
			common.HashWrite(hasher, tmp)
			common.HashWrite(hasher, sig.path[i])
		}
		tmp = common.HashSum(hasher, otsParams.N)
		nodeNum >>= 1
	}
	if subtle.ConstantTimeCompare(tmp, pub.k) != 1 {
		return common.ErrSignatureInvalid
	}
	return nil
}

// ToBytes serializes the public key into a byte string for transmission or storage.
func (pub *LmsPublicKey) ToBytes() []byte {
	var serialized []byte
	var u32Be [4]byte

	typecode, _ := pub.typecode.LmsType()
	binary.BigEndian.PutUint32(u32Be[:], typecode.ToUint32())
	serialized = append(serialized, u32Be[:]...)

	otstype, _ := pub.otstype.LmsOtsType()
	binary.BigEndian.PutUint32(u32Be[:], otstype.ToUint32())
	serialized = append(serialized, u32Be[:]...)

	serialized = append(serialized, pub.id[:]...)
	serialized = append(serialized, pub.k...)

	return serialized
}

// Key returns the public key's root value, k: the root of the
// authentication tree in the corresponding private key.
func (pub *LmsPublicKey) Key() []byte {
	return pub.k
}

// ID returns the identifier shared by every hash computed within this tree.
func (pub *LmsPublicKey) ID() common.ID {
	return pub.id
}

// LmsPublicKeyFromBytes returns an LmsPublicKey that represents b.
// This is the inverse of ToBytes.
func LmsPublicKeyFromBytes(b []byte) (LmsPublicKey, error) {
	if len(b) < 8 {
		return LmsPublicKey{}, fmt.Errorf("%w: LMS public key", common.ErrTruncated)
	}
	typecode, err := common.Uint32ToLmsType(binary.BigEndian.Uint32(b[0:4])).LmsType()
	if err != nil {
		return LmsPublicKey{}, err
	}
	otstype, err := common.Uint32ToLmotsType(binary.BigEndian.Uint32(b[4:8])).LmsOtsType()
	if err != nil {
		return LmsPublicKey{}, err
	}
	lmsParams, err := typecode.LmsParams()
	if err != nil {
		return LmsPublicKey{}, err
	}
	want := lmsParams.M + 24
	if uint64(len(b)) < want {
		return LmsPublicKey{}, fmt.Errorf("%w: LMS public key", common.ErrTruncated)
	} else if uint64(len(b)) > want {
		return LmsPublicKey{}, fmt.Errorf("%w: LMS public key", common.ErrTrailingBytes)
	}

	id := common.ID(b[8:24])
	k := b[24:]

	return LmsPublicKey{
		typecode: typecode,
		otstype:  otstype,
		id:       id,
		k:        k,
	}, nil
}
