// Package ots implements one-time signatures (LM-OTS) for use in LMS.
//
// This file implements the private key and the Winternitz hash-chain
// signing logic (the hash-chain engine of RFC 8554 §4).
package ots

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"hash"
	"io"

	"github.com/ericeilertson/lms-hss/lms/common"
)

func hashWrite(h hash.Hash, x []byte) {
	common.HashWrite(h, x)
}

// NewPrivateKey returns a LmsOtsPrivateKey, seeded by a cryptographically
// secure random number generator.
func NewPrivateKey(tc common.LmsOtsAlgorithmType, q uint32, id common.ID) (LmsOtsPrivateKey, error) {
	params, err := tc.Params()
	if err != nil {
		return LmsOtsPrivateKey{}, err
	}

	seed := make([]byte, params.N)
	if _, err = rand.Read(seed); err != nil {
		return LmsOtsPrivateKey{}, fmt.Errorf("%w: %v", common.ErrRng, err)
	}

	return NewPrivateKeyFromSeed(tc, q, id, seed)
}

// NewPrivateKeyFromSeed returns a new LmsOtsPrivateKey, using the algorithm
// from Appendix A of <https://datatracker.ietf.org/doc/html/rfc8554#appendix-A>.
func NewPrivateKeyFromSeed(tc common.LmsOtsAlgorithmType, q uint32, id common.ID, seed []byte) (LmsOtsPrivateKey, error) {
	params, err := tc.Params()
	if err != nil {
		return LmsOtsPrivateKey{}, err
	}
	x := make([][]byte, params.P)

	for i := uint64(0); i < params.P; i++ {
		var qBe [4]byte
		var iBe [2]byte
		hasher := params.H.New()

		binary.BigEndian.PutUint32(qBe[:], q)
		binary.BigEndian.PutUint16(iBe[:], uint16(i))

		hashWrite(hasher, id[:])
		hashWrite(hasher, qBe[:])
		hashWrite(hasher, iBe[:])
		hashWrite(hasher, []byte{0xff})
		hashWrite(hasher, seed)

		x[i] = common.HashSum(hasher, params.N)
	}

	return LmsOtsPrivateKey{
		typecode: tc,
		q:        q,
		id:       id,
		x:        x,
		valid:    true,
	}, nil
}

// Public returns an LmsOtsPublicKey that validates signatures for this private key.
func (x *LmsOtsPrivateKey) Public() (LmsOtsPublicKey, error) {
	var be16 [2]byte
	var be32 [4]byte
	params, err := x.typecode.Params()
	if err != nil {
		return LmsOtsPublicKey{}, err
	}
	chainTop := (uint64(1) << uint(params.W.Window())) - 1

	hasher := params.H.New()
	binary.BigEndian.PutUint32(be32[:], x.q)

	hashWrite(hasher, x.id[:])
	hashWrite(hasher, be32[:])
	hashWrite(hasher, common.D_PBLC[:])

	for i := uint64(0); i < params.P; i++ {
		tmp := make([]byte, len(x.x[i]))
		copy(tmp, x.x[i])

		for j := uint64(0); j < chainTop; j++ {
			inner := params.H.New()

			binary.BigEndian.PutUint32(be32[:], x.q)
			binary.BigEndian.PutUint16(be16[:], uint16(i))

			hashWrite(inner, x.id[:])
			hashWrite(inner, be32[:])
			hashWrite(inner, be16[:])
			hashWrite(inner, []byte{byte(j)})
			hashWrite(inner, tmp)

			tmp = common.HashSum(inner, params.N)
		}

		hashWrite(hasher, tmp)
	}

	return LmsOtsPublicKey{
		typecode: x.typecode,
		q:        x.q,
		id:       x.id,
		k:        common.HashSum(hasher, params.N),
	}, nil
}

// Sign calculates the LM-OTS signature of a chosen message, consuming the
// private key: every x[i] chain seed is only ever safe to use once.
// The rng argument is optional; if nil, crypto/rand.Reader is used.
func (x *LmsOtsPrivateKey) Sign(msg []byte, rng io.Reader) (LmsOtsSignature, error) {
	if rng == nil {
		rng = rand.Reader
	}
	if !x.valid {
		return LmsOtsSignature{}, fmt.Errorf("lms/ots: private key for q=%d already used to sign", x.q)
	}

	var be16 [2]byte
	var be32 [4]byte
	params, err := x.typecode.Params()
	if err != nil {
		return LmsOtsSignature{}, err
	}

	c := make([]byte, params.N)
	if _, err = rng.Read(c); err != nil {
		return LmsOtsSignature{}, fmt.Errorf("%w: %v", common.ErrRng, err)
	}

	hasher := params.H.New()
	binary.BigEndian.PutUint32(be32[:], x.q)

	hashWrite(hasher, x.id[:])
	hashWrite(hasher, be32[:])
	hashWrite(hasher, common.D_MESG[:])
	hashWrite(hasher, c)
	hashWrite(hasher, msg)

	q := common.HashSum(hasher, params.N)
	expanded, err := common.Expand(q, x.typecode)
	if err != nil {
		return LmsOtsSignature{}, err
	}

	y := make([][]byte, params.P)
	for i := uint64(0); i < params.P; i++ {
		a := uint64(expanded[i])
		y[i] = make([]byte, len(x.x[i]))
		copy(y[i], x.x[i])

		for j := uint64(0); j < a; j++ {
			inner := params.H.New()

			binary.BigEndian.PutUint32(be32[:], x.q)
			binary.BigEndian.PutUint16(be16[:], uint16(i))

			hashWrite(inner, x.id[:])
			hashWrite(inner, be32[:])
			hashWrite(inner, be16[:])
			hashWrite(inner, []byte{byte(j)})
			hashWrite(inner, y[i])

			y[i] = common.HashSum(inner, params.N)
		}
	}

	// The chain seeds are one-time material; drop them so a reused
	// LmsOtsPrivateKey value fails loudly instead of producing a second,
	// key-leaking signature.
	x.x = nil
	x.valid = false

	// ots_alg_id on the emitted signature always reflects the typecode this
	// key actually signed with, never a value threaded in from elsewhere.
	return LmsOtsSignature{
		typecode: x.typecode,
		c:        c,
		y:        y,
	}, nil
}
