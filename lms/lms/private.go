// Package lms implements Leighton-Micali Hash-Based Signatures (RFC 8554)
//
// This file implements the private key and signing logic.
package lms

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ericeilertson/lms-hss/lms/common"
	"github.com/ericeilertson/lms-hss/lms/ots"
)

// NewPrivateKey returns a LmsPrivateKey, seeded by a cryptographically secure
// random number generator.
func NewPrivateKey(tc common.LmsAlgorithmType, otstc common.LmsOtsAlgorithmType) (LmsPrivateKey, error) {
	tc, err := tc.LmsType()
	if err != nil {
		return LmsPrivateKey{}, err
	}
	params, err := tc.LmsParams()
	if err != nil {
		return LmsPrivateKey{}, err
	}

	seed := make([]byte, params.M)
	if _, err = rand.Read(seed); err != nil {
		return LmsPrivateKey{}, fmt.Errorf("%w: %v", common.ErrRng, err)
	}
	idBytes := make([]byte, common.IDLen)
	if _, err = rand.Read(idBytes); err != nil {
		return LmsPrivateKey{}, fmt.Errorf("%w: %v", common.ErrRng, err)
	}
	id := common.ID(idBytes)

	return NewPrivateKeyFromSeed(tc, otstc, id, seed)
}

// NewPrivateKeyFromSeed returns a new LmsPrivateKey, using the algorithm from
// Appendix A of <https://datatracker.ietf.org/doc/html/rfc8554#appendix-A>
func NewPrivateKeyFromSeed(tc common.LmsAlgorithmType, otstc common.LmsOtsAlgorithmType, id common.ID, seed []byte) (LmsPrivateKey, error) {
	tc, err := tc.LmsType()
	if err != nil {
		return LmsPrivateKey{}, err
	}
	otstc, err = otstc.LmsOtsType()
	if err != nil {
		return LmsPrivateKey{}, err
	}
	tree, err := GeneratePKTree(tc, otstc, id, seed)
	if err != nil {
		return LmsPrivateKey{}, err
	}
	return LmsPrivateKey{
		typecode: tc,
		otstype:  otstc,
		q:        0,
		id:       id,
		seed:     seed,
		authtree: tree,
	}, nil
}

// Public returns an LmsPublicKey that validates signatures for this private key.
func (priv *LmsPrivateKey) Public() LmsPublicKey {
	return LmsPublicKey{
		typecode: priv.typecode,
		otstype:  priv.otstype,
		id:       priv.id,
		k:        priv.authtree[0],
	}
}

// Sign calculates the LMS signature of a chosen message, consuming one
// leaf of the tree (q). The rng argument is optional; if nil,
// crypto/rand.Reader is used for the LM-OTS nonce.
func (priv *LmsPrivateKey) Sign(msg []byte, rng io.Reader) (LmsSignature, error) {
	if rng == nil {
		rng = rand.Reader
	}
	params, err := priv.typecode.LmsParams()
	if err != nil {
		return LmsSignature{}, err
	}
	height := int(params.H)
	leaves := uint32(1) << height
	if priv.q >= leaves {
		return LmsSignature{}, fmt.Errorf("%w: q=%d", common.ErrQOutOfRange, priv.q)
	}

	otsPriv, err := ots.NewPrivateKeyFromSeed(priv.otstype, priv.q, priv.id, priv.seed)
	if err != nil {
		return LmsSignature{}, err
	}
	otsSig, err := otsPriv.Sign(msg, rng)
	if err != nil {
		return LmsSignature{}, err
	}

	authpath := make([][]byte, params.H)
	r := leaves + priv.q
	for i := 0; i < height; i++ {
		sibling := (r >> i) ^ 1
		// T[x] is indexed from 1, not 0, in the spec.
		authpath[i] = priv.authtree[sibling-1]
	}

	// q is incremented before return so this key never signs with the
	// same leaf twice. The counter lives only in memory; persisting it is
	// the caller's job.
	priv.incrementQ()

	return LmsSignature{
		typecode: priv.typecode,
		q:        priv.q - 1,
		ots:      otsSig,
		path:     authpath,
	}, nil
}

func (priv *LmsPrivateKey) incrementQ() {
	priv.q++
}

// ToBytes serializes the private key into a byte string for storage,
// including the current value of the internal counter, q.
func (priv *LmsPrivateKey) ToBytes() []byte {
	var serialized []byte
	var u32Be [4]byte

	typecode, _ := priv.typecode.LmsType()
	binary.BigEndian.PutUint32(u32Be[:], typecode.ToUint32())
	serialized = append(serialized, u32Be[:]...)

	otstype, _ := priv.otstype.LmsOtsType()
	binary.BigEndian.PutUint32(u32Be[:], otstype.ToUint32())
	serialized = append(serialized, u32Be[:]...)

	binary.BigEndian.PutUint32(u32Be[:], priv.q)
	serialized = append(serialized, u32Be[:]...)

	serialized = append(serialized, priv.id[:]...)
	serialized = append(serialized, priv.seed...)

	return serialized
}

// Q returns the current value of the internal counter q: the index of the
// next leaf this key will sign with.
func (priv *LmsPrivateKey) Q() uint32 {
	return priv.q
}

// privateKeyHeader is the parsed form of the fields common to
// LmsPrivateKeyFromBytes and LmsPrivateKeyFromCachedTree: everything
// ToBytes serializes except the authentication tree itself, which the
// two constructors obtain differently (rebuild from seed vs. reuse a
// cached tree).
type privateKeyHeader struct {
	typecode common.LmsAlgorithmType
	otstype  common.LmsOtsAlgorithmType
	q        uint32
	id       common.ID
	seed     []byte
	params   common.LmsParam
}

func parsePrivateKeyHeader(b []byte) (privateKeyHeader, error) {
	if len(b) < 28 {
		return privateKeyHeader{}, fmt.Errorf("%w: LMS private key", common.ErrTruncated)
	}

	typecode, err := common.Uint32ToLmsType(binary.BigEndian.Uint32(b[0:4])).LmsType()
	if err != nil {
		return privateKeyHeader{}, err
	}
	otstype, err := common.Uint32ToLmotsType(binary.BigEndian.Uint32(b[4:8])).LmsOtsType()
	if err != nil {
		return privateKeyHeader{}, err
	}
	lmsParams, err := typecode.LmsParams()
	if err != nil {
		return privateKeyHeader{}, err
	}
	want := int(lmsParams.M) + 28
	if len(b) < want {
		return privateKeyHeader{}, fmt.Errorf("%w: LMS private key", common.ErrTruncated)
	} else if len(b) > want {
		return privateKeyHeader{}, fmt.Errorf("%w: LMS private key", common.ErrTrailingBytes)
	}

	q := binary.BigEndian.Uint32(b[8:12])
	id := common.ID(b[12:28])
	seedEnd := 28 + int(lmsParams.M)
	seed := b[28:seedEnd]

	return privateKeyHeader{
		typecode: typecode,
		otstype:  otstype,
		q:        q,
		id:       id,
		seed:     seed,
		params:   lmsParams,
	}, nil
}

// LmsPrivateKeyFromBytes returns an LmsPrivateKey that represents b.
// This is the inverse of ToBytes. Regenerating the tree from the seed is
// the price of not persisting it; callers that already have a
// previously materialized tree should use LmsPrivateKeyFromCachedTree
// instead to skip the rebuild.
func LmsPrivateKeyFromBytes(b []byte) (LmsPrivateKey, error) {
	h, err := parsePrivateKeyHeader(b)
	if err != nil {
		return LmsPrivateKey{}, err
	}

	privateKey, err := NewPrivateKeyFromSeed(h.typecode, h.otstype, h.id, h.seed)
	if err != nil {
		return LmsPrivateKey{}, err
	}
	privateKey.q = h.q
	return privateKey, nil
}

// LmsPrivateKeyFromCachedTree parses the same serialized layout as
// LmsPrivateKeyFromBytes but reuses tree instead of regenerating it from
// the seed via GeneratePKTree, skipping the dominant cost of rebuilding
// a large tree on every reload. tree must be exactly the node slice
// GeneratePKTree would have produced for these parameters (the shape
// (*LmsPrivateKey).Tree returns) — its length and node width are
// checked against the parameters encoded in b.
func LmsPrivateKeyFromCachedTree(b []byte, tree [][]byte) (LmsPrivateKey, error) {
	h, err := parsePrivateKeyHeader(b)
	if err != nil {
		return LmsPrivateKey{}, err
	}

	wantNodes := int((uint64(1) << (h.params.H + 1)) - 1)
	if len(tree) != wantNodes {
		return LmsPrivateKey{}, fmt.Errorf("%w: tree cache has %d nodes, want %d", common.ErrBadLength, len(tree), wantNodes)
	}
	for _, n := range tree {
		if len(n) != int(h.params.M) {
			return LmsPrivateKey{}, fmt.Errorf("%w: tree cache node width", common.ErrBadLength)
		}
	}

	return LmsPrivateKey{
		typecode: h.typecode,
		otstype:  h.otstype,
		q:        h.q,
		id:       h.id,
		seed:     h.seed,
		authtree: tree,
	}, nil
}

// Tree returns the private key's materialized authentication tree, the
// same node ordering GeneratePKTree produces, suitable for persisting
// with a tree cache and later replayed through
// LmsPrivateKeyFromCachedTree.
func (priv *LmsPrivateKey) Tree() [][]byte {
	return priv.authtree
}
