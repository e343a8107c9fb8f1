// Package lms implements Leighton-Micali Hash-Based Signatures (RFC 8554).
//
// This file builds the Merkle authentication tree over LM-OTS leaf public
// keys.
package lms

import (
	"context"
	"encoding/binary"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ericeilertson/lms-hss/lms/common"
	"github.com/ericeilertson/lms-hss/lms/ots"
)

// GeneratePKTree generates the Merkle tree needed to derive the public key
// and authentication paths for any leaf.
func GeneratePKTree(tc common.LmsAlgorithmType, otstc common.LmsOtsAlgorithmType, id common.ID, seed []byte) ([][]byte, error) {
	return GeneratePKTreeContext(context.Background(), tc, otstc, id, seed)
}

// GeneratePKTreeContext is GeneratePKTree with cancellation. Computing a
// leaf means deriving its full LM-OTS key and walking every Winternitz
// chain to the top, so for tall trees this is the dominant cost; leaves
// are computed concurrently, each worker with its own hash.Hash, and a
// canceled ctx stops outstanding workers instead of finishing a tree no
// one will use. Interior levels are assembled single-threaded afterward,
// since every interior node depends on two already-computed children.
func GeneratePKTreeContext(ctx context.Context, tc common.LmsAlgorithmType, otstc common.LmsOtsAlgorithmType, id common.ID, seed []byte) ([][]byte, error) {
	params, err := tc.LmsParams()
	if err != nil {
		return nil, err
	}
	otsParams, err := otstc.Params()
	if err != nil {
		return nil, err
	}

	treeNodes := (uint32(1) << (params.H + 1)) - 1
	leaves := uint32(1) << params.H
	authtree := make([][]byte, treeNodes)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := uint32(0); i < leaves; i++ {
		i := i
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			otsPriv, err := ots.NewPrivateKeyFromSeed(otstc, i, id, seed)
			if err != nil {
				return err
			}
			otsPub, err := otsPriv.Public()
			if err != nil {
				return err
			}

			r := i + leaves
			var rBe [4]byte
			binary.BigEndian.PutUint32(rBe[:], r)

			hasher := otsParams.H.New()
			common.HashWrite(hasher, id[:])
			common.HashWrite(hasher, rBe[:])
			common.HashWrite(hasher, common.D_LEAF[:])
			common.HashWrite(hasher, otsPub.Key())

			authtree[r-1] = common.HashSum(hasher, otsParams.N)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for level := int(params.H) - 1; level >= 0; level-- {
		first := uint32(1) << uint(level)
		last := (uint32(1) << uint(level+1)) - 1
		for r := first; r <= last; r++ {
			var rBe [4]byte
			binary.BigEndian.PutUint32(rBe[:], r)

			hasher := otsParams.H.New()
			common.HashWrite(hasher, id[:])
			common.HashWrite(hasher, rBe[:])
			common.HashWrite(hasher, common.D_INTR[:])
			common.HashWrite(hasher, authtree[2*r-1])
			common.HashWrite(hasher, authtree[2*r])
			authtree[r-1] = common.HashSum(hasher, otsParams.N)
		}
	}

	return authtree, nil
}
