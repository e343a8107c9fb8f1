package lms_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericeilertson/lms-hss/lms/common"
	"github.com/ericeilertson/lms-hss/lms/lms"
)

// signAllLeaves exhausts every leaf of a freshly generated tree signing
// the same message, asserting each signature verifies and that the tree
// refuses to sign once every leaf is used.
func signAllLeaves(t *testing.T, lmsTC common.LmsAlgorithmType, otsTC common.LmsOtsAlgorithmType, leaves uint32, msg []byte) {
	t.Helper()

	priv, err := lms.NewPrivateKey(lmsTC, otsTC)
	require.NoError(t, err)
	pub := priv.Public()

	for q := uint32(0); q < leaves; q++ {
		sig, err := priv.Sign(msg, nil)
		require.NoError(t, err)
		assert.True(t, pub.Verify(msg, sig), "leaf q=%d failed to verify", q)
	}

	// The tree is now exhausted: one more Sign must report ErrQOutOfRange.
	_, err = priv.Sign(msg, nil)
	assert.ErrorIs(t, err, common.ErrQOutOfRange)
}

func TestRoundtripAllLeavesH10N32W4(t *testing.T) {
	msg := []byte("this is the message I want signed")
	signAllLeaves(t, common.LmsSha256M32H10, common.LmotsSha256N32W4, 1024, msg)
}

func TestRoundtripAllLeavesH10N24W4(t *testing.T) {
	msg := []byte("this is the message I want signed")
	signAllLeaves(t, common.LmsSha256M24H10, common.LmotsSha256N24W4, 1024, msg)
}

func TestRoundtripCombinationsN32(t *testing.T) {
	heights := []common.LmsAlgorithmType{common.LmsSha256M32H5, common.LmsSha256M32H10}
	widths := []common.LmsOtsAlgorithmType{
		common.LmotsSha256N32W1,
		common.LmotsSha256N32W2,
		common.LmotsSha256N32W4,
		common.LmotsSha256N32W8,
	}

	for _, lmsTC := range heights {
		for _, otsTC := range widths {
			priv, err := lms.NewPrivateKey(lmsTC, otsTC)
			require.NoError(t, err)
			pub := priv.Public()

			for i := 0; i < 10; i++ {
				msg := []byte{byte(i), byte(i + 1), byte(i + 2)}
				sig, err := priv.Sign(msg, nil)
				require.NoError(t, err)
				assert.True(t, pub.Verify(msg, sig))
			}
		}
	}
}

func TestTamperedSignatureIsRejected(t *testing.T) {
	priv, err := lms.NewPrivateKey(common.LmsSha256M32H10, common.LmotsSha256N32W4)
	require.NoError(t, err)
	pub := priv.Public()

	msg := []byte("a message that will be tampered with")
	sig, err := priv.Sign(msg, nil)
	require.NoError(t, err)
	require.True(t, pub.Verify(msg, sig))

	sigBytes, err := sig.ToBytes()
	require.NoError(t, err)

	// Flip a bit of q (the leading 4 bytes): either the buffer no longer
	// parses (out-of-range q) or it parses but fails to verify.
	qTampered := append([]byte(nil), sigBytes...)
	qTampered[3] ^= 0x01
	assertRejected(t, &pub, msg, qTampered)

	// Flip a bit inside the OTS nonce C, which starts right after the
	// 4-byte q and 4-byte ots_alg_id.
	cTampered := append([]byte(nil), sigBytes...)
	cTampered[8] ^= 0x01
	assertRejected(t, &pub, msg, cTampered)

	// A different message entirely must also fail to verify.
	otherMsg := []byte("a completely different message")
	goodSig, err := lms.LmsSignatureFromBytes(sigBytes)
	require.NoError(t, err)
	assert.False(t, pub.Verify(otherMsg, goodSig))
}

func assertRejected(t *testing.T, pub *lms.LmsPublicKey, msg, sigBytes []byte) {
	t.Helper()
	sig, err := lms.LmsSignatureFromBytes(sigBytes)
	if err != nil {
		return
	}
	assert.False(t, pub.Verify(msg, sig))
}
