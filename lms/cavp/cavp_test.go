package cavp_test

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericeilertson/lms-hss/lms/cavp"
	"github.com/ericeilertson/lms-hss/lms/common"
	"github.com/ericeilertson/lms-hss/lms/lms"
)

// fixedRNG always returns the same byte; used so the LM-OTS nonce in a
// generated signature is reproducible across test runs without relying
// on crypto/rand.
type fixedRNG struct{ b byte }

func (f fixedRNG) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = f.b
	}
	return len(p), nil
}

func buildVectorFile(t *testing.T) (*lms.LmsPublicKey, []byte, []byte) {
	t.Helper()
	return buildVectorFileFor(t, common.LmsSha256M32H10, common.LmotsSha256N32W4)
}

func buildVectorFileFor(t *testing.T, lmsTC common.LmsAlgorithmType, otsTC common.LmsOtsAlgorithmType) (*lms.LmsPublicKey, []byte, []byte) {
	t.Helper()

	seed, err := hex.DecodeString("558b8966c48ae9cb898b423c83443aae014a72f1b1ab5cc85cf1d892903b5439")
	require.NoError(t, err)
	id, err := hex.DecodeString("d08fabd4a2091ff0a8cb4ed834e74534")
	require.NoError(t, err)

	priv, err := lms.NewPrivateKeyFromSeed(lmsTC, otsTC, common.ID(id), seed)
	require.NoError(t, err)

	msg := []byte("conformance test message")
	sig, err := priv.Sign(msg, fixedRNG{0x42})
	require.NoError(t, err)

	sigBytes, err := sig.ToBytes()
	require.NoError(t, err)

	pub := priv.Public()
	return &pub, msg, sigBytes
}

func writeVectorFile(t *testing.T, vf *cavp.VectorFile) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vectors.json")
	raw, err := json.Marshal(vf)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0600))
	return path
}

func TestRunConformancePass(t *testing.T) {
	pub, msg, sigBytes := buildVectorFile(t)

	vf := &cavp.VectorFile{
		Algorithm: "LMS",
		Mode:      "verify",
		Revision:  "1.0",
		TestGroups: []cavp.TestGroup{
			{
				TgID:      1,
				PublicKey: hex.EncodeToString(pub.ToBytes()),
				Tests: []cavp.TestCase{
					{
						TcID:       1,
						Message:    hex.EncodeToString(msg),
						Signature:  hex.EncodeToString(sigBytes),
						TestPassed: true,
					},
				},
			},
		},
	}

	path := writeVectorFile(t, vf)
	loaded, err := cavp.LoadVectorFile(path)
	require.NoError(t, err)

	assert.NoError(t, cavp.RunConformance(loaded))
}

func TestRunConformancePassN24(t *testing.T) {
	pub, msg, sigBytes := buildVectorFileFor(t, common.LmsSha256M24H10, common.LmotsSha256N24W4)

	vf := &cavp.VectorFile{
		Algorithm: "LMS",
		Mode:      "verify",
		Revision:  "1.0",
		TestGroups: []cavp.TestGroup{
			{
				TgID:      1,
				PublicKey: hex.EncodeToString(pub.ToBytes()),
				Tests: []cavp.TestCase{
					{
						TcID:       1,
						Message:    hex.EncodeToString(msg),
						Signature:  hex.EncodeToString(sigBytes),
						TestPassed: true,
					},
				},
			},
		},
	}

	path := writeVectorFile(t, vf)
	loaded, err := cavp.LoadVectorFile(path)
	require.NoError(t, err)

	assert.NoError(t, cavp.RunConformance(loaded))
}

func TestRunConformanceDetectsMismatch(t *testing.T) {
	pub, msg, sigBytes := buildVectorFile(t)

	// Flip a bit in the signature so it no longer verifies, but claim
	// testPassed=true: RunConformance should report exactly this mismatch.
	corrupted := append([]byte(nil), sigBytes...)
	corrupted[len(corrupted)-1] ^= 1

	vf := &cavp.VectorFile{
		TestGroups: []cavp.TestGroup{
			{
				TgID:      1,
				PublicKey: hex.EncodeToString(pub.ToBytes()),
				Tests: []cavp.TestCase{
					{
						TcID:       1,
						Message:    hex.EncodeToString(msg),
						Signature:  hex.EncodeToString(corrupted),
						TestPassed: true,
					},
				},
			},
		},
	}

	err := cavp.RunConformance(vf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "group 1 case 1")
}

func TestParseVectorFileRejectsUnknownFields(t *testing.T) {
	_, err := cavp.ParseVectorFile(bytes.NewReader([]byte(`{"algorithm":"LMS","unknownField":true,"testGroups":[]}`)))
	assert.Error(t, err)
}
