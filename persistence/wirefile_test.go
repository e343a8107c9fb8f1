package persistence_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericeilertson/lms-hss/persistence"
)

func TestHexFileRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pubkey.hex")
	want := []byte{0x00, 0x00, 0x00, 0x06, 0xde, 0xad, 0xbe, 0xef}

	require.NoError(t, persistence.WriteHexFile(path, want))

	got, err := persistence.ReadHexFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadHexFileRejectsBadHex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.hex")
	require.NoError(t, os.WriteFile(path, []byte("not-hex-at-all\n"), 0600))

	_, err := persistence.ReadHexFile(path)
	assert.Error(t, err)
}
