package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/ericeilertson/lms-hss/lms/common"
)

func newTestApp() *cli.App {
	return &cli.App{
		Name: "lms-cli",
		Commands: []*cli.Command{
			createTreeCommand(),
			signCommand(),
			verifyCommand(),
		},
	}
}

func TestCreateSignVerifyRoundtrip(t *testing.T) {
	dir := t.TempDir()
	treePath := filepath.Join(dir, "tree.json")
	pubPath := filepath.Join(dir, "pub.hex")
	msgPath := filepath.Join(dir, "msg.bin")
	sigPath := filepath.Join(dir, "sig.hex")

	require.NoError(t, os.WriteFile(msgPath, []byte("hello from the CLI"), 0600))

	app := newTestApp()

	err := app.Run([]string{
		"lms-cli", "create-tree",
		"--lms-alg", "LMS_SHA256_M32_H5",
		"--ots-alg", "LMOTS_SHA256_N32_W8",
		"--tree", treePath,
		"--pubkey", pubPath,
	})
	require.NoError(t, err)
	require.FileExists(t, treePath)
	require.FileExists(t, pubPath)

	app = newTestApp()
	err = app.Run([]string{
		"lms-cli", "sign",
		"--tree", treePath,
		"--message", msgPath,
		"--sig-out", sigPath,
		"--q", "0",
	})
	require.NoError(t, err)
	require.FileExists(t, sigPath)

	app = newTestApp()
	err = app.Run([]string{
		"lms-cli", "verify",
		"--pubkey", pubPath,
		"--message", msgPath,
		"--signature", sigPath,
	})
	assert.NoError(t, err)
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	dir := t.TempDir()
	treePath := filepath.Join(dir, "tree.json")
	pubPath := filepath.Join(dir, "pub.hex")
	msgPath := filepath.Join(dir, "msg.bin")
	sigPath := filepath.Join(dir, "sig.hex")

	require.NoError(t, os.WriteFile(msgPath, []byte("original message"), 0600))

	app := newTestApp()
	require.NoError(t, app.Run([]string{
		"lms-cli", "create-tree",
		"--lms-alg", "LMS_SHA256_M32_H5",
		"--ots-alg", "LMOTS_SHA256_N32_W8",
		"--tree", treePath,
		"--pubkey", pubPath,
	}))

	app = newTestApp()
	require.NoError(t, app.Run([]string{
		"lms-cli", "sign",
		"--tree", treePath,
		"--message", msgPath,
		"--sig-out", sigPath,
	}))

	require.NoError(t, os.WriteFile(msgPath, []byte("a different message entirely"), 0600))

	app = newTestApp()
	err := app.Run([]string{
		"lms-cli", "verify",
		"--pubkey", pubPath,
		"--message", msgPath,
		"--signature", sigPath,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrSignatureInvalid)
}

func TestCreateTreeRejectsUnknownAlgorithm(t *testing.T) {
	dir := t.TempDir()
	app := newTestApp()
	err := app.Run([]string{
		"lms-cli", "create-tree",
		"--lms-alg", "NOT_A_REAL_ALGORITHM",
		"--ots-alg", "LMOTS_SHA256_N32_W8",
		"--tree", filepath.Join(dir, "tree.json"),
		"--pubkey", filepath.Join(dir, "pub.hex"),
	})
	assert.Error(t, err)
}
