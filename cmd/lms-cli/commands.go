package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/ericeilertson/lms-hss/lms/common"
	"github.com/ericeilertson/lms-hss/lms/lms"
	"github.com/ericeilertson/lms-hss/persistence"
)

func createTreeCommand() *cli.Command {
	return &cli.Command{
		Name:      "create-tree",
		Usage:     "generate a new LMS keypair",
		UsageText: "lms-cli create-tree --lms-alg LMS_SHA256_M32_H10 --ots-alg LMOTS_SHA256_N32_W4",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "lms-alg", Required: true, Usage: "LMS algorithm name, e.g. LMS_SHA256_M32_H10"},
			&cli.StringFlag{Name: "ots-alg", Required: true, Usage: "LM-OTS algorithm name, e.g. LMOTS_SHA256_N32_W4"},
			&cli.StringFlag{Name: "tree", Value: "tree.json", Usage: "output path for the private tree document"},
			&cli.StringFlag{Name: "pubkey", Value: "pubkey.hex", Usage: "output path for the hex-encoded public key"},
		},
		Action: func(c *cli.Context) error {
			lmsTC, err := common.ParseLmsTypecode(c.String("lms-alg"))
			if err != nil {
				return err
			}
			otsTC, err := common.ParseLmotsTypecode(c.String("ots-alg"))
			if err != nil {
				return err
			}

			priv, err := lms.NewPrivateKey(lmsTC, otsTC)
			if err != nil {
				return fmt.Errorf("create-tree: %w", err)
			}

			doc, err := persistence.NewTreeDocument(&priv)
			if err != nil {
				return fmt.Errorf("create-tree: %w", err)
			}
			if err := persistence.WriteTreeDocument(c.String("tree"), &doc); err != nil {
				return fmt.Errorf("create-tree: %w", err)
			}

			pub := priv.Public()
			if err := persistence.WriteHexFile(c.String("pubkey"), pub.ToBytes()); err != nil {
				return fmt.Errorf("create-tree: %w", err)
			}

			log.Info().
				Str("lms_alg", lmsTC.String()).
				Str("ots_alg", otsTC.String()).
				Str("tree", c.String("tree")).
				Str("pubkey", c.String("pubkey")).
				Msg("created LMS tree")
			return nil
		},
	}
}

func signCommand() *cli.Command {
	return &cli.Command{
		Name:      "sign",
		Usage:     "sign a message with the next unused leaf of a tree",
		UsageText: "lms-cli sign --tree tree.json --message msg.bin --sig-out sig.hex",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "tree", Required: true, Usage: "path to the private tree document"},
			&cli.StringFlag{Name: "message", Required: true, Usage: "path to the file to sign"},
			&cli.StringFlag{Name: "sig-out", Value: "sig.hex", Usage: "output path for the hex-encoded signature"},
			&cli.Int64Flag{Name: "q", Value: -1, Usage: "assert the leaf index about to be used equals this value"},
		},
		Action: func(c *cli.Context) error {
			doc, err := persistence.ReadTreeDocument(c.String("tree"))
			if err != nil {
				return fmt.Errorf("sign: %w", err)
			}
			priv, err := persistence.LoadPrivateKey(doc, c.String("tree")+".cache")
			if err != nil {
				return fmt.Errorf("sign: %w", err)
			}

			if want := c.Int64("q"); want >= 0 && uint32(want) != priv.Q() {
				return fmt.Errorf("sign: leaf index mismatch: tree is at q=%d, expected %d", priv.Q(), want)
			}

			msg, err := os.ReadFile(c.String("message"))
			if err != nil {
				return fmt.Errorf("sign: failed to read message: %w", err)
			}

			sig, err := priv.Sign(msg, nil)
			if err != nil {
				return fmt.Errorf("sign: %w", err)
			}
			// Persist the advanced q before the signature is written out: a
			// signature on disk whose leaf was never marked used is a reuse
			// waiting to happen on the next invocation.
			newDoc, err := persistence.NewTreeDocument(&priv)
			if err != nil {
				return fmt.Errorf("sign: %w", err)
			}
			if err := persistence.WriteTreeDocument(c.String("tree"), &newDoc); err != nil {
				return fmt.Errorf("sign: failed to persist advanced leaf counter: %w", err)
			}

			sigBytes, err := sig.ToBytes()
			if err != nil {
				return fmt.Errorf("sign: %w", err)
			}
			if err := persistence.WriteHexFile(c.String("sig-out"), sigBytes); err != nil {
				return fmt.Errorf("sign: %w", err)
			}

			log.Info().
				Uint32("q", newDoc.Q-1).
				Str("sig", c.String("sig-out")).
				Msg("signed message")
			return nil
		},
	}
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "verify a signature against a public key and message",
		UsageText: "lms-cli verify --pubkey pubkey.hex --message msg.bin --signature sig.hex",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "pubkey", Required: true, Usage: "path to the hex-encoded public key"},
			&cli.StringFlag{Name: "message", Required: true, Usage: "path to the signed file"},
			&cli.StringFlag{Name: "signature", Required: true, Usage: "path to the hex-encoded signature"},
		},
		Action: func(c *cli.Context) error {
			pubBytes, err := persistence.ReadHexFile(c.String("pubkey"))
			if err != nil {
				return fmt.Errorf("verify: %w", err)
			}
			pub, err := lms.LmsPublicKeyFromBytes(pubBytes)
			if err != nil {
				return fmt.Errorf("verify: invalid public key: %w", err)
			}

			sigBytes, err := persistence.ReadHexFile(c.String("signature"))
			if err != nil {
				return fmt.Errorf("verify: %w", err)
			}
			sig, err := lms.LmsSignatureFromBytes(sigBytes)
			if err != nil {
				return fmt.Errorf("verify: invalid signature: %w", err)
			}

			msg, err := os.ReadFile(c.String("message"))
			if err != nil {
				return fmt.Errorf("verify: failed to read message: %w", err)
			}

			if err := pub.VerifyErr(msg, sig); err != nil {
				return fmt.Errorf("verify: %w", err)
			}

			log.Info().Str("message", c.String("message")).Msg("signature is valid")
			fmt.Fprintln(os.Stdout, "OK")
			return nil
		},
	}
}
