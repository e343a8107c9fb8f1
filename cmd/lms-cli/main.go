// Command lms-cli is the command-line surface over the lms and
// persistence packages: create-tree, sign, and verify, operating on
// hex-encoded wire-format files.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	if isTerminal(os.Stderr) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}

	app := &cli.App{
		Name:                 "lms-cli",
		Usage:                "create, sign, and verify LMS (RFC 8554) keys and signatures",
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			createTreeCommand(),
			signCommand(),
			verifyCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Error().Err(err).Msg("lms-cli failed")
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
