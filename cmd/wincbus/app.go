package main

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	flagConfig = "config"
	flagDebug  = "debug"
)

func newApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "wincbus",
		Usage:           "exercise the WiFi module bus",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "probe",
				Usage:  "initialise the bus and read a few bytes",
				Action: ProbeAction,
			},
			{
				Name:      "xfer",
				Usage:     "full-duplex SPI transfer",
				ArgsUsage: "<hex>",
				Action:    XferAction,
			},
			{
				Name:      "write",
				Usage:     "write bytes, discarding anything read",
				ArgsUsage: "<hex>",
				Action:    WriteAction,
			},
			{
				Name:      "read",
				Usage:     "read bytes",
				ArgsUsage: "<count>",
				Action:    ReadAction,
			},
			{
				Name:   "dict",
				Usage:  "print the bridge MCU data dictionary",
				Action: DictAction,
			},
		},
	}
}
