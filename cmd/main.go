package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"megster/btserial/cmd/connect"
	"megster/btserial/cmd/listen"
	"megster/btserial/cmd/print"
	"megster/btserial/cmd/version"
)

func main() {
	root := &cli.Command{
		Name:  "btserial",
		Usage: "Bluetooth Classic serial terminal with ESC/POS image printing",
		Commands: []*cli.Command{
			connect.GetCommand(),
			listen.GetCommand(),
			print.GetCommand(),
			version.GetCommand(),
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		fmt.Printf("[!] Error: %s\n", err)
	}
}
