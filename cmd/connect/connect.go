package connect

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"megster/btserial/cmd/shared"
	"megster/btserial/pkg/bluetooth"
	"megster/btserial/pkg/config"
	"megster/btserial/pkg/log"
	"megster/btserial/pkg/serial"
)

const categoryConnect = "connect"

const deviceFlag = "device"
const rawFlag = "raw"

// GetCommand ...
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:  "connect",
		Usage: "Connect to a Bluetooth serial device and bridge it to stdio",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.Config{
				Device:  cmd.String(deviceFlag),
				Secure:  !cmd.Bool(shared.InsecureFlag),
				Verbose: cmd.Bool(shared.VerboseFlag),
			}

			if errors := cfg.Validate(); len(errors) > 0 {
				log.ErrorMsg("Argument validation errors:\n")
				for _, err := range errors {
					log.ErrorMsg(" - %s\n", err)
				}
				return fmt.Errorf("exiting")
			}
			log.SetVerbose(cfg.Verbose)

			if cmd.Bool(rawFlag) && term.IsTerminal(int(os.Stdin.Fd())) {
				oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
				if err != nil {
					return fmt.Errorf("setting terminal to raw mode: %s", err)
				}
				defer term.Restore(int(os.Stdin.Fd()), oldState)
			}

			log.InfoMsg("Connecting to %s\n", cfg.Device)

			sink := shared.NewConsoleSink(os.Stdout)
			svc := serial.New(bluetooth.NewAdapter(), sink)
			defer svc.Stop()

			svc.Connect(cfg.Device, cfg.Secure)
			select {
			case <-sink.Connected:
			case <-sink.Done:
				return fmt.Errorf("exiting")
			}

			return shared.Bridge(svc, sink)
		},
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     deviceFlag,
				Aliases:  []string{"d"},
				Usage:    "Remote device address (AA:BB:CC:DD:EE:FF)",
				Category: categoryConnect,
				Required: true,
			},
			&cli.BoolFlag{
				Name:     rawFlag,
				Usage:    "Put the local terminal into raw mode",
				Category: categoryConnect,
				Value:    false,
				Required: false,
			},
		}, shared.GetCommonFlags()...),
	}
}
