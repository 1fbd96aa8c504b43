package print

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"megster/btserial/cmd/shared"
	"megster/btserial/pkg/bluetooth"
	"megster/btserial/pkg/config"
	"megster/btserial/pkg/escpos"
	"megster/btserial/pkg/log"
	"megster/btserial/pkg/serial"
)

const categoryPrint = "print"

const deviceFlag = "device"
const fileFlag = "file"
const cutFlag = "cut"

// GetCommand ...
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:  "print",
		Usage: "Print an image on an ESC/POS receipt printer",
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

			file := cmd.String(fileFlag)
			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("os.ReadFile(%s): %s", file, err)
			}
			data := base64.StdEncoding.EncodeToString(raw)

			log.InfoMsg("Connecting to %s\n", cfg.Device)

			sink := shared.NewConsoleSink(io.Discard)
			svc := serial.New(bluetooth.NewAdapter(), sink)
			defer svc.Stop()

			svc.Connect(cfg.Device, cfg.Secure)
			select {
			case <-sink.Connected:
			case <-sink.Done:
				return fmt.Errorf("exiting")
			}

			if err := svc.SendImage(data); err != nil {
				return fmt.Errorf("sending image: %s", err)
			}

			if cmd.Bool(cutFlag) {
				svc.Write(escpos.LineFeed)
				svc.Write(escpos.CutPaper)
			}

			// a read failure may surface the dead link only after the
			// writes returned
			select {
			case <-sink.Done:
				return fmt.Errorf("connection lost while printing")
			default:
			}

			log.InfoMsg("Printed %s\n", file)
			return nil
		},
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     deviceFlag,
				Aliases:  []string{"d"},
				Usage:    "Printer device address (AA:BB:CC:DD:EE:FF)",
				Category: categoryPrint,
				Required: true,
			},
			&cli.StringFlag{
				Name:     fileFlag,
				Aliases:  []string{"f"},
				Usage:    "Image file to print (PNG, JPEG, GIF, BMP or WebP)",
				Category: categoryPrint,
				Required: true,
			},
			&cli.BoolFlag{
				Name:     cutFlag,
				Usage:    "Cut the paper after printing",
				Category: categoryPrint,
				Value:    false,
				Required: false,
			},
		}, shared.GetCommonFlags()...),
	}
}
