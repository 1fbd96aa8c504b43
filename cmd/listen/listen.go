package listen

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"megster/btserial/cmd/shared"
	"megster/btserial/pkg/bluetooth"
	"megster/btserial/pkg/config"
	"megster/btserial/pkg/log"
	"megster/btserial/pkg/serial"
)

// GetCommand ...
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:  "listen",
		Usage: "Wait for an inbound connection and bridge it to stdio",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.Config{
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

			log.InfoMsg("Listening for inbound connections\n")

			sink := shared.NewConsoleSink(os.Stdout)
			svc := serial.New(bluetooth.NewAdapter(), sink)
			defer svc.Stop()

			svc.Listen()
			select {
			case <-sink.Connected:
			case <-sink.Done:
				return fmt.Errorf("exiting")
			}

			return shared.Bridge(svc, sink)
		},
		Flags: shared.GetCommonFlags(),
	}
}
